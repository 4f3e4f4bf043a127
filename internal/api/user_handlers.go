package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"studiobook/internal/db"
	"studiobook/internal/entities"
	"studiobook/internal/service"
)

// UserHandler serves the customer-facing booking and calendar endpoints.
type UserHandler struct {
	Bookings *service.BookingService
	Calendar *service.CalendarService
}

func NewUserHandler(bookings *service.BookingService, calendar *service.CalendarService) *UserHandler {
	return &UserHandler{Bookings: bookings, Calendar: calendar}
}

func (h *UserHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		http.Error(w, "Invalid month", http.StatusBadRequest)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}
	days, err := h.Calendar.CalendarForMonth(month, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

func (h *UserHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	slots, err := h.Calendar.SlotsForDate(date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"date": date, "slots": slots})
}

func (h *UserHandler) GetNextSlots(w http.ResponseWriter, r *http.Request) {
	count := 5
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil {
			http.Error(w, "Invalid count", http.StatusBadRequest)
			return
		}
		count = n
	}
	slots, err := h.Calendar.NextAvailableSlots(count, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"slots": slots})
}

func (h *UserHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	// The public endpoint always books online; other sources go through admin.
	req.Source = db.SourceOnline

	booking, err := h.Bookings.Create(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *UserHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	email := r.URL.Query().Get("email")
	booking, err := h.Bookings.GetByReference(reference, email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *UserHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	var req entities.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	booking, err := h.Bookings.Cancel(reference, req.Email, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *UserHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	var req entities.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	booking, err := h.Bookings.Reschedule(reference, req.Email, req.Date, req.TimeSlot)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
