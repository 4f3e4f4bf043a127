package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"studiobook/internal/auth"
	"studiobook/internal/db"
	"studiobook/internal/entities"
	"studiobook/internal/service"
)

// AdminHandler serves the back-office endpoints behind the JWT middleware.
type AdminHandler struct {
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
}

func NewAdminHandler(availability *service.AvailabilityService, bookings *service.BookingService) *AdminHandler {
	return &AdminHandler{Availability: availability, Bookings: bookings}
}

func (h *AdminHandler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	var req entities.WindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.CreatedBy = auth.AdminID(r.Context())
	window, err := h.Availability.CreateWindow(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, window)
}

func (h *AdminHandler) BulkCreateWindows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Windows []entities.WindowRequest `json:"windows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	adminID := auth.AdminID(r.Context())
	for i := range req.Windows {
		req.Windows[i].CreatedBy = adminID
	}
	result, err := h.Availability.BulkCreateWindows(req.Windows)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) ListWindows(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		// Default to the coming month.
		now := time.Now()
		from = now.Format("2006-01-02")
		to = now.AddDate(0, 1, 0).Format("2006-01-02")
	}
	windows, err := h.Availability.ListWindows(from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"windows": windows})
}

func (h *AdminHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	window, err := h.Availability.GetWindow(mux.Vars(r)["date"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

func (h *AdminHandler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	var patch entities.WindowPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	window, err := h.Availability.UpdateWindow(mux.Vars(r)["date"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

func (h *AdminHandler) DeleteWindow(w http.ResponseWriter, r *http.Request) {
	if err := h.Availability.DeleteWindow(mux.Vars(r)["date"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Availability window deleted"})
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entities.BookingFilter{
		Date:   q.Get("date"),
		Status: q.Get("status"),
		Source: q.Get("source"),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	list, err := h.Bookings.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateBooking lets the front desk register phone and walk-in reservations.
func (h *AdminHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = db.SourceAdmin
	}
	booking, err := h.Bookings.Create(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (h *AdminHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	booking, err := h.Bookings.UpdateStatus(id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *AdminHandler) CheckInBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	booking, err := h.Bookings.CheckIn(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
