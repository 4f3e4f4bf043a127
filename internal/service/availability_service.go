package service

import (
	"fmt"
	"log"
	"time"

	"studiobook/internal/apperr"
	"studiobook/internal/db"
	"studiobook/internal/entities"
	"studiobook/internal/timegrid"
)

const dateLayout = "2006-01-02"

const maxNotesLength = 500

type AvailabilityService struct {
	windows  AvailabilityRepo
	bookings BookingRepo

	maxAdvanceDays int
	now            func() time.Time
}

func NewAvailabilityService(windows AvailabilityRepo, bookings BookingRepo, maxAdvanceDays int) *AvailabilityService {
	return &AvailabilityService{
		windows:        windows,
		bookings:       bookings,
		maxAdvanceDays: maxAdvanceDays,
		now:            time.Now,
	}
}

func parseDate(date string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, apperr.Newf(apperr.KindValidation, "invalid date %q, expected YYYY-MM-DD", date)
	}
	return d, nil
}

// dayOf truncates t to its calendar date in t's location.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// validateSpec checks the window invariants and returns the parsed grid bounds.
func validateSpec(req entities.WindowRequest) (start, end timegrid.TimeOfDay, err error) {
	if _, err := parseDate(req.Date); err != nil {
		return 0, 0, err
	}
	start, err = timegrid.Parse(req.StartTime)
	if err != nil {
		return 0, 0, apperr.Wrap(apperr.KindValidation, "invalid start_time", err)
	}
	end, err = timegrid.Parse(req.EndTime)
	if err != nil {
		return 0, 0, apperr.Wrap(apperr.KindValidation, "invalid end_time", err)
	}
	if req.SlotDuration < timegrid.MinSlotDuration || req.SlotDuration > timegrid.MaxSlotDuration {
		return 0, 0, apperr.Newf(apperr.KindValidation, "slot_duration must be between %d and %d minutes",
			timegrid.MinSlotDuration, timegrid.MaxSlotDuration)
	}
	if end <= start {
		return 0, 0, apperr.New(apperr.KindValidation, "end_time must be after start_time")
	}
	if int(end-start) < req.SlotDuration {
		return 0, 0, apperr.New(apperr.KindValidation, "time range is shorter than one slot")
	}
	if len(req.Notes) > maxNotesLength {
		return 0, 0, apperr.Newf(apperr.KindValidation, "notes must not exceed %d characters", maxNotesLength)
	}
	return start, end, nil
}

func toWindowResponse(w *db.AvailabilityWindow) *entities.WindowResponse {
	start, _ := timegrid.Parse(w.StartTime)
	end, _ := timegrid.Parse(w.EndTime)
	return &entities.WindowResponse{
		ID:           w.ID,
		Date:         w.Date,
		StartTime:    w.StartTime,
		EndTime:      w.EndTime,
		SlotDuration: w.SlotDuration,
		IsActive:     w.IsActive,
		Notes:        w.Notes.String,
		TotalSlots:   len(timegrid.GenerateSlots(start, end, w.SlotDuration)),
		CreatedAt:    w.CreatedAt,
	}
}

func windowFromRequest(req entities.WindowRequest) *db.AvailabilityWindow {
	w := &db.AvailabilityWindow{
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		SlotDuration: req.SlotDuration,
		IsActive:     true,
	}
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}
	if req.Notes != "" {
		w.Notes.String, w.Notes.Valid = req.Notes, true
	}
	if req.CreatedBy != 0 {
		w.CreatedBy.Int64, w.CreatedBy.Valid = int64(req.CreatedBy), true
	}
	return w
}

// CreateWindow opens one date for booking. Exactly one window may exist per
// date; a second creation fails with a conflict.
func (s *AvailabilityService) CreateWindow(req entities.WindowRequest) (*entities.WindowResponse, error) {
	if _, _, err := validateSpec(req); err != nil {
		return nil, err
	}
	date, _ := parseDate(req.Date)
	if date.Before(dayOf(s.now())) {
		return nil, apperr.New(apperr.KindValidation, "date is in the past")
	}

	w := windowFromRequest(req)
	if err := s.windows.Create(w); err != nil {
		if isUnique(err) {
			return nil, apperr.Newf(apperr.KindConflict, "availability window already exists for %s", req.Date)
		}
		return nil, fmt.Errorf("error creating availability window: %w", err)
	}
	return toWindowResponse(w), nil
}

// BulkCreateWindows seeds many dates at once. Each item is attempted
// independently; dates that already had a window before the batch are
// skipped, and validation or duplicate-key failures inside the batch are
// reported per item. One failure never aborts the rest.
func (s *AvailabilityService) BulkCreateWindows(reqs []entities.WindowRequest) (*entities.BulkWindowsResult, error) {
	result := &entities.BulkWindowsResult{
		Created: []string{},
		Skipped: []entities.BulkWindowItem{},
		Errors:  []entities.BulkWindowItem{},
	}

	dates := make([]string, 0, len(reqs))
	for _, req := range reqs {
		dates = append(dates, req.Date)
	}
	existing, err := s.windows.ExistingDates(dates)
	if err != nil {
		return nil, fmt.Errorf("error checking existing windows: %w", err)
	}

	today := dayOf(s.now())
	for _, req := range reqs {
		if _, _, err := validateSpec(req); err != nil {
			result.Errors = append(result.Errors, entities.BulkWindowItem{Date: req.Date, Reason: err.Error()})
			continue
		}
		if existing[req.Date] {
			result.Skipped = append(result.Skipped, entities.BulkWindowItem{Date: req.Date, Reason: "window already exists"})
			continue
		}
		if date, _ := parseDate(req.Date); date.Before(today) {
			result.Skipped = append(result.Skipped, entities.BulkWindowItem{Date: req.Date, Reason: "date is in the past"})
			continue
		}
		if err := s.windows.Create(windowFromRequest(req)); err != nil {
			reason := "error creating window"
			if isUnique(err) {
				reason = "duplicate date in batch"
			} else {
				log.Printf("Bulk create: error creating window for %s: %v", req.Date, err)
			}
			result.Errors = append(result.Errors, entities.BulkWindowItem{Date: req.Date, Reason: reason})
			continue
		}
		result.Created = append(result.Created, req.Date)
	}
	return result, nil
}

// GetWindow returns the window for a date, booked-slot count not included.
func (s *AvailabilityService) GetWindow(date string) (*entities.WindowResponse, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	w, err := s.windows.GetByDate(date)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "no availability window for %s", date)
	}
	return toWindowResponse(w), nil
}

// ListWindows returns all windows in [from, to].
func (s *AvailabilityService) ListWindows(from, to string) ([]entities.WindowResponse, error) {
	if _, err := parseDate(from); err != nil {
		return nil, err
	}
	if _, err := parseDate(to); err != nil {
		return nil, err
	}
	windows, err := s.windows.ListRange(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]entities.WindowResponse, 0, len(windows))
	for i := range windows {
		out = append(out, *toWindowResponse(&windows[i]))
	}
	return out, nil
}

// UpdateWindow patches a window. Grid fields (times, slot duration) are
// frozen while non-cancelled bookings exist for the date, since changing the
// grid would invalidate their time slots.
func (s *AvailabilityService) UpdateWindow(date string, patch entities.WindowPatch) (*entities.WindowResponse, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	w, err := s.windows.GetByDate(date)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "no availability window for %s", date)
	}

	touchesGrid := patch.StartTime != nil || patch.EndTime != nil || patch.SlotDuration != nil
	if touchesGrid {
		live, err := s.bookings.CountLiveByDate(date)
		if err != nil {
			return nil, err
		}
		if live > 0 {
			return nil, apperr.Newf(apperr.KindForbidden,
				"cannot change the slot grid for %s: %d active bookings exist", date, live)
		}
	}

	if patch.StartTime != nil {
		w.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		w.EndTime = *patch.EndTime
	}
	if patch.SlotDuration != nil {
		w.SlotDuration = *patch.SlotDuration
	}
	if patch.IsActive != nil {
		w.IsActive = *patch.IsActive
	}
	if patch.Notes != nil {
		w.Notes.String, w.Notes.Valid = *patch.Notes, *patch.Notes != ""
	}

	if _, _, err := validateSpec(entities.WindowRequest{
		Date: w.Date, StartTime: w.StartTime, EndTime: w.EndTime,
		SlotDuration: w.SlotDuration, Notes: w.Notes.String,
	}); err != nil {
		return nil, err
	}

	if err := s.windows.Update(w); err != nil {
		return nil, fmt.Errorf("error updating availability window: %w", err)
	}
	return toWindowResponse(w), nil
}

// DeleteWindow removes a window, refusing while live bookings reference it.
func (s *AvailabilityService) DeleteWindow(date string) error {
	if _, err := parseDate(date); err != nil {
		return err
	}
	live, err := s.bookings.CountLiveByDate(date)
	if err != nil {
		return err
	}
	if live > 0 {
		return apperr.Newf(apperr.KindForbidden,
			"cannot delete availability for %s: %d active bookings exist", date, live)
	}
	deleted, err := s.windows.Delete(date)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.Newf(apperr.KindNotFound, "no availability window for %s", date)
	}
	return nil
}

// FindForBooking resolves the active window covering date. Dates in the past
// or beyond the advance-booking horizon have no bookable window.
func (s *AvailabilityService) FindForBooking(date string) (*db.AvailabilityWindow, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	today := dayOf(s.now())
	if d.Before(today) || d.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return nil, apperr.Newf(apperr.KindNotFound, "no bookable availability for %s", date)
	}
	w, err := s.windows.GetByDate(date)
	if err != nil {
		return nil, err
	}
	if w == nil || !w.IsActive {
		return nil, apperr.Newf(apperr.KindNotFound, "no bookable availability for %s", date)
	}
	return w, nil
}
