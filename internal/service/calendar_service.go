package service

import (
	"fmt"
	"time"

	"studiobook/internal/apperr"
	"studiobook/internal/db"
	"studiobook/internal/entities"
	"studiobook/internal/timegrid"
)

// CalendarService composes the availability and booking stores to answer
// "what is free on date D" and "what does month M look like".
type CalendarService struct {
	windows  AvailabilityRepo
	bookings BookingRepo

	lookaheadDays int
	now           func() time.Time
}

func NewCalendarService(windows AvailabilityRepo, bookings BookingRepo, lookaheadDays int) *CalendarService {
	return &CalendarService{
		windows:       windows,
		bookings:      bookings,
		lookaheadDays: lookaheadDays,
		now:           time.Now,
	}
}

func gridOf(w *db.AvailabilityWindow) []timegrid.TimeOfDay {
	start, _ := timegrid.Parse(w.StartTime)
	end, _ := timegrid.Parse(w.EndTime)
	return timegrid.GenerateSlots(start, end, w.SlotDuration)
}

// SlotsForDate expands the date's window into its full grid and annotates
// each slot with occupancy and, when the date is today, whether its time has
// already passed.
func (s *CalendarService) SlotsForDate(date string) ([]entities.SlotStatus, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	w, err := s.windows.GetByDate(date)
	if err != nil {
		return nil, err
	}
	if w == nil || !w.IsActive {
		return nil, apperr.Newf(apperr.KindNotFound, "no availability for %s", date)
	}

	bookedSlots, err := s.bookings.LiveSlotsByDate(date)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]bool, len(bookedSlots))
	for _, t := range bookedSlots {
		booked[t] = true
	}

	now := s.now()
	today := dayOf(now)
	var statuses []entities.SlotStatus
	for _, t := range gridOf(w) {
		isPast := d.Before(today) || (d.Equal(today) && t <= timegrid.FromTime(now))
		isBooked := booked[t.String()]
		statuses = append(statuses, entities.SlotStatus{
			Time:      t.String(),
			Available: !isBooked && !isPast,
			IsBooked:  isBooked,
			IsPast:    isPast,
		})
	}
	return statuses, nil
}

// CalendarForMonth summarizes every day of a month: whether an active window
// exists and, if so, grid size versus occupied count.
func (s *CalendarService) CalendarForMonth(month, year int) ([]entities.DaySummary, error) {
	if month < 1 || month > 12 {
		return nil, apperr.Newf(apperr.KindValidation, "invalid month %d", month)
	}
	if year < 2000 || year > 2100 {
		return nil, apperr.Newf(apperr.KindValidation, "invalid year %d", year)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	from, to := first.Format(dateLayout), last.Format(dateLayout)

	windows, err := s.windows.ListRange(from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*db.AvailabilityWindow, len(windows))
	for i := range windows {
		byDate[windows[i].Date] = &windows[i]
	}

	booked, err := s.bookings.LiveSlotsByRange(from, to)
	if err != nil {
		return nil, err
	}

	days := make([]entities.DaySummary, 0, last.Day())
	for day := 1; day <= last.Day(); day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
		summary := entities.DaySummary{Date: date}
		if w, ok := byDate[date]; ok && w.IsActive {
			total := len(gridOf(w))
			taken := len(booked[date])
			summary.IsAvailable = true
			summary.TotalSlots = total
			summary.BookedSlots = taken
			summary.AvailableSlots = total - taken
			summary.IsFullyBooked = total > 0 && taken >= total
		}
		days = append(days, summary)
	}
	return days, nil
}

// NextAvailableSlots scans forward from fromDate, expanding each active
// window into its grid and skipping booked and past slots, until count
// results are collected or the look-ahead horizon runs out. A partial result
// is valid.
func (s *CalendarService) NextAvailableSlots(count int, fromDate string) ([]entities.UpcomingSlot, error) {
	if count <= 0 || count > 100 {
		return nil, apperr.Newf(apperr.KindValidation, "count must be between 1 and 100")
	}
	now := s.now()
	today := dayOf(now)
	if fromDate == "" {
		fromDate = today.Format(dateLayout)
	}
	start, err := parseDate(fromDate)
	if err != nil {
		return nil, err
	}
	if start.Before(today) {
		start = today
	}
	from := start.Format(dateLayout)
	to := start.AddDate(0, 0, s.lookaheadDays).Format(dateLayout)

	windows, err := s.windows.ListRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("error scanning availability: %w", err)
	}
	booked, err := s.bookings.LiveSlotsByRange(from, to)
	if err != nil {
		return nil, err
	}

	todayStr := today.Format(dateLayout)
	nowT := timegrid.FromTime(now)

	results := []entities.UpcomingSlot{}
	for i := range windows {
		w := &windows[i]
		if !w.IsActive {
			continue
		}
		taken := make(map[string]bool, len(booked[w.Date]))
		for _, t := range booked[w.Date] {
			taken[t] = true
		}
		for _, t := range gridOf(w) {
			if w.Date == todayStr && t <= nowT {
				continue
			}
			if taken[t.String()] {
				continue
			}
			results = append(results, entities.UpcomingSlot{Date: w.Date, Time: t.String()})
			if len(results) == count {
				return results, nil
			}
		}
	}
	return results, nil
}
