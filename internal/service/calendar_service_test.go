package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/internal/apperr"
	"studiobook/internal/db"
	"studiobook/internal/entities"
)

type calendarFixture struct {
	svc      *CalendarService
	windows  *fakeAvailabilityRepo
	bookings *fakeBookingRepo
	now      time.Time
}

func newCalendarFixture() *calendarFixture {
	fx := &calendarFixture{
		windows:  newFakeAvailabilityRepo(),
		bookings: newFakeBookingRepo(),
		now:      time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC),
	}
	fx.svc = NewCalendarService(fx.windows, fx.bookings, 30)
	fx.svc.now = func() time.Time { return fx.now }
	return fx
}

func (fx *calendarFixture) addWindow(t *testing.T, date string, active bool) {
	t.Helper()
	require.NoError(t, fx.windows.Create(&db.AvailabilityWindow{
		Date: date, StartTime: "09:00", EndTime: "17:00", SlotDuration: 30, IsActive: active,
	}))
}

func (fx *calendarFixture) addBooking(t *testing.T, ref, date, slot, status string) {
	t.Helper()
	require.NoError(t, fx.bookings.Create(&db.Booking{
		Reference: ref, Date: date, TimeSlot: slot,
		CustomerName: "Ada", CustomerEmail: "ada@example.com",
		Status: status, Source: db.SourceOnline, PaymentStatus: db.PaymentNone,
	}))
}

func TestSlotsForDate(t *testing.T) {
	fx := newCalendarFixture()
	fx.addWindow(t, "2025-09-25", true)
	fx.addBooking(t, "BK2025092010001", "2025-09-25", "10:00", db.StatusConfirmed)

	slots, err := fx.svc.SlotsForDate("2025-09-25")
	require.NoError(t, err)
	require.Len(t, slots, 16)

	byTime := make(map[string]entities.SlotStatus, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s
	}
	assert.True(t, byTime["10:00"].IsBooked)
	assert.False(t, byTime["10:00"].Available)
	for _, s := range slots {
		if s.Time == "10:00" {
			continue
		}
		assert.True(t, s.Available, "slot %s", s.Time)
		assert.False(t, s.IsPast, "slot %s", s.Time)
	}
}

func TestSlotsForDateIgnoresCancelledBookings(t *testing.T) {
	fx := newCalendarFixture()
	fx.addWindow(t, "2025-09-25", true)
	fx.addBooking(t, "BK2025092010001", "2025-09-25", "10:00", db.StatusCancelled)

	slots, err := fx.svc.SlotsForDate("2025-09-25")
	require.NoError(t, err)
	for _, s := range slots {
		assert.False(t, s.IsBooked, "slot %s", s.Time)
	}
}

func TestSlotsForDateMarksPastTimesToday(t *testing.T) {
	fx := newCalendarFixture()
	fx.addWindow(t, "2025-09-20", true)

	// The clock reads 10:00, so 10:00 itself counts as passed.
	slots, err := fx.svc.SlotsForDate("2025-09-20")
	require.NoError(t, err)
	for _, s := range slots {
		if s.Time <= "10:00" {
			assert.True(t, s.IsPast, "slot %s", s.Time)
			assert.False(t, s.Available, "slot %s", s.Time)
		} else {
			assert.False(t, s.IsPast, "slot %s", s.Time)
			assert.True(t, s.Available, "slot %s", s.Time)
		}
	}
}

func TestSlotsForDateMissingOrInactive(t *testing.T) {
	fx := newCalendarFixture()
	fx.addWindow(t, "2025-09-26", false)

	for _, date := range []string{"2025-09-25", "2025-09-26"} {
		_, err := fx.svc.SlotsForDate(date)
		require.Error(t, err, "date %s", date)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	}

	_, err := fx.svc.SlotsForDate("25/09/2025")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCalendarForMonth(t *testing.T) {
	fx := newCalendarFixture()
	fx.addWindow(t, "2025-09-25", true)
	fx.addWindow(t, "2025-09-26", false)
	fx.addBooking(t, "BK2025092010001", "2025-09-25", "10:00", db.StatusConfirmed)
	fx.addBooking(t, "BK2025092010002", "2025-09-25", "11:00", db.StatusConfirmed)
	fx.addBooking(t, "BK2025092010003", "2025-09-25", "12:00", db.StatusCancelled)

	days, err := fx.svc.CalendarForMonth(9, 2025)
	require.NoError(t, err)
	require.Len(t, days, 30)

	byDate := make(map[string]entities.DaySummary, len(days))
	for _, d := range days {
		byDate[d.Date] = d
	}

	open := byDate["2025-09-25"]
	assert.True(t, open.IsAvailable)
	assert.Equal(t, 16, open.TotalSlots)
	assert.Equal(t, 2, open.BookedSlots)
	assert.Equal(t, 14, open.AvailableSlots)
	assert.False(t, open.IsFullyBooked)

	assert.False(t, byDate["2025-09-26"].IsAvailable, "inactive window counts as closed")
	assert.False(t, byDate["2025-09-10"].IsAvailable, "day without a window is closed")
}

func TestCalendarForMonthValidation(t *testing.T) {
	fx := newCalendarFixture()

	_, err := fx.svc.CalendarForMonth(13, 2025)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = fx.svc.CalendarForMonth(9, 1999)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestNextAvailableSlots(t *testing.T) {
	fx := newCalendarFixture()
	// Today's window: everything up to and including 10:00 has passed.
	fx.addWindow(t, "2025-09-20", true)
	fx.addWindow(t, "2025-09-21", true)
	fx.addBooking(t, "BK2025092010001", "2025-09-20", "10:30", db.StatusConfirmed)

	slots, err := fx.svc.NextAvailableSlots(3, "")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, entities.UpcomingSlot{Date: "2025-09-20", Time: "11:00"}, slots[0])
	assert.Equal(t, entities.UpcomingSlot{Date: "2025-09-20", Time: "11:30"}, slots[1])
	assert.Equal(t, entities.UpcomingSlot{Date: "2025-09-20", Time: "12:00"}, slots[2])
}

func TestNextAvailableSlotsSpansDaysAndSkipsInactive(t *testing.T) {
	fx := newCalendarFixture()
	fx.addWindow(t, "2025-09-21", false)
	require.NoError(t, fx.windows.Create(&db.AvailabilityWindow{
		Date: "2025-09-22", StartTime: "09:00", EndTime: "10:00", SlotDuration: 30, IsActive: true,
	}))
	fx.addWindow(t, "2025-09-23", true)

	slots, err := fx.svc.NextAvailableSlots(3, "")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, entities.UpcomingSlot{Date: "2025-09-22", Time: "09:00"}, slots[0])
	assert.Equal(t, entities.UpcomingSlot{Date: "2025-09-22", Time: "09:30"}, slots[1])
	assert.Equal(t, entities.UpcomingSlot{Date: "2025-09-23", Time: "09:00"}, slots[2])
}

func TestNextAvailableSlotsPartialResult(t *testing.T) {
	fx := newCalendarFixture()
	require.NoError(t, fx.windows.Create(&db.AvailabilityWindow{
		Date: "2025-09-22", StartTime: "09:00", EndTime: "10:00", SlotDuration: 30, IsActive: true,
	}))

	slots, err := fx.svc.NextAvailableSlots(10, "")
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	none, err := fx.svc.NextAvailableSlots(5, "2025-09-23")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNextAvailableSlotsValidation(t *testing.T) {
	fx := newCalendarFixture()

	for _, count := range []int{0, -1, 101} {
		_, err := fx.svc.NextAvailableSlots(count, "")
		require.Error(t, err, "count %d", count)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}

	_, err := fx.svc.NextAvailableSlots(5, "sometime soon")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
