package service

import (
	"sort"
	"time"

	"github.com/lib/pq"

	"studiobook/internal/db"
	"studiobook/internal/entities"
	"studiobook/internal/repository"
)

// In-memory stand-ins for the Postgres repositories. They reproduce the
// unique-index behavior the services rely on, pq error codes included.

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

type fakeAvailabilityRepo struct {
	windows map[string]db.AvailabilityWindow
	nextID  int
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{windows: make(map[string]db.AvailabilityWindow)}
}

func (f *fakeAvailabilityRepo) Create(w *db.AvailabilityWindow) error {
	if _, ok := f.windows[w.Date]; ok {
		return uniqueViolation("availability_windows_date_key")
	}
	f.nextID++
	w.ID = f.nextID
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	f.windows[w.Date] = *w
	return nil
}

func (f *fakeAvailabilityRepo) GetByDate(date string) (*db.AvailabilityWindow, error) {
	w, ok := f.windows[date]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (f *fakeAvailabilityRepo) ListRange(from, to string) ([]db.AvailabilityWindow, error) {
	var out []db.AvailabilityWindow
	for date, w := range f.windows {
		if date >= from && date <= to {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeAvailabilityRepo) Update(w *db.AvailabilityWindow) error {
	stored := f.windows[w.Date]
	w.ID = stored.ID
	w.UpdatedAt = time.Now()
	f.windows[w.Date] = *w
	return nil
}

func (f *fakeAvailabilityRepo) Delete(date string) (bool, error) {
	if _, ok := f.windows[date]; !ok {
		return false, nil
	}
	delete(f.windows, date)
	return true, nil
}

func (f *fakeAvailabilityRepo) ExistingDates(dates []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	for _, d := range dates {
		if _, ok := f.windows[d]; ok {
			existing[d] = true
		}
	}
	return existing, nil
}

type fakeBookingRepo struct {
	bookings  map[int]db.Booking
	sequences map[string]int
	nextID    int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:  make(map[int]db.Booking),
		sequences: make(map[string]int),
	}
}

func (f *fakeBookingRepo) Create(b *db.Booking) error {
	for _, other := range f.bookings {
		if other.Reference == b.Reference {
			return uniqueViolation(repository.ReferenceConstraint)
		}
		if other.Date == b.Date && other.TimeSlot == b.TimeSlot && other.Status != db.StatusCancelled {
			return uniqueViolation(repository.LiveSlotIndex)
		}
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	f.bookings[b.ID] = *b
	return nil
}

func (f *fakeBookingRepo) GetByID(id int) (*db.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *fakeBookingRepo) GetByReference(reference string) (*db.Booking, error) {
	for _, b := range f.bookings {
		if b.Reference == reference {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) GetByStripeSessionID(sessionID string) (*db.Booking, error) {
	for _, b := range f.bookings {
		if b.StripeSessionID.Valid && b.StripeSessionID.String == sessionID {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) FindLiveBySlot(date, slot string, excludeID int) (*db.Booking, error) {
	for _, b := range f.bookings {
		if b.Date == date && b.TimeSlot == slot && b.Status != db.StatusCancelled && b.ID != excludeID {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) LiveSlotsByDate(date string) ([]string, error) {
	var slots []string
	for _, b := range f.bookings {
		if b.Date == date && b.Status != db.StatusCancelled {
			slots = append(slots, b.TimeSlot)
		}
	}
	sort.Strings(slots)
	return slots, nil
}

func (f *fakeBookingRepo) LiveSlotsByRange(from, to string) (map[string][]string, error) {
	booked := make(map[string][]string)
	for _, b := range f.bookings {
		if b.Date >= from && b.Date <= to && b.Status != db.StatusCancelled {
			booked[b.Date] = append(booked[b.Date], b.TimeSlot)
		}
	}
	for date := range booked {
		sort.Strings(booked[date])
	}
	return booked, nil
}

func (f *fakeBookingRepo) CountLiveByDate(date string) (int, error) {
	n := 0
	for _, b := range f.bookings {
		if b.Date == date && b.Status != db.StatusCancelled {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookingRepo) List(filter entities.BookingFilter) ([]db.Booking, int, error) {
	var out []db.Booking
	for _, b := range f.bookings {
		if filter.Date != "" && b.Date != filter.Date {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.Source != "" && b.Source != filter.Source {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeBookingRepo) UpdateSlot(id int, date, slot string) error {
	b := f.bookings[id]
	b.Date, b.TimeSlot = date, slot
	f.bookings[id] = b
	return nil
}

func (f *fakeBookingRepo) Cancel(id int, reason string) error {
	b := f.bookings[id]
	b.Status = db.StatusCancelled
	b.CancelledAt.Time, b.CancelledAt.Valid = time.Now(), true
	if reason != "" {
		b.CancellationReason.String, b.CancellationReason.Valid = reason, true
	}
	f.bookings[id] = b
	return nil
}

func (f *fakeBookingRepo) SetStatus(id int, status string) error {
	if status == db.StatusCancelled {
		return f.Cancel(id, "")
	}
	b := f.bookings[id]
	b.Status = status
	f.bookings[id] = b
	return nil
}

func (f *fakeBookingRepo) SetCheckedIn(id int) error {
	b := f.bookings[id]
	b.CheckedInAt.Time, b.CheckedInAt.Valid = time.Now(), true
	f.bookings[id] = b
	return nil
}

func (f *fakeBookingRepo) SetPaymentStatus(id int, paymentStatus string) error {
	b := f.bookings[id]
	b.PaymentStatus = paymentStatus
	f.bookings[id] = b
	return nil
}

func (f *fakeBookingRepo) UpdateStatusAndPaymentBySession(sessionID, status, paymentStatus string) error {
	for id, b := range f.bookings {
		if b.StripeSessionID.Valid && b.StripeSessionID.String == sessionID {
			b.Status = status
			b.PaymentStatus = paymentStatus
			f.bookings[id] = b
		}
	}
	return nil
}

func (f *fakeBookingRepo) NextReferenceSequence(minuteKey string) (int, error) {
	f.sequences[minuteKey]++
	return f.sequences[minuteKey], nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) BookingStatusChanged(b *db.Booking, status string) {
	f.events = append(f.events, b.Reference+":"+status)
}

type fakePayments struct {
	sessions int
	refunds  []string
}

func (f *fakePayments) CreateCheckoutSession(amountCents int64, currency, reference, customerEmail string) (string, string, error) {
	f.sessions++
	return "https://checkout.test/" + reference, "sess_" + reference, nil
}

func (f *fakePayments) RefundBySessionID(sessionID string) error {
	f.refunds = append(f.refunds, sessionID)
	return nil
}
