package service

import (
	"studiobook/internal/db"
	"studiobook/internal/entities"
	"studiobook/internal/repository"
)

// The services depend on these narrow views of the repositories so the
// booking rules can be exercised against in-memory fakes in tests.

type AvailabilityRepo interface {
	Create(w *db.AvailabilityWindow) error
	GetByDate(date string) (*db.AvailabilityWindow, error)
	ListRange(from, to string) ([]db.AvailabilityWindow, error)
	Update(w *db.AvailabilityWindow) error
	Delete(date string) (bool, error)
	ExistingDates(dates []string) (map[string]bool, error)
}

type BookingRepo interface {
	Create(b *db.Booking) error
	GetByID(id int) (*db.Booking, error)
	GetByReference(reference string) (*db.Booking, error)
	GetByStripeSessionID(sessionID string) (*db.Booking, error)
	FindLiveBySlot(date, slot string, excludeID int) (*db.Booking, error)
	LiveSlotsByDate(date string) ([]string, error)
	LiveSlotsByRange(from, to string) (map[string][]string, error)
	CountLiveByDate(date string) (int, error)
	List(filter entities.BookingFilter) ([]db.Booking, int, error)
	UpdateSlot(id int, date, slot string) error
	Cancel(id int, reason string) error
	SetStatus(id int, status string) error
	SetCheckedIn(id int) error
	SetPaymentStatus(id int, paymentStatus string) error
	UpdateStatusAndPaymentBySession(sessionID, status, paymentStatus string) error
	NextReferenceSequence(minuteKey string) (int, error)
}

// Notifier hands completed bookings to the notification collaborator.
// Implementations are fire-and-forget; failures never surface to callers.
type Notifier interface {
	BookingStatusChanged(b *db.Booking, status string)
}

// PaymentGateway abstracts the checkout provider for deposit collection.
type PaymentGateway interface {
	CreateCheckoutSession(amountCents int64, currency, reference, customerEmail string) (url, sessionID string, err error)
	RefundBySessionID(sessionID string) error
}

func isUnique(err error) bool {
	return repository.IsUniqueViolation(err, "")
}

func isSlotTaken(err error) bool {
	return repository.IsUniqueViolation(err, repository.LiveSlotIndex)
}
