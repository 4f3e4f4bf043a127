package db

import (
	"database/sql"
	"time"
)

// Booking status values. A booking is never deleted; cancellation is the
// deletion surrogate so the audit trail survives.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// Booking source values.
const (
	SourceOnline = "online"
	SourcePhone  = "phone"
	SourceWalkIn = "walk_in"
	SourceAdmin  = "admin"
)

// Payment status values.
const (
	PaymentNone     = "none"
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// AvailabilityWindow is one calendar date open for booking. Dates are ISO
// "YYYY-MM-DD" strings and times of day are "HH:MM"; both sort correctly as
// text, which the repositories rely on for range queries.
type AvailabilityWindow struct {
	ID           int
	Date         string
	StartTime    string
	EndTime      string
	SlotDuration int
	IsActive     bool
	Notes        sql.NullString
	CreatedBy    sql.NullInt64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Booking is one reservation of a slot. It is correlated with the
// availability window for its date only by the date value itself.
type Booking struct {
	ID                 int
	Reference          string
	Date               string
	TimeSlot           string
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	CustomerNotes      sql.NullString
	Status             string
	Source             string
	PaymentStatus      string
	StripeSessionID    sql.NullString
	CancellationReason sql.NullString
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        sql.NullTime
	CheckedInAt        sql.NullTime
}

// Admin is a back-office account allowed through the JWT middleware.
type Admin struct {
	ID           int
	Email        string
	PasswordHash string
}

// ValidStatus reports whether s is one of the booking lifecycle statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// ValidSource reports whether s is a known booking source.
func ValidSource(s string) bool {
	switch s {
	case SourceOnline, SourcePhone, SourceWalkIn, SourceAdmin:
		return true
	}
	return false
}
