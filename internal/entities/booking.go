package entities

import "time"

// BookingRequest carries a reservation attempt into the booking service.
// Dates are "YYYY-MM-DD", slots "HH:MM".
type BookingRequest struct {
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	CustomerNotes string `json:"customer_notes,omitempty"`
	Source        string `json:"source,omitempty"`
}

// BookingResponse is the booking shape returned to customers and admins.
type BookingResponse struct {
	ID            int        `json:"id"`
	Reference     string     `json:"reference"`
	Date          string     `json:"date"`
	TimeSlot      string     `json:"time_slot"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	CustomerNotes string     `json:"customer_notes,omitempty"`
	Status        string     `json:"status"`
	Source        string     `json:"source"`
	PaymentStatus string     `json:"payment_status"`
	CheckoutURL   string     `json:"checkout_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
}

// RescheduleRequest moves an existing booking to a new slot.
type RescheduleRequest struct {
	Email    string `json:"email"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
}

// CancelRequest cancels a booking by reference.
type CancelRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason,omitempty"`
}

// BookingFilter is the explicit filter-criteria structure for admin listing.
// Empty string fields mean "no constraint on this field".
type BookingFilter struct {
	Date   string
	Status string
	Source string
	Limit  int
	Offset int
}

// BookingList is a filtered page of bookings.
type BookingList struct {
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Bookings []BookingResponse `json:"bookings"`
}
