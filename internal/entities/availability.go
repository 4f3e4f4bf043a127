package entities

import "time"

// WindowRequest creates one availability window.
type WindowRequest struct {
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	SlotDuration int    `json:"slot_duration"`
	IsActive     *bool  `json:"is_active,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedBy    int    `json:"-"`
}

// WindowPatch updates an existing window. Nil fields are left untouched;
// touching any of the grid fields is refused while live bookings exist.
type WindowPatch struct {
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	SlotDuration *int    `json:"slot_duration,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// WindowResponse is the availability window shape returned by the API.
type WindowResponse struct {
	ID           int       `json:"id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	SlotDuration int       `json:"slot_duration"`
	IsActive     bool      `json:"is_active"`
	Notes        string    `json:"notes,omitempty"`
	TotalSlots   int       `json:"total_slots"`
	CreatedAt    time.Time `json:"created_at"`
}

// BulkWindowItem records the outcome of one entry of a bulk creation.
type BulkWindowItem struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// BulkWindowsResult aggregates per-item outcomes of a bulk creation. One
// failing item never aborts the rest of the batch.
type BulkWindowsResult struct {
	Created []string         `json:"created"`
	Skipped []BulkWindowItem `json:"skipped"`
	Errors  []BulkWindowItem `json:"errors"`
}
