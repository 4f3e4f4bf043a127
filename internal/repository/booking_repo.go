package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"studiobook/internal/db"
	"studiobook/internal/entities"
)

// Names of the unique constraints guarding bookings. The partial index on
// (date, time_slot) is the authoritative backstop against double-booking.
const (
	LiveSlotIndex       = "bookings_live_slot_idx"
	ReferenceConstraint = "bookings_reference_key"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(conn *sql.DB) *BookingRepository {
	return &BookingRepository{DB: conn}
}

const bookingColumns = `id, reference, date, time_slot, customer_name, customer_email, customer_phone,
	customer_notes, status, source, payment_status, stripe_session_id, cancellation_reason,
	created_at, updated_at, cancelled_at, checked_in_at`

func scanBooking(row interface{ Scan(...interface{}) error }, b *db.Booking) error {
	return row.Scan(
		&b.ID, &b.Reference, &b.Date, &b.TimeSlot, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.CustomerNotes, &b.Status, &b.Source, &b.PaymentStatus, &b.StripeSessionID, &b.CancellationReason,
		&b.CreatedAt, &b.UpdatedAt, &b.CancelledAt, &b.CheckedInAt,
	)
}

// Create inserts a booking. A unique violation on the live-slot index means
// the slot was taken by a concurrent insert; the service maps it to a
// conflict error.
func (r *BookingRepository) Create(b *db.Booking) error {
	query := `
		INSERT INTO bookings
			(reference, date, time_slot, customer_name, customer_email, customer_phone,
			 customer_notes, status, source, payment_status, stripe_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	return r.DB.QueryRow(query,
		b.Reference, b.Date, b.TimeSlot, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.CustomerNotes, b.Status, b.Source, b.PaymentStatus, b.StripeSessionID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BookingRepository) getOne(where string, args ...interface{}) (*db.Booking, error) {
	var b db.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + where
	err := scanBooking(r.DB.QueryRow(query, args...), &b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return &b, nil
}

// GetByID returns the booking with the given id, or (nil, nil) when none.
func (r *BookingRepository) GetByID(id int) (*db.Booking, error) {
	return r.getOne(`id = $1`, id)
}

// GetByReference returns the booking with the given reference.
func (r *BookingRepository) GetByReference(reference string) (*db.Booking, error) {
	return r.getOne(`reference = $1`, reference)
}

// GetByStripeSessionID returns the booking tied to a checkout session.
func (r *BookingRepository) GetByStripeSessionID(sessionID string) (*db.Booking, error) {
	return r.getOne(`stripe_session_id = $1`, sessionID)
}

// FindLiveBySlot returns a non-cancelled booking occupying (date, slot),
// ignoring excludeID so a reschedule never conflicts with itself. Pass 0
// when no booking should be excluded.
func (r *BookingRepository) FindLiveBySlot(date, slot string, excludeID int) (*db.Booking, error) {
	return r.getOne(`date = $1 AND time_slot = $2 AND status <> $3 AND id <> $4`,
		date, slot, db.StatusCancelled, excludeID)
}

// LiveSlotsByDate returns the occupied slot times of a date, ascending.
func (r *BookingRepository) LiveSlotsByDate(date string) ([]string, error) {
	rows, err := r.DB.Query(
		`SELECT time_slot FROM bookings WHERE date = $1 AND status <> $2 ORDER BY time_slot`,
		date, db.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("error querying booked slots for %s: %w", date, err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// LiveSlotsByRange returns, per date in [from, to], the occupied slot times.
func (r *BookingRepository) LiveSlotsByRange(from, to string) (map[string][]string, error) {
	rows, err := r.DB.Query(
		`SELECT date, time_slot FROM bookings
		 WHERE date >= $1 AND date <= $2 AND status <> $3
		 ORDER BY date, time_slot`,
		from, to, db.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("error querying booked slots in range: %w", err)
	}
	defer rows.Close()

	booked := make(map[string][]string)
	for rows.Next() {
		var date, slot string
		if err := rows.Scan(&date, &slot); err != nil {
			return nil, err
		}
		booked[date] = append(booked[date], slot)
	}
	return booked, rows.Err()
}

// CountLiveByDate counts non-cancelled bookings on a date. The availability
// store uses it to guard grid edits and deletions.
func (r *BookingRepository) CountLiveByDate(date string) (int, error) {
	var n int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM bookings WHERE date = $1 AND status <> $2`,
		date, db.StatusCancelled).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting live bookings for %s: %w", date, err)
	}
	return n, nil
}

// List returns a page of bookings matching the filter plus the total count.
func (r *BookingRepository) List(filter entities.BookingFilter) ([]db.Booking, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.Date != "" {
		where += ` AND date = $` + strconv.Itoa(idx)
		args = append(args, filter.Date)
		idx++
	}
	if filter.Status != "" {
		where += ` AND status = $` + strconv.Itoa(idx)
		args = append(args, filter.Status)
		idx++
	}
	if filter.Source != "" {
		where += ` AND source = $` + strconv.Itoa(idx)
		args = append(args, filter.Source)
		idx++
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting bookings: %w", err)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY date DESC, time_slot DESC`
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(idx)
		args = append(args, filter.Limit)
		idx++
	}
	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(idx)
		args = append(args, filter.Offset)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, 0, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

// UpdateSlot moves a booking to a new (date, time_slot), keeping everything
// else, the reference included. The live-slot index still applies.
func (r *BookingRepository) UpdateSlot(id int, date, slot string) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET date = $2, time_slot = $3, updated_at = NOW() WHERE id = $1`,
		id, date, slot)
	return err
}

// Cancel marks a booking cancelled and stamps cancelled_at.
func (r *BookingRepository) Cancel(id int, reason string) error {
	var reasonVal sql.NullString
	if reason != "" {
		reasonVal = sql.NullString{String: reason, Valid: true}
	}
	_, err := r.DB.Exec(
		`UPDATE bookings
		 SET status = $2, cancellation_reason = $3, cancelled_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id, db.StatusCancelled, reasonVal)
	return err
}

// SetStatus applies an admin status transition. Moving into cancelled also
// stamps cancelled_at so the audit trail stays coherent.
func (r *BookingRepository) SetStatus(id int, status string) error {
	if status == db.StatusCancelled {
		return r.Cancel(id, "")
	}
	_, err := r.DB.Exec(
		`UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	return err
}

// SetCheckedIn stamps checked_in_at.
func (r *BookingRepository) SetCheckedIn(id int) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET checked_in_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// SetPaymentStatus updates only the payment state of a booking.
func (r *BookingRepository) SetPaymentStatus(id int, paymentStatus string) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
		id, paymentStatus)
	return err
}

// UpdateStatusAndPaymentBySession is used by the Stripe webhook to confirm a
// pending booking once its checkout session completes.
func (r *BookingRepository) UpdateStatusAndPaymentBySession(sessionID, status, paymentStatus string) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET status = $2, payment_status = $3, updated_at = NOW()
		 WHERE stripe_session_id = $1`,
		sessionID, status, paymentStatus)
	return err
}

// NextReferenceSequence atomically increments and returns the per-minute
// booking-reference counter. A single upsert keeps concurrent creations from
// ever observing the same value.
func (r *BookingRepository) NextReferenceSequence(minuteKey string) (int, error) {
	var counter int
	err := r.DB.QueryRow(
		`INSERT INTO reference_sequences (minute_key, counter)
		 VALUES ($1, 1)
		 ON CONFLICT (minute_key) DO UPDATE SET counter = reference_sequences.counter + 1
		 RETURNING counter`,
		minuteKey).Scan(&counter)
	if err != nil {
		return 0, fmt.Errorf("error advancing reference sequence for %s: %w", minuteKey, err)
	}
	return counter, nil
}
