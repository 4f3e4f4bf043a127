package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"studiobook/internal/db"
)

// uniqueViolation is the Postgres error code for a unique-constraint breach.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-index breach,
// optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || string(pqErr.Constraint) == constraint
}

type AvailabilityRepository struct {
	DB *sql.DB
}

func NewAvailabilityRepository(conn *sql.DB) *AvailabilityRepository {
	return &AvailabilityRepository{DB: conn}
}

const windowColumns = `id, date, start_time, end_time, slot_duration, is_active, notes, created_by, created_at, updated_at`

func scanWindow(row interface{ Scan(...interface{}) error }, w *db.AvailabilityWindow) error {
	return row.Scan(
		&w.ID, &w.Date, &w.StartTime, &w.EndTime, &w.SlotDuration,
		&w.IsActive, &w.Notes, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt,
	)
}

// Create inserts a new window. The unique index on date surfaces duplicates
// as a unique violation, which the service maps to a conflict.
func (r *AvailabilityRepository) Create(w *db.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows
			(date, start_time, end_time, slot_duration, is_active, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.DB.QueryRow(query,
		w.Date, w.StartTime, w.EndTime, w.SlotDuration, w.IsActive, w.Notes, w.CreatedBy,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

// GetByDate returns the window for date, or (nil, nil) when none exists.
func (r *AvailabilityRepository) GetByDate(date string) (*db.AvailabilityWindow, error) {
	var w db.AvailabilityWindow
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE date = $1`
	err := scanWindow(r.DB.QueryRow(query, date), &w)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying availability window for %s: %w", date, err)
	}
	return &w, nil
}

// ListRange returns all windows with from <= date <= to, ascending by date.
func (r *AvailabilityRepository) ListRange(from, to string) ([]db.AvailabilityWindow, error) {
	query := `SELECT ` + windowColumns + `
		FROM availability_windows
		WHERE date >= $1 AND date <= $2
		ORDER BY date`
	rows, err := r.DB.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying availability windows: %w", err)
	}
	defer rows.Close()

	var windows []db.AvailabilityWindow
	for rows.Next() {
		var w db.AvailabilityWindow
		if err := scanWindow(rows, &w); err != nil {
			return nil, fmt.Errorf("error scanning availability window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Update rewrites the mutable fields of the window identified by w.Date.
func (r *AvailabilityRepository) Update(w *db.AvailabilityWindow) error {
	query := `
		UPDATE availability_windows
		SET start_time = $2, end_time = $3, slot_duration = $4, is_active = $5, notes = $6, updated_at = NOW()
		WHERE date = $1
		RETURNING updated_at`
	return r.DB.QueryRow(query,
		w.Date, w.StartTime, w.EndTime, w.SlotDuration, w.IsActive, w.Notes,
	).Scan(&w.UpdatedAt)
}

// Delete removes the window for date and reports whether a row existed.
func (r *AvailabilityRepository) Delete(date string) (bool, error) {
	result, err := r.DB.Exec(`DELETE FROM availability_windows WHERE date = $1`, date)
	if err != nil {
		return false, fmt.Errorf("error deleting availability window: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExistingDates returns which of the given dates already have a window.
// Used by bulk creation to tell pre-existing dates apart from in-batch
// duplicates.
func (r *AvailabilityRepository) ExistingDates(dates []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(dates) == 0 {
		return existing, nil
	}
	rows, err := r.DB.Query(`SELECT date FROM availability_windows WHERE date = ANY($1)`, pq.Array(dates))
	if err != nil {
		return nil, fmt.Errorf("error querying existing window dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		existing[d] = true
	}
	return existing, rows.Err()
}
