package repository

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/lib/pq"

	"studiobook/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(conn *sql.DB) *JobRepository {
	return &JobRepository{DB: conn}
}

// GetCheckedInPastSlotIDs finds confirmed, checked-in bookings whose slot
// time has passed. The date and time_slot text columns cast cleanly because
// they only ever hold ISO dates and HH:MM times.
func (r *JobRepository) GetCheckedInPastSlotIDs() ([]int, error) {
	query := `
		SELECT id FROM bookings
		WHERE status = $1
		  AND checked_in_at IS NOT NULL
		  AND (date::date + time_slot::time) < NOW()`
	return r.queryIDs(query, db.StatusConfirmed)
}

// GetNoShowIDs finds confirmed bookings that were never checked in and whose
// slot time passed more than the grace interval ago.
func (r *JobRepository) GetNoShowIDs(graceMinutes int) ([]int, error) {
	query := `
		SELECT id FROM bookings
		WHERE status = $1
		  AND checked_in_at IS NULL
		  AND (date::date + time_slot::time) < NOW() - ($2 * interval '1 minute')`
	return r.queryIDs(query, db.StatusConfirmed, graceMinutes)
}

func (r *JobRepository) queryIDs(query string, args ...interface{}) ([]int, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying booking ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateBookingStatuses moves a batch of bookings to newStatus.
func (r *JobRepository) UpdateBookingStatuses(ids []int, newStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	result, err := r.DB.Exec(
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
		newStatus, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error updating booking statuses: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
	} else {
		log.Printf("Updated status for %d bookings to '%s'", rowsAffected, newStatus)
	}
	return nil
}

// DeleteStaleReferenceSequences drops counter rows older than the given
// minute key. The keys are sortable timestamps, so text comparison is enough.
func (r *JobRepository) DeleteStaleReferenceSequences(beforeMinuteKey string) (int64, error) {
	result, err := r.DB.Exec(`DELETE FROM reference_sequences WHERE minute_key < $1`, beforeMinuteKey)
	if err != nil {
		return 0, fmt.Errorf("error pruning reference sequences: %w", err)
	}
	return result.RowsAffected()
}
