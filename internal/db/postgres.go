package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect opens and pings the Postgres database.
func Connect(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Migrate creates the schema. The partial unique index on bookings is the
// authoritative guard against double-booking: it covers (date, time_slot)
// only among non-cancelled rows, so a cancelled booking frees its slot while
// staying on record.
func Migrate(conn *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS availability_windows (
			id SERIAL PRIMARY KEY,
			date TEXT NOT NULL UNIQUE,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			slot_duration INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			notes TEXT,
			created_by INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id SERIAL PRIMARY KEY,
			reference TEXT NOT NULL UNIQUE,
			date TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			customer_phone TEXT NOT NULL DEFAULT '',
			customer_notes TEXT,
			status TEXT NOT NULL,
			source TEXT NOT NULL,
			payment_status TEXT NOT NULL DEFAULT 'none',
			stripe_session_id TEXT,
			cancellation_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			cancelled_at TIMESTAMPTZ,
			checked_in_at TIMESTAMPTZ
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS bookings_live_slot_idx
			ON bookings (date, time_slot)
			WHERE status <> 'cancelled'`,

		`CREATE INDEX IF NOT EXISTS bookings_date_idx ON bookings (date)`,

		`CREATE TABLE IF NOT EXISTS reference_sequences (
			minute_key TEXT PRIMARY KEY,
			counter INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS admins (
			id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
