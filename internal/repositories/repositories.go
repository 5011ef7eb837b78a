// package repositories provides SQLite persistence for the booking client and the development sheet server.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
)

// bookingColumns is the column list shared by every booking-shaped table, in scan order.
const bookingColumns = "id, date, location, phone_number, bride_zaffa, groom_zaffa, songs, notes, username"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanBooking reads one row selected with [bookingColumns].
func scanBooking(s scanner) (models.Booking, error) {
	var (
		b     models.Booking
		songs string
	)
	if err := s.Scan(&b.ID, &b.Date, &b.Location, &b.PhoneNumber, &b.BrideZaffa, &b.GroomZaffa, &songs, &b.Notes, &b.Username); err != nil {
		return models.Booking{}, err
	}
	b.Songs = models.DecodeSongs(songs)
	return b, nil
}

// collectBookings drains rows into a slice and closes them.
func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return bookings, nil
}

// bookingArgs returns the values for an INSERT over [bookingColumns].
func bookingArgs(b models.Booking) []any {
	return []any{b.ID, b.Date, b.Location, b.PhoneNumber, b.BrideZaffa, b.GroomZaffa, models.EncodeSongs(b.Songs), b.Notes, b.Username}
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// withTx runs fn in a transaction, committing on success.
func withTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
