package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
)

// BookingCache persists the last reconciled list of current bookings per identity scope.
//
// Saving replaces the whole list for a scope and preserves its order.
type BookingCache struct {
	db *sql.DB
}

// NewBookingCache creates a new [BookingCache] with the given database connection
func NewBookingCache(db *sql.DB) *BookingCache {
	return &BookingCache{db: db}
}

// Load returns the cached list for scope in saved order. An unknown scope yields an empty list.
func (c *BookingCache) Load(scope string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM cached_bookings WHERE scope = ? ORDER BY position ASC`

	rows, err := c.db.Query(query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached bookings: %w", err)
	}
	return collectBookings(rows)
}

// Save replaces the cached list for scope.
//
// Duplicate ids keep their first occurrence.
func (c *BookingCache) Save(scope string, bookings []models.Booking) error {
	return withTx(c.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM cached_bookings WHERE scope = ?`, scope); err != nil {
			return fmt.Errorf("failed to clear cached bookings: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO cached_bookings (scope, position, ` + bookingColumns + `)
			VALUES (?, ?, ` + placeholders(9) + `)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare cache insert: %w", err)
		}
		defer stmt.Close()

		for i, b := range bookings {
			args := append([]any{scope, i}, bookingArgs(b)...)
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("failed to cache booking %s: %w", b.ID, err)
			}
		}
		return nil
	})
}

// Clear removes the cached list for scope.
func (c *BookingCache) Clear(scope string) error {
	if _, err := c.db.Exec(`DELETE FROM cached_bookings WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("failed to clear cached bookings: %w", err)
	}
	return nil
}

// ClearAll removes every cached list.
func (c *BookingCache) ClearAll() error {
	if _, err := c.db.Exec(`DELETE FROM cached_bookings`); err != nil {
		return fmt.Errorf("failed to clear cached bookings: %w", err)
	}
	return nil
}

// Scopes lists the scopes that currently hold a cached list.
func (c *BookingCache) Scopes() ([]string, error) {
	rows, err := c.db.Query(`SELECT DISTINCT scope FROM cached_bookings ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache scopes: %w", err)
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fmt.Errorf("failed to scan scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}
