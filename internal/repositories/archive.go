package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
)

// ArchiveRepository persists bookings whose event day has passed.
//
// The archive is shared by every identity on the device and keyed by booking id, so an id is archived at most once.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates a new [ArchiveRepository] with the given database connection
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// List returns every archived booking in the order it was archived.
func (r *ArchiveRepository) List() ([]models.Booking, error) {
	rows, err := r.db.Query(`SELECT ` + bookingColumns + ` FROM archived_bookings ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	return collectBookings(rows)
}

// ListByOwner returns the archived bookings belonging to username.
func (r *ArchiveRepository) ListByOwner(username string) ([]models.Booking, error) {
	rows, err := r.db.Query(`SELECT `+bookingColumns+` FROM archived_bookings WHERE username = ? ORDER BY seq ASC`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	return collectBookings(rows)
}

// IDs returns the set of archived booking ids.
func (r *ArchiveRepository) IDs() (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT id FROM archived_bookings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan archive id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// Append archives bookings that are not archived yet and returns how many were added.
func (r *ArchiveRepository) Append(bookings []models.Booking) (int, error) {
	added := 0
	err := withTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO archived_bookings (` + bookingColumns + `) VALUES (` + placeholders(9) + `)`)
		if err != nil {
			return fmt.Errorf("failed to prepare archive insert: %w", err)
		}
		defer stmt.Close()

		for _, b := range bookings {
			result, err := stmt.Exec(bookingArgs(b)...)
			if err != nil {
				return fmt.Errorf("failed to archive booking %s: %w", b.ID, err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Remove deletes the given ids from the archive and returns how many were removed.
func (r *ArchiveRepository) Remove(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	result, err := r.db.Exec(`DELETE FROM archived_bookings WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to remove archived bookings: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(n), nil
}

// Prune removes every archived booking whose id is not in keep and returns how many were removed.
func (r *ArchiveRepository) Prune(keep map[string]bool) (int, error) {
	ids, err := r.IDs()
	if err != nil {
		return 0, err
	}

	var stale []string
	for id := range ids {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	return r.Remove(stale)
}

// Clear empties the archive.
func (r *ArchiveRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM archived_bookings`); err != nil {
		return fmt.Errorf("failed to clear archive: %w", err)
	}
	return nil
}
