package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// SheetRow is one stored spreadsheet row. Notes are kept exactly as written, text marker included.
type SheetRow struct {
	models.Booking
	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SheetRepository stores the rows served by the development sheet server.
type SheetRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSheetRepository creates a new [SheetRepository] with the given database connection.
// The database must have the server schema applied.
func NewSheetRepository(db *sql.DB) *SheetRepository {
	return &SheetRepository{db: db, now: time.Now}
}

const sheetColumns = bookingColumns + ", archived_at, created_at, updated_at"

func scanSheetRow(s scanner) (SheetRow, error) {
	var (
		row        SheetRow
		songs      string
		archivedAt sql.NullTime
	)
	err := s.Scan(
		&row.ID, &row.Date, &row.Location, &row.PhoneNumber, &row.BrideZaffa, &row.GroomZaffa, &songs, &row.Notes, &row.Username,
		&archivedAt, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		return SheetRow{}, err
	}

	row.Songs = models.DecodeSongs(songs)
	if archivedAt.Valid {
		row.ArchivedAt = &archivedAt.Time
	}
	return row, nil
}

// All returns every row in insertion order, archived rows included.
func (r *SheetRepository) All() ([]SheetRow, error) {
	rows, err := r.db.Query(`SELECT ` + sheetColumns + ` FROM sheet_rows ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet rows: %w", err)
	}
	defer rows.Close()

	result := []SheetRow{}
	for rows.Next() {
		row, err := scanSheetRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}

// Get returns the row with the given id.
func (r *SheetRepository) Get(id string) (*SheetRow, error) {
	row, err := scanSheetRow(r.db.QueryRow(`SELECT `+sheetColumns+` FROM sheet_rows WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet row: %w", err)
	}
	return &row, nil
}

// Insert appends a row. An empty id is replaced with a generated one, which is returned.
func (r *SheetRepository) Insert(b models.Booking) (string, error) {
	if b.ID == "" {
		b.ID = shared.GenerateID()
	}

	now := r.now()
	query := `INSERT INTO sheet_rows (` + bookingColumns + `, created_at, updated_at) VALUES (` + placeholders(11) + `)`
	args := append(bookingArgs(b), now, now)

	if _, err := r.db.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", shared.ErrDuplicateID, b.ID)
		}
		return "", fmt.Errorf("failed to insert sheet row: %w", err)
	}
	return b.ID, nil
}

// Update replaces every field of the row with b's values.
func (r *SheetRepository) Update(b models.Booking) error {
	query := `
		UPDATE sheet_rows
		SET date = ?, location = ?, phone_number = ?, bride_zaffa = ?, groom_zaffa = ?, songs = ?, notes = ?, username = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		b.Date, b.Location, b.PhoneNumber, b.BrideZaffa, b.GroomZaffa, models.EncodeSongs(b.Songs), b.Notes, b.Username, r.now(), b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sheet row: %w", err)
	}
	return expectAffected(result, b.ID)
}

// Delete removes the row with the given id.
func (r *SheetRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sheet_rows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sheet row: %w", err)
	}
	return expectAffected(result, id)
}

// MarkArchived stamps archived_at on the given rows that are not archived yet and returns how many changed.
func (r *SheetRepository) MarkArchived(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := []any{r.now()}
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.db.Exec(
		`UPDATE sheet_rows SET archived_at = ? WHERE archived_at IS NULL AND id IN (`+placeholders(len(ids))+`)`, args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to archive sheet rows: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(n), nil
}

func expectAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrBookingNotFound, id)
	}
	return nil
}
