package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/setlist/internal/shared"
)

// AccountRepository stores password hashes for the development sheet server.
type AccountRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

// Create stores a new account. An existing username yields [shared.ErrAccountExists].
func (r *AccountRepository) Create(username, passwordHash string) error {
	now := r.now()
	_, err := r.db.Exec(
		`INSERT INTO sheet_accounts (username, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		username, passwordHash, now, now,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", shared.ErrAccountExists, username)
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// PasswordHash returns the stored hash for username.
func (r *AccountRepository) PasswordHash(username string) (string, error) {
	var hash string
	err := r.db.QueryRow(`SELECT password_hash FROM sheet_accounts WHERE username = ?`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrAccountNotFound, username)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query account: %w", err)
	}
	return hash, nil
}

// SetPasswordHash replaces the hash of an existing account.
func (r *AccountRepository) SetPasswordHash(username, passwordHash string) error {
	result, err := r.db.Exec(
		`UPDATE sheet_accounts SET password_hash = ?, updated_at = ? WHERE username = ?`,
		passwordHash, r.now(), username,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAccountNotFound, username)
	}
	return nil
}
