package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Preference keys used by the client.
const (
	PrefCurrentUser      = "current_user"
	PrefRole             = "role"
	PrefWelcomeCreatedAt = "welcome.created_at"
	PrefWelcomeLink      = "welcome.link"
	PrefWelcomeCreated   = "welcome.created"
	PrefWelcomeShown     = "welcome.shown"
	PrefLoginFailures    = "login.failures"
)

// PreferenceRepository stores string markers by key.
type PreferenceRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPreferenceRepository creates a new [PreferenceRepository] with the given database connection
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db, now: time.Now}
}

// Get returns the value stored under key. The second return value is false when the key is absent.
func (r *PreferenceRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (r *PreferenceRepository) Set(key, value string) error {
	query := `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, r.now()); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (r *PreferenceRepository) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := r.db.Exec(`DELETE FROM preferences WHERE key IN (`+placeholders(len(keys))+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (r *PreferenceRepository) DeletePrefix(prefix string) error {
	if _, err := r.db.Exec(`DELETE FROM preferences WHERE substr(key, 1, ?) = ?`, len(prefix), prefix); err != nil {
		return fmt.Errorf("failed to delete preferences with prefix %s: %w", prefix, err)
	}
	return nil
}
