package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Setting keys the application persists. The values are opaque strings; the
// admin surface owns their interpretation.
const (
	KeyClassificationPrompt = "classificationPrompt"
	KeyLookupPrompt         = "lookupPrompt"
	KeyTemperature          = "temperature"
	KeyAssistantBehavior    = "aiBehavior"
)

// SettingsStore is a string key-value store with get-with-default semantics.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored value for key, or defaultVal when the key has never
// been written.
func (s *SettingsStore) Get(ctx context.Context, key, defaultVal string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM settings WHERE key = ?
	`, key).Scan(&value)

	if err == sql.ErrNoRows {
		return defaultVal, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return value, nil
}

// Set writes value under key, replacing any previous value.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}
