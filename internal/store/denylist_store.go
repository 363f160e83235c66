package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/teuglobal/htspilot/internal/domain"
)

// DenylistStore holds HTS codes the assistant must never recommend. A fixed
// base list is layered under the user-added codes persisted here, so the
// base codes survive even a wiped database and can never be removed.
type DenylistStore struct {
	db   *sql.DB
	base []string
}

func NewDenylistStore(db *sql.DB, baseCodes []string) *DenylistStore {
	return &DenylistStore{db: db, base: baseCodes}
}

// Codes returns the full denylist: base codes first, then user-added codes
// in insertion order. The next prompt build always sees the latest snapshot.
func (s *DenylistStore) Codes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code FROM expired_codes ORDER BY added_at ASC, code ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired codes: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0, len(s.base))
	codes = append(codes, s.base...)
	seen := make(map[string]bool, len(s.base))
	for _, c := range s.base {
		seen[c] = true
	}

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan expired code: %w", err)
		}
		if !seen[code] {
			codes = append(codes, code)
			seen[code] = true
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired codes: %w", err)
	}

	return codes, nil
}

// Add records code as expired. Returns true when the code was newly added,
// false when it was already present (in the base list or stored). Only
// strings shaped like HTS codes are accepted: everything stored here is
// later joined verbatim into the prompt's restriction clause.
func (s *DenylistStore) Add(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, fmt.Errorf("empty code")
	}
	if !domain.ValidHtsCode(code) {
		return false, fmt.Errorf("not a valid HTS code: %q", code)
	}
	for _, b := range s.base {
		if b == code {
			return false, nil
		}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO expired_codes (code) VALUES (?)
		ON CONFLICT(code) DO NOTHING
	`, code)
	if err != nil {
		return false, fmt.Errorf("failed to add expired code: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Remove deletes a user-added code. Base codes cannot be removed.
func (s *DenylistStore) Remove(ctx context.Context, code string) error {
	for _, b := range s.base {
		if b == code {
			return fmt.Errorf("cannot remove base expired code %s", code)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM expired_codes WHERE code = ?
	`, code)
	if err != nil {
		return fmt.Errorf("failed to remove expired code: %w", err)
	}
	return nil
}
