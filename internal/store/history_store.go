package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teuglobal/htspilot/internal/domain"
)

// HistoryStore records completed queries. Records are append-only: written
// once when a response finalizes with a parsed analysis and never updated.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append stores a new history record and returns it with its generated ID.
func (s *HistoryStore) Append(ctx context.Context, query string, userID, userEmail string, viewType domain.QueryKind) (*domain.HistoryItem, error) {
	item := &domain.HistoryItem{
		ID:        uuid.NewString(),
		Query:     query,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		UserEmail: userEmail,
		ViewType:  viewType,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, query, ts, user_id, user_email, view_type) VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.Query, item.Timestamp, item.UserID, item.UserEmail, string(item.ViewType))
	if err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	return item, nil
}

// ListByUser returns the user's records, newest first, capped at limit.
func (s *HistoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, ts, user_id, user_email, view_type FROM history
		WHERE user_id = ? ORDER BY ts DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.HistoryItem
	for rows.Next() {
		item := &domain.HistoryItem{}
		var viewType string
		if err := rows.Scan(&item.ID, &item.Query, &item.Timestamp, &item.UserID, &item.UserEmail, &viewType); err != nil {
			return nil, fmt.Errorf("failed to scan history item: %w", err)
		}
		item.ViewType = domain.QueryKind(viewType)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return items, nil
}

// ClearUser removes all of a user's records.
func (s *HistoryStore) ClearUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM history WHERE user_id = ?
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
