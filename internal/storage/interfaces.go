package storage

import (
	"context"

	"hzk-leaderboard/internal/domain"
)

// SnapshotStore provides access to persisted leaderboard snapshots.
type SnapshotStore interface {
	// Insert adds a run snapshot with all its rows. Returns ErrDuplicateKey
	// if run_id exists.
	Insert(ctx context.Context, s *domain.RunSnapshot) error

	// GetByRunID retrieves a snapshot with its rows in rank order.
	// Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.RunSnapshot, error)

	// Latest retrieves the most recently generated snapshot.
	// Returns ErrNotFound if the store is empty.
	Latest(ctx context.Context) (*domain.RunSnapshot, error)
}
