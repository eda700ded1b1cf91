package postgres

import (
	"context"
	"fmt"
	"math/big"

	"hzk-leaderboard/internal/domain"
	"hzk-leaderboard/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a run snapshot with all its rows atomically. Returns
// ErrDuplicateKey if run_id exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.RunSnapshot) error {
	if snap == nil || snap.RunID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	headerQuery := `
		INSERT INTO leaderboard_snapshots (
			run_id, generated_at, cluster, mint, unit_decimals,
			total_deposited, total_deposits, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, headerQuery,
		snap.RunID,
		snap.GeneratedAt,
		snap.Cluster,
		snap.Mint,
		snap.UnitDecimals,
		snap.TotalDeposited,
		snap.TotalDeposits,
		snap.Error,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert snapshot header: %w", err)
	}

	rowQuery := `
		INSERT INTO leaderboard_rows (
			run_id, rank, owner, total_base_units, display_amount, deposit_count
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for rank, row := range snap.Rows {
		total := "0"
		if row.TotalBaseUnits != nil {
			total = row.TotalBaseUnits.String()
		}
		_, err := tx.Exec(ctx, rowQuery,
			snap.RunID,
			rank+1,
			row.Owner,
			total,
			row.DisplayAmount,
			row.DepositCount,
		)
		if err != nil {
			return fmt.Errorf("insert leaderboard row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves a snapshot with its rows in rank order. Returns
// ErrNotFound if not exists.
func (s *SnapshotStore) GetByRunID(ctx context.Context, runID string) (*domain.RunSnapshot, error) {
	query := `
		SELECT run_id, generated_at, cluster, mint, unit_decimals,
		       total_deposited, total_deposits, error, created_at
		FROM leaderboard_snapshots
		WHERE run_id = $1
	`
	return s.getSnapshot(ctx, query, runID)
}

// Latest retrieves the most recently generated snapshot. Returns ErrNotFound
// if the store is empty.
func (s *SnapshotStore) Latest(ctx context.Context) (*domain.RunSnapshot, error) {
	query := `
		SELECT run_id, generated_at, cluster, mint, unit_decimals,
		       total_deposited, total_deposits, error, created_at
		FROM leaderboard_snapshots
		ORDER BY generated_at DESC, run_id DESC
		LIMIT 1
	`
	return s.getSnapshot(ctx, query)
}

func (s *SnapshotStore) getSnapshot(ctx context.Context, query string, args ...interface{}) (*domain.RunSnapshot, error) {
	var snap domain.RunSnapshot

	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&snap.RunID,
		&snap.GeneratedAt,
		&snap.Cluster,
		&snap.Mint,
		&snap.UnitDecimals,
		&snap.TotalDeposited,
		&snap.TotalDeposits,
		&snap.Error,
		&snap.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	rows, err := s.loadRows(ctx, snap.RunID)
	if err != nil {
		return nil, err
	}
	snap.Rows = rows

	return &snap, nil
}

func (s *SnapshotStore) loadRows(ctx context.Context, runID string) ([]domain.LeaderboardRow, error) {
	query := `
		SELECT owner, total_base_units, display_amount, deposit_count
		FROM leaderboard_rows
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard rows: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardRow
	for rows.Next() {
		var (
			row   domain.LeaderboardRow
			total string
		)
		if err := rows.Scan(&row.Owner, &total, &row.DisplayAmount, &row.DepositCount); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		n, ok := new(big.Int).SetString(total, 10)
		if !ok {
			return nil, fmt.Errorf("parse total_base_units %q for run %s", total, runID)
		}
		row.TotalBaseUnits = n
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}

	return out, nil
}
