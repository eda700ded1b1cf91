package domain

import "time"

// RunSnapshot is one pipeline run's persisted result: the artifact header
// plus every ranked row. Snapshots are append-only; a rerun gets a new RunID.
type RunSnapshot struct {
	RunID          string
	GeneratedAt    time.Time
	Cluster        string
	Mint           string
	UnitDecimals   int
	TotalDeposited string
	TotalDeposits  int
	Error          string
	Rows           []LeaderboardRow
	CreatedAt      time.Time
}
