// Package snapshot builds and writes the leaderboard output artifact.
package snapshot

import (
	"hzk-leaderboard/internal/domain"
)

// Snapshot is the output artifact schema. Every run emits one, including
// failed runs, so readers always find a parseable file.
type Snapshot struct {
	GeneratedAt    string `json:"generatedAt"`
	Cluster        string `json:"cluster"`
	Mint           string `json:"mint"`
	UnitDecimals   int    `json:"unitDecimals"`
	TotalDeposited string `json:"totalDeposited"`
	TotalDeposits  int    `json:"totalDeposits"`
	Leaderboard    Board  `json:"leaderboard"`
	Error          string `json:"error,omitempty"`
}

// Board splits the ranked rows into the shapes the dashboard reads: the
// leader, the next two, and the full list.
type Board struct {
	Top  *domain.LeaderboardRow  `json:"top"`
	Rows []domain.LeaderboardRow `json:"rows"`
	All  []domain.LeaderboardRow `json:"all"`
}

// Build assembles a snapshot from ranked rows. Rows must already be sorted.
func Build(cluster, mint string, decimals int, rows []domain.LeaderboardRow, totalDeposited string, totalDeposits int) *Snapshot {
	all := rows
	if all == nil {
		all = []domain.LeaderboardRow{}
	}

	board := Board{
		Rows: []domain.LeaderboardRow{},
		All:  all,
	}
	if len(all) > 0 {
		board.Top = &all[0]
	}
	if len(all) > 1 {
		end := 3
		if end > len(all) {
			end = len(all)
		}
		board.Rows = all[1:end]
	}

	return &Snapshot{
		Cluster:        cluster,
		Mint:           mint,
		UnitDecimals:   decimals,
		TotalDeposited: totalDeposited,
		TotalDeposits:  totalDeposits,
		Leaderboard:    board,
	}
}

// BuildError assembles the degraded variant written when the run fails: same
// schema, empty lists, error message populated.
func BuildError(cluster, mint string, decimals int, errMsg string) *Snapshot {
	s := Build(cluster, mint, decimals, nil, "0", 0)
	s.Error = errMsg
	return s
}
