// Package leaderboard folds deposit events into per-depositor totals and
// produces the ranked rows for the output artifact.
package leaderboard

import (
	"math/big"
	"sort"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/domain"
)

// Totals is one depositor's running accumulation.
type Totals struct {
	Amount *big.Int
	Count  int
}

// Aggregator accumulates deposit events into per-owner totals. It is a
// single-writer fold: events arrive one at a time from the pipeline's
// reduction pass, so no locking is needed. All arithmetic is big.Int;
// base-unit amounts routinely exceed float64's safe integer range.
type Aggregator struct {
	totals map[string]*Totals

	grandTotal *big.Int
	deposits   int
	logger     *zap.Logger
}

// AggregatorOptions contains configuration for creating an Aggregator.
type AggregatorOptions struct {
	Logger *zap.Logger
}

// NewAggregator creates an empty accumulator.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		totals:     make(map[string]*Totals),
		grandTotal: new(big.Int),
		logger:     logger,
	}
}

// Add folds one deposit event into the accumulator. Events with missing or
// negative amounts are dropped. Returns whether the event was counted.
func (a *Aggregator) Add(event domain.DepositEvent) bool {
	if event.Amount == nil || event.Amount.Sign() < 0 {
		return false
	}

	owner := event.SourceOwner
	if owner == "" {
		owner = domain.UnknownOwner
	}

	t, ok := a.totals[owner]
	if !ok {
		t = &Totals{Amount: new(big.Int)}
		a.totals[owner] = t
	}
	t.Amount.Add(t.Amount, event.Amount)
	t.Count++

	a.grandTotal.Add(a.grandTotal, event.Amount)
	a.deposits++
	return true
}

// Rows returns the ranked leaderboard: totals descending, owner ascending on
// equal totals so the ordering is deterministic.
func (a *Aggregator) Rows(decimals int) []domain.LeaderboardRow {
	rows := make([]domain.LeaderboardRow, 0, len(a.totals))
	for owner, t := range a.totals {
		rows = append(rows, domain.LeaderboardRow{
			Owner:          owner,
			TotalBaseUnits: new(big.Int).Set(t.Amount),
			DisplayAmount:  FormatBaseUnits(t.Amount, decimals),
			DepositCount:   t.Count,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].TotalBaseUnits.Cmp(rows[j].TotalBaseUnits); c != 0 {
			return c > 0
		}
		return rows[i].Owner < rows[j].Owner
	})
	return rows
}

// TotalDeposited returns the sum of all counted amounts.
func (a *Aggregator) TotalDeposited() *big.Int {
	return new(big.Int).Set(a.grandTotal)
}

// DepositCount returns the number of counted events.
func (a *Aggregator) DepositCount() int {
	return a.deposits
}

// Depositors returns the number of distinct owners seen.
func (a *Aggregator) Depositors() int {
	return len(a.totals)
}
