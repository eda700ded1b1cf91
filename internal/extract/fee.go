package extract

import (
	"math/big"

	"hzk-leaderboard/internal/domain"
)

// recognizeFee applies the optional fee recognition window to one record's
// events. The production fee flow splits a single fixed payment across the
// collection accounts, so the window is checked against the combined amount
// the monitored side gained in the transaction, and each paying wallet
// yields one event per transaction regardless of how many collection
// accounts its payment fanned out to. The recognized amount is the
// configured fixed credit, falling back to the observed gain. Without a
// configured window events pass through unchanged.
func (e *Extractor) recognizeFee(events []domain.DepositEvent, gain *big.Int) []domain.DepositEvent {
	if e.minDeposit == nil && e.maxDeposit == nil && e.credit == nil {
		return events
	}
	if len(events) == 0 {
		return nil
	}
	if e.minDeposit != nil && gain.Cmp(e.minDeposit) < 0 {
		return nil
	}
	if e.maxDeposit != nil && gain.Cmp(e.maxDeposit) > 0 {
		return nil
	}

	amount := gain
	if e.credit != nil {
		amount = e.credit
	}

	var out []domain.DepositEvent
	seen := make(map[string]struct{})
	for _, ev := range events {
		if _, dup := seen[ev.SourceOwner]; dup {
			continue
		}
		seen[ev.SourceOwner] = struct{}{}
		ev.Amount = new(big.Int).Set(amount)
		out = append(out, ev)
	}
	return out
}

// sumAmounts totals the monitored-side amounts of instruction-derived
// events, the instruction path's analog of the balance-delta gain.
func sumAmounts(events []domain.DepositEvent) *big.Int {
	total := new(big.Int)
	for _, ev := range events {
		if ev.Amount != nil {
			total.Add(total, ev.Amount)
		}
	}
	return total
}
