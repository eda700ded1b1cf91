package extract

import (
	"math/big"
	"sort"

	"hzk-leaderboard/internal/domain"
)

// fromBalanceDeltas detects deposits by conservation: a positive balance
// delta on a monitored account for some mint must be matched by negative
// deltas on non-monitored accounts of the same mint within the same record.
// Each matched source contributes one event whose amount is the exact
// magnitude of the source's delta.
func (e *Extractor) fromBalanceDeltas(rec *Record) []domain.DepositEvent {
	var events []domain.DepositEvent

	for _, idx := range sortedIndices(rec.Balances) {
		bal := rec.Balances[idx]
		if !e.mintMatches(bal.Mint) {
			continue
		}

		monitored, feeAccount := e.isMonitored(rec, idx, bal)
		if !monitored {
			continue
		}
		if bal.Delta().Sign() <= 0 {
			continue
		}

		for _, srcIdx := range sortedIndices(rec.Balances) {
			if srcIdx == idx {
				continue
			}
			src := rec.Balances[srcIdx]
			if src.Mint != bal.Mint {
				continue
			}
			srcDelta := src.Delta()
			if srcDelta.Sign() >= 0 {
				continue
			}
			if srcMonitored, _ := e.isMonitored(rec, srcIdx, src); srcMonitored {
				// Shuffles between collection accounts are not deposits.
				continue
			}

			events = append(events, domain.DepositEvent{
				FeeAccount:  feeAccount,
				Mint:        bal.Mint,
				Amount:      new(big.Int).Neg(srcDelta),
				SourceOwner: ownerOrKey(rec, srcIdx, src),
				Signature:   rec.Signature,
			})
		}
	}

	return events
}

// monitoredGain sums the positive balance deltas across monitored accounts,
// the amount the collection side actually received in this record.
func (e *Extractor) monitoredGain(rec *Record) *big.Int {
	gain := new(big.Int)
	for idx, bal := range rec.Balances {
		if !e.mintMatches(bal.Mint) {
			continue
		}
		if monitored, _ := e.isMonitored(rec, idx, bal); !monitored {
			continue
		}
		if d := bal.Delta(); d.Sign() > 0 {
			gain.Add(gain, d)
		}
	}
	return gain
}

// ownerOrKey returns the recorded owner, falling back to the raw account
// address when owner metadata is absent.
func ownerOrKey(rec *Record, idx int, bal *Balance) string {
	if bal.Owner != "" {
		return bal.Owner
	}
	if idx >= 0 && idx < len(rec.AccountKeys) {
		return rec.AccountKeys[idx]
	}
	return ""
}

// sortedIndices returns the balance map keys in ascending order so event
// order is deterministic regardless of map iteration.
func sortedIndices(balances map[int]*Balance) []int {
	indices := make([]int, 0, len(balances))
	for idx := range balances {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}
