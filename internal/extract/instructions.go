package extract

import (
	"context"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/domain"
)

// splTokenProgram is the parsed-instruction program label the RPC node
// assigns to SPL token instructions.
const splTokenProgram = "spl-token"

// fromInstructions is the fallback strategy for records whose balance
// snapshots yielded nothing. It scans the flattened instruction list for
// transfer-like operations whose resolved destination is monitored and reads
// amount and source from the decoded arguments.
func (e *Extractor) fromInstructions(ctx context.Context, rec *Record) []domain.DepositEvent {
	var events []domain.DepositEvent

	for _, inst := range rec.Instructions {
		if inst.Program != splTokenProgram {
			continue
		}

		var destination string
		switch inst.Type {
		case "transfer", "transferChecked":
			destination = inst.Info.Destination
		case "mintTo", "mintToChecked":
			destination = inst.Info.Account
		default:
			continue
		}
		if destination == "" {
			continue
		}

		monitored, feeAccount := e.monitoredDestination(rec, destination)
		if !monitored {
			continue
		}

		amountStr := inst.Info.Amount
		if amountStr == "" && inst.Info.TokenAmount != nil {
			amountStr = inst.Info.TokenAmount.Amount
		}
		amount, ok := parseAmount(amountStr)
		if !ok {
			// Unparseable amounts are dropped without aborting the
			// surrounding transaction.
			e.logger.Debug("discarding instruction with unparseable amount",
				zap.String("signature", rec.Signature),
				zap.String("type", inst.Type))
			continue
		}

		mint := inst.Info.Mint
		if mint == "" {
			mint = e.mintFromSnapshots(rec, destination, inst.Info.Source)
		}
		if !e.mintMatches(mint) {
			continue
		}

		authority := inst.Info.Authority
		if authority == "" {
			authority = inst.Info.MintAuthority
		}

		events = append(events, domain.DepositEvent{
			FeeAccount:  feeAccount,
			Mint:        mint,
			Amount:      amount,
			SourceOwner: e.resolveSourceOwner(ctx, rec, authority, inst.Info.Source),
			Signature:   rec.Signature,
		})
	}

	return events
}

// monitoredDestination resolves an instruction destination (usually a token
// account) to a monitored identity: directly, or through the owner recorded
// in the balance snapshots for that account's index.
func (e *Extractor) monitoredDestination(rec *Record, destination string) (bool, string) {
	if _, ok := e.monitored[destination]; ok {
		return true, destination
	}
	idx := indexOfKey(rec, destination)
	if idx < 0 {
		return false, ""
	}
	return e.isMonitored(rec, idx, rec.Balances[idx])
}

// mintFromSnapshots cross-references the destination or source account index
// against the balance snapshots to recover the mint.
func (e *Extractor) mintFromSnapshots(rec *Record, destination, source string) string {
	for _, account := range []string{destination, source} {
		if idx := indexOfKey(rec, account); idx >= 0 {
			if bal := rec.Balances[idx]; bal != nil && bal.Mint != "" {
				return bal.Mint
			}
		}
	}
	return ""
}

// resolveSourceOwner attributes the deposit to the depositing wallet. The
// signing authority is authoritative when present; otherwise the source
// token account's owner comes from the snapshots, then from an auxiliary
// account-info lookup. Lookup failure leaves the owner unresolved rather
// than aborting the event.
func (e *Extractor) resolveSourceOwner(ctx context.Context, rec *Record, authority, source string) string {
	if authority != "" {
		return authority
	}
	if idx := indexOfKey(rec, source); idx >= 0 {
		if bal := rec.Balances[idx]; bal != nil && bal.Owner != "" {
			return bal.Owner
		}
	}
	if source == "" || e.rpc == nil {
		return ""
	}

	owner, err := resolveTokenAccountOwner(ctx, e.rpc, source)
	if err != nil {
		e.logger.Debug("owner lookup failed",
			zap.String("account", source),
			zap.Error(err))
		return ""
	}
	return owner
}

// indexOfKey returns the account's index in accountKeys, or -1.
func indexOfKey(rec *Record, account string) int {
	for i, key := range rec.AccountKeys {
		if key == account {
			return i
		}
	}
	return -1
}
