package extract

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/domain"
	"hzk-leaderboard/internal/observability"
	"hzk-leaderboard/internal/solana"
)

// Extractor turns transaction records into deposit events. Two strategies
// are tried in order and the first to yield anything wins: balance deltas
// carry the ground truth of what actually moved, so they are preferred;
// instruction parsing covers records whose balance snapshots are absent or
// incomplete.
type Extractor struct {
	rpc       solana.RPCClient // auxiliary owner lookups, may be nil
	monitored map[string]struct{}
	mint      string // "" matches any mint

	minDeposit *big.Int // fee window lower bound, nil disables
	maxDeposit *big.Int // fee window upper bound, nil disables
	credit     *big.Int // fixed per-transaction credit, nil disables

	logger *zap.Logger
}

// ExtractorOptions contains configuration for creating an Extractor.
type ExtractorOptions struct {
	RPC       solana.RPCClient
	Monitored []string
	Mint      string

	// Optional fee recognition window and fixed credit, see recognizeFee.
	MinDeposit *big.Int
	MaxDeposit *big.Int
	Credit     *big.Int

	Logger *zap.Logger
}

// NewExtractor creates a deposit extractor for the given monitored addresses.
func NewExtractor(opts ExtractorOptions) *Extractor {
	monitored := make(map[string]struct{}, len(opts.Monitored))
	for _, addr := range opts.Monitored {
		monitored[addr] = struct{}{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		rpc:        opts.RPC,
		monitored:  monitored,
		mint:       opts.Mint,
		minDeposit: opts.MinDeposit,
		maxDeposit: opts.MaxDeposit,
		credit:     opts.Credit,
		logger:     logger,
	}
}

// Extract yields zero or more deposit events for one transaction. Extraction
// failure is local: a malformed record produces no events and no error.
func (e *Extractor) Extract(ctx context.Context, tx *solana.Transaction) []domain.DepositEvent {
	rec := Normalize(tx)
	if rec == nil {
		return nil
	}

	if events := e.fromBalanceDeltas(rec); len(events) > 0 {
		events = e.recognizeFee(events, e.monitoredGain(rec))
		for range events {
			observability.RecordDeposit("balance_delta")
		}
		return events
	}

	events := e.fromInstructions(ctx, rec)
	events = e.recognizeFee(events, sumAmounts(events))
	for range events {
		observability.RecordDeposit("instruction")
	}
	return events
}

// isMonitored reports whether the balance at idx belongs to a monitored
// collection address, either through its owner wallet or, for monitored
// token accounts, through the account key itself. The second return is the
// matched monitored identity.
func (e *Extractor) isMonitored(rec *Record, idx int, bal *Balance) (bool, string) {
	if bal != nil && bal.Owner != "" {
		if _, ok := e.monitored[bal.Owner]; ok {
			return true, bal.Owner
		}
	}
	if idx >= 0 && idx < len(rec.AccountKeys) {
		if _, ok := e.monitored[rec.AccountKeys[idx]]; ok {
			return true, rec.AccountKeys[idx]
		}
	}
	return false, ""
}

// mintMatches applies the configured mint filter.
func (e *Extractor) mintMatches(mint string) bool {
	return e.mint == "" || e.mint == mint
}
