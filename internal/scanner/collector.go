// Package scanner discovers and retrieves the transaction history of the
// monitored collection accounts: the Collector pages signature history into
// one deduplicated work set, the Fetcher pulls full records in paced batches.
package scanner

import (
	"context"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/solana"
)

// Collector pages backward through signature history for each monitored
// address and merges the results into one deduplicated work set.
type Collector struct {
	rpc                solana.RPCClient
	pageSize           int
	maxPagesPerAccount int
	maxSignaturesTotal int
	logger             *zap.Logger
}

// CollectorOptions contains configuration for creating a Collector.
type CollectorOptions struct {
	RPC                solana.RPCClient
	PageSize           int // signatures per page, defaults to 1000
	MaxPagesPerAccount int // 0 = unlimited
	MaxSignaturesTotal int // 0 = unlimited; reaching it halts early, non-fatal
	Logger             *zap.Logger
}

// NewCollector creates a new signature collector.
func NewCollector(opts CollectorOptions) *Collector {
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = 1000
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Collector{
		rpc:                opts.RPC,
		pageSize:           pageSize,
		maxPagesPerAccount: opts.MaxPagesPerAccount,
		maxSignaturesTotal: opts.MaxSignaturesTotal,
		logger:             logger,
	}
}

// CollectResult contains statistics from a collection pass.
type CollectResult struct {
	Signatures      []string // deduplicated, first-seen order
	AccountsScanned int
	AccountsFailed  int
	PagesFetched    int
	Truncated       bool // global signature ceiling reached
}

// Collect walks the signature history of every address. A failing address is
// logged and skipped; partial coverage is an accepted degraded outcome.
func (c *Collector) Collect(ctx context.Context, addresses []string) *CollectResult {
	result := &CollectResult{}
	seen := make(map[string]struct{})

	for _, address := range addresses {
		if result.Truncated {
			break
		}

		pages, err := c.collectForAddress(ctx, address, seen, result)
		result.PagesFetched += pages
		if err != nil {
			result.AccountsFailed++
			c.logger.Warn("signature collection failed, skipping address",
				zap.String("address", address),
				zap.Error(err))
			continue
		}
		result.AccountsScanned++
	}

	c.logger.Info("signature collection complete",
		zap.Int("signatures", len(result.Signatures)),
		zap.Int("accounts_scanned", result.AccountsScanned),
		zap.Int("accounts_failed", result.AccountsFailed),
		zap.Bool("truncated", result.Truncated))

	return result
}

// collectForAddress pages one address until end-of-history or a ceiling.
// The cursor is the last signature of the previous page.
func (c *Collector) collectForAddress(ctx context.Context, address string, seen map[string]struct{}, result *CollectResult) (pages int, err error) {
	var before string

	for {
		if c.maxPagesPerAccount > 0 && pages >= c.maxPagesPerAccount {
			return pages, nil
		}

		opts := &solana.SignaturesOpts{Limit: c.pageSize}
		if before != "" {
			opts.Before = before
		}

		sigs, err := c.rpc.GetSignaturesForAddress(ctx, address, opts)
		if err != nil {
			return pages, err
		}
		pages++

		if len(sigs) == 0 {
			return pages, nil
		}

		for _, sig := range sigs {
			// Failed transactions cannot move tokens.
			if sig.Err != nil {
				continue
			}
			if _, dup := seen[sig.Signature]; dup {
				continue
			}
			seen[sig.Signature] = struct{}{}
			result.Signatures = append(result.Signatures, sig.Signature)

			if c.maxSignaturesTotal > 0 && len(result.Signatures) >= c.maxSignaturesTotal {
				result.Truncated = true
				return pages, nil
			}
		}

		last := sigs[len(sigs)-1].Signature
		if last == before {
			// A node replaying the same page would loop forever;
			// treat it as end-of-history.
			c.logger.Warn("repeated pagination cursor, stopping",
				zap.String("address", address),
				zap.String("cursor", last))
			return pages, nil
		}
		before = last

		if len(sigs) < c.pageSize {
			return pages, nil
		}
	}
}
