package scanner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/solana"
)

// progressInterval controls how often the fetcher reports progress.
const progressInterval = 500

// Fetcher retrieves full transaction records for a signature set in
// fixed-size batches. Within a batch every fetch runs concurrently and its
// outcome is captured independently, so one bad signature never aborts the
// batch. A pacing delay between batches keeps the fetcher under the remote
// service's implicit rate limit.
type Fetcher struct {
	rpc        solana.RPCClient
	batchSize  int
	batchDelay time.Duration
	logger     *zap.Logger
}

// FetcherOptions contains configuration for creating a Fetcher.
type FetcherOptions struct {
	RPC        solana.RPCClient
	BatchSize  int // concurrency ceiling, defaults to 50
	BatchDelay time.Duration
	Logger     *zap.Logger
}

// NewFetcher creates a new batch fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = 50
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		rpc:        opts.RPC,
		batchSize:  batchSize,
		batchDelay: opts.BatchDelay,
		logger:     logger,
	}
}

// FetchResult contains statistics from a fetch pass.
type FetchResult struct {
	Processed int
	Fetched   int
	NotFound  int
	Failed    int
}

// Fetch retrieves every signature's record and hands successful ones to fn.
// Fetch completion order within a batch is arbitrary, but fn is invoked in a
// stable pass in signature order afterward, so downstream folding is
// deterministic. Errors and not-found records are counted and skipped.
func (f *Fetcher) Fetch(ctx context.Context, signatures []string, fn func(*solana.Transaction)) (*FetchResult, error) {
	result := &FetchResult{}

	for start := 0; start < len(signatures); start += f.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + f.batchSize
		if end > len(signatures) {
			end = len(signatures)
		}
		batch := signatures[start:end]

		outcomes := make([]fetchOutcome, len(batch))
		var wg sync.WaitGroup
		for i, sig := range batch {
			wg.Add(1)
			go func(i int, sig string) {
				defer wg.Done()
				tx, err := f.rpc.GetTransaction(ctx, sig)
				outcomes[i] = fetchOutcome{tx: tx, err: err}
			}(i, sig)
		}
		wg.Wait()

		// Stable reduction in batch order.
		for i, outcome := range outcomes {
			result.Processed++
			switch {
			case outcome.err != nil:
				result.Failed++
				f.logger.Debug("transaction fetch failed",
					zap.String("signature", batch[i]),
					zap.Error(outcome.err))
			case outcome.tx == nil:
				result.NotFound++
			default:
				result.Fetched++
				fn(outcome.tx)
			}
		}

		if result.Processed%progressInterval == 0 || result.Processed == len(signatures) {
			f.logger.Info("fetch progress",
				zap.Int("processed", result.Processed),
				zap.Int("total", len(signatures)),
				zap.Int("failed", result.Failed))
		}

		if end < len(signatures) && f.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(f.batchDelay):
			}
		}
	}

	return result, nil
}

type fetchOutcome struct {
	tx  *solana.Transaction
	err error
}
