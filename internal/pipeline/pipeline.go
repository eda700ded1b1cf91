// Package pipeline coordinates one leaderboard run.
// Flow: collect signatures → fetch records → extract deposits → aggregate →
// write snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/domain"
	"hzk-leaderboard/internal/extract"
	"hzk-leaderboard/internal/leaderboard"
	"hzk-leaderboard/internal/mintinfo"
	"hzk-leaderboard/internal/observability"
	"hzk-leaderboard/internal/scanner"
	"hzk-leaderboard/internal/snapshot"
	"hzk-leaderboard/internal/solana"
	"hzk-leaderboard/internal/storage"
)

// ErrNoCoverage is returned when no monitored account's history could be
// collected at all. The run still writes an error-flagged artifact.
var ErrNoCoverage = errors.New("no account history could be collected")

// Pipeline executes the full scan-and-aggregate flow.
type Pipeline struct {
	collector *scanner.Collector
	fetcher   *scanner.Fetcher
	extractor *extract.Extractor
	resolver  *mintinfo.Resolver
	writer    *snapshot.Writer
	store     storage.SnapshotStore

	cluster     string
	mint        string
	feeAccounts []string
	logger      *zap.Logger
}

// Options for creating a Pipeline.
type Options struct {
	Collector *scanner.Collector
	Fetcher   *scanner.Fetcher
	Extractor *extract.Extractor
	Resolver  *mintinfo.Resolver
	Writer    *snapshot.Writer

	// Store, when set, additionally persists each run's snapshot.
	Store storage.SnapshotStore

	Cluster     string
	Mint        string
	FeeAccounts []string

	Logger *zap.Logger
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		collector:   opts.Collector,
		fetcher:     opts.Fetcher,
		extractor:   opts.Extractor,
		resolver:    opts.Resolver,
		writer:      opts.Writer,
		store:       opts.Store,
		cluster:     opts.Cluster,
		mint:        opts.Mint,
		feeAccounts: opts.FeeAccounts,
		logger:      logger,
	}
}

// Result contains statistics from one pipeline run.
type Result struct {
	Signatures      int
	AccountsScanned int
	AccountsFailed  int
	Truncated       bool

	RecordsFetched int
	NotFound       int
	FetchFailed    int

	DepositEvents   int
	DepositsCounted int
	Depositors      int
	TotalDeposited  *big.Int
	UnitDecimals    int

	Rows []domain.LeaderboardRow
}

// Run executes the pipeline. Per-item failures degrade coverage but never
// abort the run; only a total collection failure or context cancellation is
// fatal, and even total collection failure still writes an error-flagged
// artifact.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{TotalDeposited: new(big.Int)}

	collected := p.collector.Collect(ctx, p.feeAccounts)
	result.Signatures = len(collected.Signatures)
	result.AccountsScanned = collected.AccountsScanned
	result.AccountsFailed = collected.AccountsFailed
	result.Truncated = collected.Truncated

	observability.DefaultMetrics.SignaturesCollected.Add(float64(result.Signatures))
	observability.DefaultMetrics.PagesFetched.Add(float64(collected.PagesFetched))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if collected.AccountsScanned == 0 && len(p.feeAccounts) > 0 {
		p.writeError(ErrNoCoverage.Error())
		return result, ErrNoCoverage
	}

	agg := leaderboard.NewAggregator(leaderboard.AggregatorOptions{Logger: p.logger})

	fetched, err := p.fetcher.Fetch(ctx, collected.Signatures, func(tx *solana.Transaction) {
		p.observeDecimals(tx)
		for _, event := range p.extractor.Extract(ctx, tx) {
			result.DepositEvents++
			if agg.Add(event) {
				result.DepositsCounted++
				observability.DefaultMetrics.DepositsCounted.Inc()
			}
		}
	})
	if fetched != nil {
		result.RecordsFetched = fetched.Fetched
		result.NotFound = fetched.NotFound
		result.FetchFailed = fetched.Failed

		observability.DefaultMetrics.RecordsFetched.Add(float64(fetched.Fetched))
		observability.DefaultMetrics.RecordsNotFound.Add(float64(fetched.NotFound))
		observability.DefaultMetrics.FetchErrors.Add(float64(fetched.Failed))
	}
	if err != nil {
		return result, fmt.Errorf("fetch transactions: %w", err)
	}

	decimals := p.resolver.Decimals(ctx, p.mint)
	rows := agg.Rows(decimals)

	result.Depositors = agg.Depositors()
	result.TotalDeposited = agg.TotalDeposited()
	result.UnitDecimals = decimals
	result.Rows = rows

	snap := snapshot.Build(
		p.cluster,
		p.mint,
		decimals,
		rows,
		leaderboard.FormatBaseUnits(result.TotalDeposited, decimals),
		agg.DepositCount(),
	)
	if err := p.writer.Write(snap); err != nil {
		return result, fmt.Errorf("write snapshot: %w", err)
	}

	p.persist(ctx, snap)

	p.logger.Info("pipeline run complete",
		zap.Int("signatures", result.Signatures),
		zap.Int("records", result.RecordsFetched),
		zap.Int("deposits", result.DepositsCounted),
		zap.Int("depositors", result.Depositors))

	return result, nil
}

// WriteError emits the degraded artifact variant for a fatal failure.
func (p *Pipeline) WriteError(message string) {
	p.writeError(message)
}

func (p *Pipeline) writeError(message string) {
	snap := snapshot.BuildError(p.cluster, p.mint, 0, message)
	if err := p.writer.Write(snap); err != nil {
		p.logger.Error("failed to write error snapshot", zap.Error(err))
	}
}

// persist stores the snapshot when a store is configured. Persistence is
// supplementary; failure degrades to the file artifact alone.
func (p *Pipeline) persist(ctx context.Context, snap *snapshot.Snapshot) {
	if p.store == nil {
		return
	}

	generatedAt, err := time.Parse(time.RFC3339, snap.GeneratedAt)
	if err != nil {
		generatedAt = time.Now().UTC()
	}

	record := &domain.RunSnapshot{
		RunID:          snap.GeneratedAt,
		GeneratedAt:    generatedAt,
		Cluster:        snap.Cluster,
		Mint:           snap.Mint,
		UnitDecimals:   snap.UnitDecimals,
		TotalDeposited: snap.TotalDeposited,
		TotalDeposits:  snap.TotalDeposits,
		Error:          snap.Error,
		Rows:           snap.Leaderboard.All,
	}
	if err := p.store.Insert(ctx, record); err != nil {
		observability.DefaultMetrics.PersistenceErrors.Inc()
		p.logger.Warn("snapshot persistence failed", zap.Error(err))
		return
	}
	observability.DefaultMetrics.SnapshotsPersisted.Inc()
}

// observeDecimals feeds balance-snapshot decimals to the resolver so the
// common case never needs a mint account fetch.
func (p *Pipeline) observeDecimals(tx *solana.Transaction) {
	if tx == nil || tx.Meta == nil {
		return
	}
	for _, b := range tx.Meta.PreTokenBalances {
		p.resolver.Observe(b.Mint, b.Decimals)
	}
	for _, b := range tx.Meta.PostTokenBalances {
		p.resolver.Observe(b.Mint, b.Decimals)
	}
}
