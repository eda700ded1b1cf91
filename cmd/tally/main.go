// Package main runs one leaderboard tally: it scans the deposit history of
// the configured collection accounts and writes the ranked artifact.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/config"
	"hzk-leaderboard/internal/extract"
	"hzk-leaderboard/internal/logging"
	"hzk-leaderboard/internal/mintinfo"
	"hzk-leaderboard/internal/observability"
	"hzk-leaderboard/internal/pipeline"
	"hzk-leaderboard/internal/scanner"
	"hzk-leaderboard/internal/snapshot"
	"hzk-leaderboard/internal/solana"
	"hzk-leaderboard/internal/storage"
	"hzk-leaderboard/internal/storage/migrations"
	"hzk-leaderboard/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn("received signal, cancelling run", zap.String("signal", sig.String()))
		cancel()
	}()

	for _, addr := range cfg.OffCurveFeeAccounts() {
		logger.Warn("fee account is off-curve; matching it directly against account keys",
			zap.String("address", addr))
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint,
		solana.WithCallTimeout(cfg.CallTimeout),
		solana.WithMaxRetries(cfg.Retries),
	)

	var store storage.SnapshotStore
	if cfg.DBDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Postgres error: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
			os.Exit(1)
		}
		store = postgres.NewSnapshotStore(pool)
	}

	p := pipeline.New(pipeline.Options{
		Collector: scanner.NewCollector(scanner.CollectorOptions{
			RPC:                rpc,
			PageSize:           cfg.PageSize,
			MaxPagesPerAccount: cfg.MaxPagesPerAccount,
			MaxSignaturesTotal: cfg.MaxSignaturesTotal,
			Logger:             logger,
		}),
		Fetcher: scanner.NewFetcher(scanner.FetcherOptions{
			RPC:        rpc,
			BatchSize:  cfg.BatchSize,
			BatchDelay: cfg.BatchDelay,
			Logger:     logger,
		}),
		Extractor: extract.NewExtractor(extract.ExtractorOptions{
			RPC:        rpc,
			Monitored:  cfg.FeeAccounts,
			Mint:       cfg.Mint,
			MinDeposit: cfg.MinDeposit,
			MaxDeposit: cfg.MaxDeposit,
			Credit:     cfg.Credit,
			Logger:     logger,
		}),
		Resolver: mintinfo.NewResolver(mintinfo.ResolverOptions{
			RPC:    rpc,
			Logger: logger,
		}),
		Writer: snapshot.NewWriter(snapshot.WriterOptions{
			Path:   cfg.OutputPath,
			Logger: logger,
		}),
		Store:       store,
		Cluster:     cfg.Cluster,
		Mint:        cfg.Mint,
		FeeAccounts: cfg.FeeAccounts,
		Logger:      logger,
	})

	started := time.Now()
	result, err := p.Run(ctx)
	if err != nil {
		if result == nil || len(result.Rows) == 0 {
			p.WriteError(err.Error())
		}
		observability.RecordRun("error", time.Since(started).Seconds())
		logger.Error("pipeline run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		os.Exit(1)
	}
	observability.RecordRun("ok", time.Since(started).Seconds())

	printSummary(result)
}

// printSummary writes the console report: run counters and the top rows with
// shortened owner addresses.
func printSummary(result *pipeline.Result) {
	fmt.Println("=== Deposit Leaderboard ===")
	fmt.Printf("Signatures scanned: %d (accounts: %d ok, %d failed)\n",
		result.Signatures, result.AccountsScanned, result.AccountsFailed)
	if result.Truncated {
		fmt.Println("Note: global signature ceiling reached, history truncated")
	}
	fmt.Printf("Records fetched: %d (not found: %d, failed: %d)\n",
		result.RecordsFetched, result.NotFound, result.FetchFailed)
	fmt.Printf("Deposits counted: %d from %d depositors\n",
		result.DepositsCounted, result.Depositors)
	fmt.Printf("Total deposited: %s base units\n", result.TotalDeposited)

	for i, row := range result.Rows {
		if i >= 3 {
			break
		}
		fmt.Printf("  #%d %s  %s (%d deposits)\n",
			i+1, shortenAddress(row.Owner), row.DisplayAmount, row.DepositCount)
	}
}

// shortenAddress renders an address as head...tail for console output.
func shortenAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
