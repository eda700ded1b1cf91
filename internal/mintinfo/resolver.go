// Package mintinfo resolves token mint metadata needed to render base-unit
// amounts, currently just the decimal count.
package mintinfo

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"hzk-leaderboard/internal/solana"
)

// mint account layout: mintAuthorityOption(4) | mintAuthority(32) | supply(8)
// | decimals(1) | ...
const (
	mintAccountSize    = 82
	mintDecimalsOffset = 44
)

// Resolver caches mint decimals for the duration of a run. Decimals observed
// in transaction balance snapshots take precedence over a mint account fetch;
// a mint that resolves through neither path falls back to zero decimals.
type Resolver struct {
	rpc    solana.RPCClient
	logger *zap.Logger

	observed map[string]int
	fetched  map[string]int
}

// ResolverOptions contains configuration for creating a Resolver.
type ResolverOptions struct {
	RPC    solana.RPCClient
	Logger *zap.Logger
}

// NewResolver creates a mint metadata resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		rpc:      opts.RPC,
		logger:   logger,
		observed: make(map[string]int),
		fetched:  make(map[string]int),
	}
}

// Observe records a decimal count seen in a balance snapshot. Snapshots are
// authoritative, so the first observation wins and suppresses any fetch.
func (r *Resolver) Observe(mint string, decimals int) {
	if mint == "" {
		return
	}
	if _, ok := r.observed[mint]; !ok {
		r.observed[mint] = decimals
	}
}

// Decimals returns the decimal count for a mint, fetching the mint account
// once per run when no snapshot observation exists. Resolution failure is
// logged and yields zero decimals rather than an error; amounts then render
// as raw base units.
func (r *Resolver) Decimals(ctx context.Context, mint string) int {
	if d, ok := r.observed[mint]; ok {
		return d
	}
	if d, ok := r.fetched[mint]; ok {
		return d
	}

	d, err := r.fetchDecimals(ctx, mint)
	if err != nil {
		r.logger.Warn("mint decimals unresolved, rendering raw base units",
			zap.String("mint", mint),
			zap.Error(err))
		d = 0
	}
	r.fetched[mint] = d
	return d
}

func (r *Resolver) fetchDecimals(ctx context.Context, mint string) (int, error) {
	if r.rpc == nil || mint == "" {
		return 0, fmt.Errorf("no rpc client for mint lookup")
	}

	info, err := r.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, err
	}
	if info == nil || info.Data == "" {
		return 0, fmt.Errorf("mint account not found")
	}

	decoded, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return 0, fmt.Errorf("decode mint account data: %w", err)
	}
	if len(decoded) < mintAccountSize {
		return 0, fmt.Errorf("mint account data too short: %d", len(decoded))
	}
	return int(decoded[mintDecimalsOffset]), nil
}
