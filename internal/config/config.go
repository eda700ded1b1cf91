// Package config loads pipeline configuration from the environment.
// All variables share the LEADERBOARD_ prefix.
package config

import (
	"fmt"
	"math/big"
	"time"

	"filippo.io/edwards25519"
	"github.com/kelseyhightower/envconfig"
	"github.com/mr-tron/base58"
)

// Config holds every tuning knob of a pipeline run. Defaults mirror the
// production deployment against mainnet-beta.
type Config struct {
	RPCEndpoint string   `envconfig:"RPC_ENDPOINT" required:"true"`
	Cluster     string   `envconfig:"CLUSTER" default:"mainnet-beta"`
	Mint        string   `envconfig:"MINT" required:"true"`
	FeeAccounts []string `envconfig:"FEE_ACCOUNTS" required:"true"`

	PageSize           int           `envconfig:"PAGE_SIZE" default:"1000"`
	MaxPagesPerAccount int           `envconfig:"MAX_PAGES_PER_ACCOUNT" default:"5"`
	MaxSignaturesTotal int           `envconfig:"MAX_SIGNATURES_TOTAL" default:"0"` // 0 = unlimited
	BatchSize          int           `envconfig:"BATCH_SIZE" default:"50"`
	BatchDelay         time.Duration `envconfig:"BATCH_DELAY" default:"100ms"`
	CallTimeout        time.Duration `envconfig:"CALL_TIMEOUT" default:"15s"`
	Retries            int           `envconfig:"RETRIES" default:"3"`

	OutputPath  string `envconfig:"OUTPUT_PATH" default:"public/hzktop3.json"`
	DBDSN       string `envconfig:"DB_DSN"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsAddr string `envconfig:"METRICS_ADDR"` // e.g. :9090, empty disables

	// Optional fee recognition window, checked per transaction against the
	// combined amount received by the fee accounts. Transactions outside
	// [MinDepositBaseUnits, MaxDepositBaseUnits] are ignored; matching
	// transactions credit CreditBaseUnits once per paying wallet when set.
	// This reproduces the fee-share accounting of the production
	// deployment, where a fixed fee is split across collection accounts.
	MinDepositBaseUnits string `envconfig:"MIN_DEPOSIT_BASE_UNITS"`
	MaxDepositBaseUnits string `envconfig:"MAX_DEPOSIT_BASE_UNITS"`
	CreditBaseUnits     string `envconfig:"CREDIT_BASE_UNITS"`

	// Parsed forms of the window fields, populated by Validate.
	MinDeposit *big.Int `ignored:"true"`
	MaxDeposit *big.Int `ignored:"true"`
	Credit     *big.Int `ignored:"true"`
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("leaderboard", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks address material and parses the optional deposit window.
// Duplicate fee accounts are tolerated; the collector deduplicates anyway.
func (c *Config) Validate() error {
	if len(c.FeeAccounts) == 0 {
		return fmt.Errorf("no fee accounts configured")
	}
	for _, addr := range c.FeeAccounts {
		if err := validateAddress(addr); err != nil {
			return fmt.Errorf("fee account %q: %w", addr, err)
		}
	}
	if err := validateAddress(c.Mint); err != nil {
		return fmt.Errorf("mint %q: %w", c.Mint, err)
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}

	var err error
	if c.MinDeposit, err = parseBaseUnits(c.MinDepositBaseUnits); err != nil {
		return fmt.Errorf("min deposit: %w", err)
	}
	if c.MaxDeposit, err = parseBaseUnits(c.MaxDepositBaseUnits); err != nil {
		return fmt.Errorf("max deposit: %w", err)
	}
	if c.Credit, err = parseBaseUnits(c.CreditBaseUnits); err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	if c.MinDeposit != nil && c.MaxDeposit != nil && c.MinDeposit.Cmp(c.MaxDeposit) > 0 {
		return fmt.Errorf("min deposit %s exceeds max deposit %s", c.MinDeposit, c.MaxDeposit)
	}

	return nil
}

// OffCurveFeeAccounts returns configured fee accounts that are not valid
// ed25519 curve points. Those are PDAs or token accounts rather than wallets,
// so owner-based matching will not see them; the extractor falls back to
// matching them directly against account keys, but they are worth a warning.
func (c *Config) OffCurveFeeAccounts() []string {
	var offCurve []string
	for _, addr := range c.FeeAccounts {
		decoded, err := base58.Decode(addr)
		if err != nil || len(decoded) != 32 {
			continue
		}
		if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
			offCurve = append(offCurve, addr)
		}
	}
	return offCurve
}

// validateAddress checks that addr is a base58-encoded 32-byte public key.
func validateAddress(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(decoded))
	}
	return nil
}

// parseBaseUnits parses a non-negative base-unit amount. Empty means unset.
func parseBaseUnits(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("must be non-negative, got %s", s)
	}
	return n, nil
}
