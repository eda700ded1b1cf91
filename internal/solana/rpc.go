package solana

import (
	"context"
	"errors"
)

// ErrUnavailable is returned once the retry budget for a call is exhausted.
// Callers treat it as "skip this unit of work", never as a reason to abort
// the surrounding run.
var ErrUnavailable = errors.New("rpc unavailable")

// RPCClient defines the read-only Solana RPC surface the pipeline needs.
// All three operations are idempotent. A nil result without an error means
// the queried entity does not exist.
type RPCClient interface {
	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a fully decoded transaction by signature.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetAccountInfo retrieves account info by public key.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}
