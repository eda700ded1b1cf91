package mintinfo

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"hzk-leaderboard/internal/solana"
)

type fakeRPC struct {
	infos map[string]*solana.AccountInfo
	err   error
	calls int
}

func (f *fakeRPC) GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return nil, nil
}

func (f *fakeRPC) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	return nil, nil
}

func (f *fakeRPC) GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.infos[pubkey], nil
}

func mintAccountData(decimals byte) string {
	data := make([]byte, mintAccountSize)
	data[mintDecimalsOffset] = decimals
	return base64.StdEncoding.EncodeToString(data)
}

func TestResolver_ObservationWins(t *testing.T) {
	rpc := &fakeRPC{}
	r := NewResolver(ResolverOptions{RPC: rpc})

	r.Observe("MintA", 6)
	r.Observe("MintA", 9) // later observations ignored

	assert.Equal(t, 6, r.Decimals(context.Background(), "MintA"))
	assert.Equal(t, 0, rpc.calls)
}

func TestResolver_FetchesMintAccountOnce(t *testing.T) {
	rpc := &fakeRPC{infos: map[string]*solana.AccountInfo{
		"MintB": {Data: mintAccountData(9)},
	}}
	r := NewResolver(ResolverOptions{RPC: rpc})

	assert.Equal(t, 9, r.Decimals(context.Background(), "MintB"))
	assert.Equal(t, 9, r.Decimals(context.Background(), "MintB"))
	assert.Equal(t, 1, rpc.calls)
}

func TestResolver_MissingMintFallsBackToZero(t *testing.T) {
	rpc := &fakeRPC{}
	r := NewResolver(ResolverOptions{RPC: rpc})

	assert.Equal(t, 0, r.Decimals(context.Background(), "MintC"))
	assert.Equal(t, 1, rpc.calls)

	// Failure is cached too.
	assert.Equal(t, 0, r.Decimals(context.Background(), "MintC"))
	assert.Equal(t, 1, rpc.calls)
}

func TestResolver_FetchErrorFallsBackToZero(t *testing.T) {
	rpc := &fakeRPC{err: assert.AnError}
	r := NewResolver(ResolverOptions{RPC: rpc})

	assert.Equal(t, 0, r.Decimals(context.Background(), "MintD"))
}

func TestResolver_ShortAccountDataRejected(t *testing.T) {
	rpc := &fakeRPC{infos: map[string]*solana.AccountInfo{
		"MintE": {Data: base64.StdEncoding.EncodeToString(make([]byte, 10))},
	}}
	r := NewResolver(ResolverOptions{RPC: rpc})

	assert.Equal(t, 0, r.Decimals(context.Background(), "MintE"))
}

func TestResolver_NoRPCClient(t *testing.T) {
	r := NewResolver(ResolverOptions{})
	assert.Equal(t, 0, r.Decimals(context.Background(), "MintF"))
}
