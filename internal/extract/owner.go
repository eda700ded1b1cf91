package extract

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"

	"hzk-leaderboard/internal/solana"
)

// resolveTokenAccountOwner fetches a token account and returns its owner
// wallet. SPL token account layout: mint(32) | owner(32) | amount(8) | ...
func resolveTokenAccountOwner(ctx context.Context, rpc solana.RPCClient, account string) (string, error) {
	info, err := rpc.GetAccountInfo(ctx, account)
	if err != nil {
		return "", err
	}
	if info == nil || info.Data == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return "", fmt.Errorf("decode token account data: %w", err)
	}
	if len(decoded) < 64 {
		return "", fmt.Errorf("token account data too short: %d", len(decoded))
	}
	return base58.Encode(decoded[32:64]), nil
}
