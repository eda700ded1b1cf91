// Package extract inspects transaction records and yields deposit events
// into the monitored collection accounts.
package extract

import (
	"math/big"

	"hzk-leaderboard/internal/solana"
)

// Record is the canonical internal shape of a transaction. Normalization
// happens once at the ingestion boundary so downstream logic never branches
// on source-specific naming or missing-field variants.
type Record struct {
	Signature    string
	AccountKeys  []string
	Balances     map[int]*Balance // keyed by account index
	Instructions []solana.Instruction
}

// Balance is the pre/post token balance of one account index. A side missing
// from the snapshots means the account held zero at that point.
type Balance struct {
	Mint     string
	Owner    string // empty if the node did not resolve it
	Pre      *big.Int
	Post     *big.Int
	Decimals int
}

// Delta returns post - pre.
func (b *Balance) Delta() *big.Int {
	return new(big.Int).Sub(b.Post, b.Pre)
}

// Normalize converts a raw transaction into the canonical record. Returns nil
// for records missing the fields extraction depends on; the caller skips
// those. Balance entries with unparseable amounts are dropped individually.
func Normalize(tx *solana.Transaction) *Record {
	if tx == nil || tx.Meta == nil || tx.Message == nil {
		return nil
	}
	// Transactions that failed on-chain moved no tokens.
	if tx.Meta.Err != nil {
		return nil
	}

	rec := &Record{
		Signature:   tx.Signature,
		AccountKeys: tx.Message.AccountKeys,
		Balances:    make(map[int]*Balance),
	}

	for _, pre := range tx.Meta.PreTokenBalances {
		amount, ok := parseAmount(pre.Amount)
		if !ok {
			continue
		}
		rec.Balances[pre.AccountIndex] = &Balance{
			Mint:     pre.Mint,
			Owner:    pre.Owner,
			Pre:      amount,
			Post:     new(big.Int),
			Decimals: pre.Decimals,
		}
	}

	for _, post := range tx.Meta.PostTokenBalances {
		amount, ok := parseAmount(post.Amount)
		if !ok {
			continue
		}
		if bal, exists := rec.Balances[post.AccountIndex]; exists {
			bal.Post = amount
			if bal.Owner == "" {
				bal.Owner = post.Owner
			}
			continue
		}
		rec.Balances[post.AccountIndex] = &Balance{
			Mint:     post.Mint,
			Owner:    post.Owner,
			Pre:      new(big.Int),
			Post:     amount,
			Decimals: post.Decimals,
		}
	}

	rec.Instructions = flattenInstructions(tx)

	return rec
}

// flattenInstructions merges top-level and inner instructions into one list.
// Inner instructions follow the top-level instruction that triggered them.
func flattenInstructions(tx *solana.Transaction) []solana.Instruction {
	var out []solana.Instruction
	out = append(out, tx.Message.Instructions...)
	for _, inner := range tx.Meta.InnerInstructions {
		out = append(out, inner.Instructions...)
	}
	return out
}

// parseAmount parses a non-negative base-unit integer string.
func parseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}
