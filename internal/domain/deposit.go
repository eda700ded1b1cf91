package domain

import "math/big"

// UnknownOwner is the bucket for deposits whose source wallet could not be
// resolved. Kept as an explicit identity so unresolved value is still visible
// in the leaderboard instead of silently dropped.
const UnknownOwner = "unknown"

// DepositEvent is one detected transfer of token value into a monitored
// collection address, attributed to the depositing party. Events are folded
// into the aggregator immediately and never persisted individually.
type DepositEvent struct {
	FeeAccount  string   // monitored address that was credited
	Mint        string   // token mint of the deposited amount
	Amount      *big.Int // base units, always non-negative
	SourceOwner string   // depositing wallet, empty until resolved
	Signature   string   // transaction the deposit was observed in
}
