package leaderboard

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hzk-leaderboard/internal/domain"
)

func event(owner string, amount int64) domain.DepositEvent {
	return domain.DepositEvent{
		FeeAccount:  "FeeAcct",
		Mint:        "Mint",
		Amount:      big.NewInt(amount),
		SourceOwner: owner,
		Signature:   "sig",
	}
}

func TestAggregator_SingleDeposit(t *testing.T) {
	a := NewAggregator(AggregatorOptions{})
	require.True(t, a.Add(event("W1", 2000000)))

	rows := a.Rows(6)
	require.Len(t, rows, 1)
	assert.Equal(t, "W1", rows[0].Owner)
	assert.Equal(t, "2000000", rows[0].TotalBaseUnits.String())
	assert.Equal(t, "2", rows[0].DisplayAmount)
	assert.Equal(t, 1, rows[0].DepositCount)
}

func TestAggregator_AccumulatesPerOwner(t *testing.T) {
	a := NewAggregator(AggregatorOptions{})
	a.Add(event("W2", 500000))
	a.Add(event("W2", 1500000))

	rows := a.Rows(6)
	require.Len(t, rows, 1)
	assert.Equal(t, "W2", rows[0].Owner)
	assert.Equal(t, "2000000", rows[0].TotalBaseUnits.String())
	assert.Equal(t, 2, rows[0].DepositCount)

	assert.Equal(t, "2000000", a.TotalDeposited().String())
	assert.Equal(t, 2, a.DepositCount())
	assert.Equal(t, 1, a.Depositors())
}

func TestAggregator_SortDescendingOwnerTiebreak(t *testing.T) {
	a := NewAggregator(AggregatorOptions{})
	a.Add(event("Charlie", 100))
	a.Add(event("Alice", 300))
	a.Add(event("Bob", 300))

	rows := a.Rows(0)
	require.Len(t, rows, 3)
	assert.Equal(t, "Alice", rows[0].Owner)
	assert.Equal(t, "Bob", rows[1].Owner)
	assert.Equal(t, "Charlie", rows[2].Owner)
}

func TestAggregator_UnresolvedOwnerBucketsUnderUnknown(t *testing.T) {
	a := NewAggregator(AggregatorOptions{})
	a.Add(event("", 50))
	a.Add(event("", 25))

	rows := a.Rows(0)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.UnknownOwner, rows[0].Owner)
	assert.Equal(t, "75", rows[0].TotalBaseUnits.String())
}

func TestAggregator_RejectsNilAndNegative(t *testing.T) {
	a := NewAggregator(AggregatorOptions{})
	assert.False(t, a.Add(domain.DepositEvent{SourceOwner: "W1"}))
	assert.False(t, a.Add(domain.DepositEvent{SourceOwner: "W1", Amount: big.NewInt(-5)}))
	assert.Empty(t, a.Rows(0))
	assert.Equal(t, 0, a.DepositCount())
}

func TestAggregator_RowsAreIndependentCopies(t *testing.T) {
	a := NewAggregator(AggregatorOptions{})
	a.Add(event("W1", 100))

	rows := a.Rows(0)
	rows[0].TotalBaseUnits.SetInt64(999)

	assert.Equal(t, "100", a.Rows(0)[0].TotalBaseUnits.String())
}

func TestFormatBaseUnits(t *testing.T) {
	cases := []struct {
		amount   int64
		decimals int
		want     string
	}{
		{2000000, 6, "2"},
		{2500000, 6, "2.5"},
		{123, 6, "0.000123"},
		{1999999, 6, "1.999999"},
		{42, 0, "42"},
		{0, 6, "0"},
		{-1500000, 6, "-1.5"},
		{-1, 6, "-0.000001"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatBaseUnits(big.NewInt(tc.amount), tc.decimals), "amount=%d decimals=%d", tc.amount, tc.decimals)
	}
	assert.Equal(t, "0", FormatBaseUnits(nil, 6))
}
