package domain

import (
	"encoding/json"
	"math/big"
)

// LeaderboardRow is one ranked entry of the final report. Recomputed from the
// full event stream on every run; rows are never partially updated.
type LeaderboardRow struct {
	Owner          string
	TotalBaseUnits *big.Int
	DisplayAmount  string
	DepositCount   int
}

// MarshalJSON serializes the base-unit total as a decimal string. Base-unit
// amounts routinely exceed the 53-bit integer range that JSON consumers can
// read back losslessly as numbers.
func (r LeaderboardRow) MarshalJSON() ([]byte, error) {
	total := "0"
	if r.TotalBaseUnits != nil {
		total = r.TotalBaseUnits.String()
	}
	return json.Marshal(struct {
		Owner          string `json:"owner"`
		TotalBaseUnits string `json:"totalBaseUnits"`
		Deposited      string `json:"deposited"`
		Deposits       int    `json:"deposits"`
	}{
		Owner:          r.Owner,
		TotalBaseUnits: total,
		Deposited:      r.DisplayAmount,
		Deposits:       r.DepositCount,
	})
}
