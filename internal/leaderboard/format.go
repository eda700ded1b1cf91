package leaderboard

import (
	"math/big"
	"strings"
)

// FormatBaseUnits renders a base-unit amount as a decimal string scaled by
// the mint's decimals, using exact integer division. The fractional part is
// truncated, never rounded, and trailing zeros are trimmed.
func FormatBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	neg := amount.Sign() < 0
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(amount, scale, new(big.Int))
	quo.Abs(quo)
	rem.Abs(rem)

	frac := strings.TrimRight(padLeft(rem.String(), decimals), "0")
	out := quo.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
