package main

import (
	"math/big"

	"github.com/ligun0805/auto-transfer/internal/amount"
	"github.com/ligun0805/auto-transfer/internal/transfer"
)

func formatGwei(v *big.Int) string {
	if v == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(v, big.NewInt(1_000_000_000))
	return r.FloatString(2)
}

// formatAsset renders minor units as "<decimal> <symbol>".
func formatAsset(v *big.Int, a transfer.Asset) string {
	return amount.Format(v, a.Decimals) + " " + a.Symbol
}
