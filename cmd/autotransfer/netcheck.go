package main

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ligun0805/auto-transfer/internal/chain"
	"github.com/ligun0805/auto-transfer/internal/config"
	"github.com/ligun0805/auto-transfer/internal/transfer"
)

const netcheckBlocks = 20

// printNetworkState prints the chain snapshot and a gas cost estimate for
// one transfer before anything is sent.
func printNetworkState(ctx context.Context, w io.Writer, c *chain.Client, st config.Settings, asset, native transfer.Asset) {
	ns, err := c.State(ctx)
	if err != nil {
		fmt.Fprintln(w, "[net] state error:", err)
		return
	}
	fmt.Fprintf(w, "[net] chain %s, head %s\n", ns.ChainID, ns.Head)
	if ns.BaseFee != nil {
		fmt.Fprintf(w, "[net] baseFee(now): %s gwei, tip: %s gwei\n", formatGwei(ns.BaseFee), formatGwei(ns.Tip))
	} else {
		fmt.Fprintf(w, "[net] legacy gas pricing, tip floor: %s gwei\n", formatGwei(ns.Tip))
	}
	fmt.Fprintf(w, "[net] nonce latest=%d pending=%d\n", ns.LatestNonce, ns.PendingNonce)
	if ns.PendingNonce > ns.LatestNonce {
		fmt.Fprintf(w, "[!] %d transaction(s) from this account still pending\n", ns.PendingNonce-ns.LatestNonce)
	}

	if stats, err := c.FeeHistoryStats(ctx, netcheckBlocks, []float64{50, 95}); err == nil {
		fmt.Fprintf(w, "[net] reward stats last %d blocks:\n", netcheckBlocks)
		for _, p := range []float64{50, 95} {
			s := stats[p]
			fmt.Fprintf(w, "  p%-2.0f min/avg/max: %s / %s / %s gwei\n", p, formatGwei(s.Min), formatGwei(s.Avg), formatGwei(s.Max))
		}
	}

	if ns.BaseFee == nil {
		fmt.Fprintf(w, "[net] native balance %s\n", formatAsset(ns.NativeBal, native))
		return
	}
	gas := int64(21_000)
	if !asset.Native {
		gas = 90_000
	}
	fee := new(big.Int).Add(new(big.Int).Mul(ns.BaseFee, big.NewInt(st.BasefeeMul)), ns.Tip)
	cost := new(big.Int).Mul(big.NewInt(gas), fee)
	fmt.Fprintf(w, "[net] gas per transfer ≈%d, max cost %s, native balance %s\n", gas, formatAsset(cost, native), formatAsset(ns.NativeBal, native))
}
