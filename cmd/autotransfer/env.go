package main

import (
	"fmt"
	"io"

	"github.com/ligun0805/auto-transfer/internal/config"
	"github.com/ligun0805/auto-transfer/internal/transfer"
)

func printConfig(w io.Writer, st config.Settings, n config.Network, from string, asset transfer.Asset, to string, goal *transfer.Goal) {
	fmt.Fprintln(w, "=== CONFIG ===")
	fmt.Fprintln(w, "Network           :", n.Name)
	fmt.Fprintln(w, "RPC_URL           :", n.RPCURL)
	fmt.Fprintln(w, "PRIVATE_KEY       :", maskHex(st.PrivateKeyHex))
	fmt.Fprintln(w, "  -> address      :", from)
	fmt.Fprintln(w, "Asset             :", asset)
	fmt.Fprintln(w, "Recipient         :", to)
	fmt.Fprintln(w, "Per transfer      :", formatAsset(goal.Chunk, asset))
	fmt.Fprintln(w, "Target            :", formatAsset(goal.Target, asset))
	fmt.Fprintln(w, "Poll interval     :", st.PollInterval)
	fmt.Fprintln(w, "Max attempts      :", st.MaxAttempts)
	fmt.Fprintln(w, "Tip floor (gwei)  :", st.TipGwei)
	fmt.Fprintln(w, "BaseFeeMul        :", st.BasefeeMul)
	fmt.Fprintln(w, "==============")
}
