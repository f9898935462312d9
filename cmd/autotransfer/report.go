package main

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ligun0805/auto-transfer/internal/config"
	"github.com/ligun0805/auto-transfer/internal/transfer"
)

// reporter prints the operator-facing status lines of a run.
type reporter struct {
	out    io.Writer
	errOut io.Writer
	net    config.Network
	asset  transfer.Asset
	target *big.Int
}

func (r *reporter) hooks() transfer.Hooks {
	return transfer.Hooks{
		OnWait:     r.wait,
		OnBatch:    r.batch,
		OnSuccess:  r.success,
		OnConflict: r.conflict,
		OnAbandon:  r.abandon,
		OnReceipt:  r.receipt,
		OnDone:     r.done,
	}
}

func (r *reporter) wait(balance, required *big.Int, d time.Duration) {
	fmt.Fprintf(r.out, "[WAIT] balance %s is below %s, checking again in %s\n",
		formatAsset(balance, r.asset), formatAsset(required, r.asset), d)
}

func (r *reporter) batch(balance, chunks *big.Int) {
	fmt.Fprintf(r.out, "[i] balance %s, sending %s transfer(s)\n", formatAsset(balance, r.asset), chunks)
}

func (r *reporter) success(hash common.Hash, transferred *big.Int) {
	fmt.Fprintf(r.out, "[OK] sent, see %s (progress %s / %s)\n",
		r.net.TxURL(hash), formatAsset(transferred, r.asset), formatAsset(r.target, r.asset))
}

func (r *reporter) conflict(attempt int, nonce uint64, reason string) {
	fmt.Fprintf(r.out, "[RETRY] nonce %d is stale (attempt %d: %s), fetching the latest nonce\n", nonce, attempt, reason)
}

func (r *reporter) abandon(attempts int, reason string) {
	fmt.Fprintf(r.errOut, "[X] transfer failed after %d attempt(s): %s; continuing\n", attempts, reason)
}

func (r *reporter) receipt(rcpt *types.Receipt) {
	status := "ok"
	if rcpt.Status != types.ReceiptStatusSuccessful {
		status = "reverted"
	}
	fmt.Fprintf(r.out, "[i] mined %s in block %s: %s, gas used %d\n", rcpt.TxHash.Hex(), rcpt.BlockNumber, status, rcpt.GasUsed)
}

func (r *reporter) done(sum transfer.Summary) {
	fmt.Fprintf(r.out, "[i] done: %d submitted, %d succeeded, %d abandoned, transferred %s\n",
		sum.Submissions, sum.Succeeded, sum.Abandoned, formatAsset(sum.Transferred, r.asset))
	fmt.Fprintf(r.out, "[i] remaining balance: %s\n", formatAsset(sum.FinalBalance, r.asset))
}
