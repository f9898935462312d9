package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ligun0805/auto-transfer/internal/transfer"
)

// Balance returns the spendable balance of asset held by addr.
func (c *Client) Balance(ctx context.Context, addr common.Address, asset transfer.Asset) (*big.Int, error) {
	if !asset.Native {
		if asset.Contract == nil {
			return nil, errors.New("token asset without contract")
		}
		return c.TokenBalance(ctx, *asset.Contract, addr)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.ec.BalanceAt(ctx, addr, nil)
}

// Nonce is the confirmed ("latest") transaction count of addr.
func (c *Client) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.ec.NonceAt(ctx, addr, nil)
}

func (c *Client) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.ec.PendingNonceAt(ctx, addr)
}

// WaitReceipt polls until the transaction is mined or ReceiptTimeout passes.
func (c *Client) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ReceiptTimeout)
	defer cancel()
	ticker := time.NewTicker(c.opts.ReceiptPoll)
	defer ticker.Stop()
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		r, err := c.ec.TransactionReceipt(ctx, hash)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// NetworkState is a point-in-time snapshot printed before a run.
type NetworkState struct {
	ChainID      *big.Int
	Head         *big.Int
	BaseFee      *big.Int // nil on legacy chains
	Tip          *big.Int
	LatestNonce  uint64
	PendingNonce uint64
	NativeBal    *big.Int
}

// State gathers the snapshot for the signing account.
func (c *Client) State(ctx context.Context) (NetworkState, error) {
	st := NetworkState{ChainID: c.ChainID()}
	baseFee, head, err := c.latestBaseFee(ctx)
	switch {
	case errors.Is(err, errNoBaseFee):
	case err != nil:
		return st, fmt.Errorf("head: %w", err)
	default:
		st.BaseFee = baseFee
	}
	st.Head = head
	st.Tip = c.suggestTip(ctx)
	if st.LatestNonce, err = c.Nonce(ctx, c.from); err != nil {
		return st, fmt.Errorf("nonce: %w", err)
	}
	if st.PendingNonce, err = c.PendingNonce(ctx, c.from); err != nil {
		return st, fmt.Errorf("pending nonce: %w", err)
	}
	if err := c.wait(ctx); err != nil {
		return st, err
	}
	if st.NativeBal, err = c.ec.BalanceAt(ctx, c.from, nil); err != nil {
		return st, fmt.Errorf("balance: %w", err)
	}
	return st, nil
}
