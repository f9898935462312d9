package transfer

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Executor submits one signed transfer and classifies the result.
type Executor struct {
	net   Network
	asset Asset
}

func NewExecutor(net Network, asset Asset) *Executor {
	return &Executor{net: net, asset: asset}
}

func (e *Executor) Attempt(ctx context.Context, to common.Address, amount *big.Int, nonce uint64) Outcome {
	var (
		hash common.Hash
		err  error
	)
	if e.asset.Native {
		hash, err = e.net.SendNative(ctx, to, amount, nonce)
	} else {
		hash, err = e.net.SendToken(ctx, *e.asset.Contract, to, amount, nonce)
	}
	if err == nil {
		return Outcome{Kind: OutcomeSuccess, TxHash: hash}
	}
	if IsSequenceConflict(err) {
		return Outcome{Kind: OutcomeSequenceConflict, Message: rejectionMessage(err)}
	}
	return Outcome{Kind: OutcomeFailure, Message: rejectionMessage(err)}
}

func rejectionMessage(err error) string {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Message
	}
	return err.Error()
}
