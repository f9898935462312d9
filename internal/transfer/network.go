package transfer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Network is the JSON-RPC side of a run. Send* failures that the node
// refused should be *RejectionError so the caller can tell a stale nonce
// from everything else.
type Network interface {
	Balance(ctx context.Context, addr common.Address, asset Asset) (*big.Int, error)
	Nonce(ctx context.Context, addr common.Address) (uint64, error)
	SendNative(ctx context.Context, to common.Address, amount *big.Int, nonce uint64) (common.Hash, error)
	SendToken(ctx context.Context, contract, to common.Address, amount *big.Int, nonce uint64) (common.Hash, error)
}

// Confirmer is implemented by networks that can wait for a receipt.
type Confirmer interface {
	WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Recorder receives counters from the controller.
type Recorder interface {
	ObserveAttempt(outcome string)
	ObserveChunk(result string)
	ObserveWait()
	SetTransferred(v *big.Int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string) {}
func (nopRecorder) ObserveChunk(string) {}
func (nopRecorder) ObserveWait() {}
func (nopRecorder) SetTransferred(*big.Int) {}
