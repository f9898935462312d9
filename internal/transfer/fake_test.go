package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeNetwork is a scripted Network. Balances and send results are consumed
// in order; once a script runs out the last entry (or the default) repeats.
type fakeNetwork struct {
	balances     []*big.Int
	balanceErr   error
	balanceErrAt int // fail on this balance call (1-based), 0 = every call

	nonce    uint64
	nonceErr error

	sendResults []error

	balanceCalls int
	nonceCalls   int
	sends        []sentTx
	receipts     int
}

type sentTx struct {
	native   bool
	contract common.Address
	to       common.Address
	amount   *big.Int
	nonce    uint64
}

func (f *fakeNetwork) Balance(ctx context.Context, addr common.Address, asset Asset) (*big.Int, error) {
	f.balanceCalls++
	if f.balanceErr != nil && (f.balanceErrAt == 0 || f.balanceErrAt == f.balanceCalls) {
		return nil, f.balanceErr
	}
	if len(f.balances) == 0 {
		return unlimited(), nil
	}
	i := f.balanceCalls - 1
	if i >= len(f.balances) {
		i = len(f.balances) - 1
	}
	return new(big.Int).Set(f.balances[i]), nil
}

func (f *fakeNetwork) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	f.nonceCalls++
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return f.nonce, nil
}

func (f *fakeNetwork) SendNative(ctx context.Context, to common.Address, amount *big.Int, nonce uint64) (common.Hash, error) {
	return f.send(sentTx{native: true, to: to, amount: new(big.Int).Set(amount), nonce: nonce})
}

func (f *fakeNetwork) SendToken(ctx context.Context, contract, to common.Address, amount *big.Int, nonce uint64) (common.Hash, error) {
	return f.send(sentTx{contract: contract, to: to, amount: new(big.Int).Set(amount), nonce: nonce})
}

func (f *fakeNetwork) send(tx sentTx) (common.Hash, error) {
	f.sends = append(f.sends, tx)
	i := len(f.sends) - 1
	if i < len(f.sendResults) && f.sendResults[i] != nil {
		return common.Hash{}, f.sendResults[i]
	}
	f.nonce++
	return common.BigToHash(big.NewInt(int64(len(f.sends)))), nil
}

// confirmingNetwork adds receipts on top of fakeNetwork.
type confirmingNetwork struct {
	*fakeNetwork
	receiptErr error
}

func (c *confirmingNetwork) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	c.receipts++
	if c.receiptErr != nil {
		return nil, c.receiptErr
	}
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusSuccessful}, nil
}

var (
	errConflict = &RejectionError{Code: RejectSequenceConflict, Message: "nonce too low"}
	errRevert   = &RejectionError{Code: RejectOther, Message: "execution reverted"}
	errRPCDown  = errors.New("dial tcp: connection refused")
)

func unlimited() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), 200)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(count *int) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*count++
		return ctx.Err()
	}
}

var (
	sender    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipient = common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
)
