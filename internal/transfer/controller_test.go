package transfer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, net Network, asset Asset, hooks Hooks) (*Controller, *int) {
	t.Helper()
	c, err := NewController(net, Params{
		RunID:     "test",
		Account:   Account{Address: sender},
		Asset:     asset,
		Recipient: recipient,
		Logger:    quietLogger(),
		Hooks:     hooks,
	})
	require.NoError(t, err)
	sleeps := 0
	c.gate.sleep = noSleep(&sleeps)
	return c, &sleeps
}

func mustGoal(t *testing.T, target, chunk int64) *Goal {
	t.Helper()
	g, err := NewGoal(big.NewInt(target), big.NewInt(chunk))
	require.NoError(t, err)
	return g
}

func TestRun_SubmitsCeilTargetOverChunk(t *testing.T) {
	tests := []struct {
		target, chunk int64
		submissions   int
	}{
		{100, 100, 1},
		{100, 30, 4},
		{1, 1000, 1},
		{999, 1, 999},
		{1000, 250, 4},
	}
	for _, tt := range tests {
		net := &fakeNetwork{}
		c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{})
		goal := mustGoal(t, tt.target, tt.chunk)

		sum, err := c.Run(context.Background(), goal)
		require.NoError(t, err)

		assert.Len(t, net.sends, tt.submissions, "target=%d chunk=%d", tt.target, tt.chunk)
		want := big.NewInt(tt.chunk * int64(tt.submissions))
		assert.Equal(t, 0, want.Cmp(goal.Transferred), "transferred %s want %s", goal.Transferred, want)
		assert.True(t, goal.Done())
		assert.Equal(t, tt.submissions, sum.Succeeded)
		assert.Equal(t, StateDone, c.state)
	}
}

func TestRun_OvershootScenario(t *testing.T) {
	net := &fakeNetwork{}
	var done Summary
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{OnDone: func(s Summary) { done = s }})
	goal := mustGoal(t, 500, 200)

	sum, err := c.Run(context.Background(), goal)
	require.NoError(t, err)

	require.Len(t, net.sends, 3)
	for _, tx := range net.sends {
		assert.Equal(t, "200", tx.amount.String())
		assert.True(t, tx.native)
		assert.Equal(t, recipient, tx.to)
	}
	assert.Equal(t, "600", goal.Transferred.String())
	assert.Equal(t, 3, sum.Submissions)
	assert.Len(t, sum.TxHashes, 3)
	require.NotNil(t, sum.FinalBalance)
	assert.Equal(t, 3, done.Succeeded)
}

func TestRun_ConflictTwiceThenSuccess(t *testing.T) {
	net := &fakeNetwork{nonce: 7, sendResults: []error{errConflict, errConflict, nil}}
	var conflicts []int
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{
		OnConflict: func(attempt int, nonce uint64, reason string) { conflicts = append(conflicts, attempt) },
	})
	goal := mustGoal(t, 100, 100)

	sum, err := c.Run(context.Background(), goal)
	require.NoError(t, err)

	assert.Equal(t, 3, net.nonceCalls)
	assert.Equal(t, []int{1, 2}, conflicts)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 0, sum.Abandoned)
	assert.Equal(t, 3, sum.Submissions)
	assert.Equal(t, "100", goal.Transferred.String())
}

func TestRun_ConflictExhaustedAbandonsChunkOnly(t *testing.T) {
	net := &fakeNetwork{sendResults: []error{errConflict, errConflict, errConflict}}
	var atAbandon []string
	goal := mustGoal(t, 200, 100)
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{
		OnAbandon: func(attempts int, reason string) {
			assert.Equal(t, 3, attempts)
			atAbandon = append(atAbandon, goal.Transferred.String())
		},
	})

	sum, err := c.Run(context.Background(), goal)
	require.NoError(t, err)

	assert.Equal(t, []string{"0"}, atAbandon)
	assert.Equal(t, 1, sum.Abandoned)
	assert.Equal(t, 2, sum.Succeeded)
	// 3 conflicting attempts, then the rest of the batch, then one more batch.
	assert.Len(t, net.sends, 5)
	assert.Equal(t, "200", goal.Transferred.String())
}

func TestRun_MaxAttemptsOverride(t *testing.T) {
	net := &fakeNetwork{sendResults: []error{errConflict, errConflict, errConflict, errConflict}}
	c, err := NewController(net, Params{
		RunID:       "test",
		Account:     Account{Address: sender},
		Asset:       NativeAsset("ETH", 18),
		Recipient:   recipient,
		MaxAttempts: 5,
		Logger:      quietLogger(),
	})
	require.NoError(t, err)
	c.gate.sleep = noSleep(new(int))

	sum, err := c.Run(context.Background(), mustGoal(t, 100, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Zero(t, sum.Abandoned)
	assert.Len(t, net.sends, 5)
	assert.Equal(t, 5, net.nonceCalls)
}

func TestRun_FailureIsNotRetried(t *testing.T) {
	net := &fakeNetwork{sendResults: []error{errRevert, errRPCDown}}
	var reasons []string
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{
		OnAbandon: func(attempts int, reason string) {
			assert.Equal(t, 1, attempts)
			reasons = append(reasons, reason)
		},
	})
	goal := mustGoal(t, 100, 100)

	sum, err := c.Run(context.Background(), goal)
	require.NoError(t, err)

	assert.Equal(t, []string{"execution reverted", "dial tcp: connection refused"}, reasons)
	assert.Equal(t, 2, sum.Abandoned)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Len(t, net.sends, 3)
}

func TestRun_BatchBoundedByFunds(t *testing.T) {
	net := &fakeNetwork{balances: []*big.Int{big.NewInt(250), big.NewInt(1000)}}
	var batches []string
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{
		OnBatch: func(balance, chunks *big.Int) { batches = append(batches, chunks.String()) },
	})
	goal := mustGoal(t, 500, 100)

	_, err := c.Run(context.Background(), goal)
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "3"}, batches)
	assert.Len(t, net.sends, 5)
	assert.Equal(t, "500", goal.Transferred.String())
}

func TestRun_WaitsForFunds(t *testing.T) {
	net := &fakeNetwork{balances: []*big.Int{big.NewInt(0), big.NewInt(99), big.NewInt(100)}}
	waits := 0
	c, sleeps := newTestController(t, net, NativeAsset("ETH", 18), Hooks{
		OnWait: func(balance, required *big.Int, wait time.Duration) {
			waits++
			assert.Equal(t, DefaultPollInterval, wait)
		},
	})
	goal := mustGoal(t, 100, 100)

	_, err := c.Run(context.Background(), goal)
	require.NoError(t, err)

	assert.Equal(t, 2, *sleeps)
	assert.Equal(t, 2, waits)
	assert.Len(t, net.sends, 1)
}

func TestRun_BalanceQueryErrorAbortsAndKeepsProgress(t *testing.T) {
	net := &fakeNetwork{
		balances:     []*big.Int{big.NewInt(100)},
		balanceErr:   errRPCDown,
		balanceErrAt: 2,
	}
	c, sleeps := newTestController(t, net, NativeAsset("ETH", 18), Hooks{})
	goal := mustGoal(t, 300, 100)

	sum, err := c.Run(context.Background(), goal)
	require.Error(t, err)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "balance", qe.Op)
	assert.ErrorIs(t, err, errRPCDown)
	assert.Equal(t, "100", goal.Transferred.String())
	assert.Equal(t, "100", sum.Transferred.String())
	assert.Zero(t, *sleeps)
	assert.Equal(t, StateAwaitingFunds, c.state)
}

func TestRun_NonceQueryErrorAborts(t *testing.T) {
	net := &fakeNetwork{nonceErr: errRPCDown}
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{})
	goal := mustGoal(t, 300, 100)

	_, err := c.Run(context.Background(), goal)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "nonce", qe.Op)
	assert.Empty(t, net.sends)
	assert.Equal(t, "0", goal.Transferred.String())
}

func TestRun_FinalBalanceQueryError(t *testing.T) {
	net := &fakeNetwork{balances: []*big.Int{big.NewInt(100)}, balanceErr: errRPCDown, balanceErrAt: 2}
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{})
	goal := mustGoal(t, 100, 100)

	_, err := c.Run(context.Background(), goal)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.True(t, goal.Done())
}

func TestRun_TokenTransfersUseContract(t *testing.T) {
	net := &fakeNetwork{}
	c, _ := newTestController(t, net, TokenAsset("USDT", 6, tokenAddr), Hooks{})
	goal := mustGoal(t, 2_000_000, 1_000_000)

	_, err := c.Run(context.Background(), goal)
	require.NoError(t, err)

	require.Len(t, net.sends, 2)
	for _, tx := range net.sends {
		assert.False(t, tx.native)
		assert.Equal(t, tokenAddr, tx.contract)
		assert.Equal(t, recipient, tx.to)
	}
}

func TestRun_ReceiptsAreDisplayOnly(t *testing.T) {
	net := &confirmingNetwork{fakeNetwork: &fakeNetwork{}, receiptErr: errors.New("timeout")}
	c, err := NewController(net, Params{
		Account:     Account{Address: sender},
		Asset:       NativeAsset("ETH", 18),
		Recipient:   recipient,
		WaitReceipt: true,
		Logger:      quietLogger(),
	})
	require.NoError(t, err)
	goal := mustGoal(t, 300, 100)

	sum, err := c.Run(context.Background(), goal)
	require.NoError(t, err)
	assert.Equal(t, 3, net.receipts)
	assert.Equal(t, 3, sum.Succeeded)

	var got []common.Hash
	net2 := &confirmingNetwork{fakeNetwork: &fakeNetwork{}}
	c2, err := NewController(net2, Params{
		Account:     Account{Address: sender},
		Asset:       NativeAsset("ETH", 18),
		Recipient:   recipient,
		WaitReceipt: true,
		Logger:      quietLogger(),
		Hooks:       Hooks{OnReceipt: func(r *types.Receipt) { got = append(got, r.TxHash) }},
	})
	require.NoError(t, err)
	sum2, err := c2.Run(context.Background(), mustGoal(t, 100, 100))
	require.NoError(t, err)
	assert.Equal(t, sum2.TxHashes, got)
}

func TestRun_CancelWhileWaiting(t *testing.T) {
	net := &fakeNetwork{balances: []*big.Int{big.NewInt(0)}}
	c, _ := newTestController(t, net, NativeAsset("ETH", 18), Hooks{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Run(ctx, mustGoal(t, 100, 100))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, net.sends)
}

type countingRecorder struct {
	attempts map[string]int
	chunks   map[string]int
	waits    int
	last     string
}

func (r *countingRecorder) ObserveAttempt(o string) { r.attempts[o]++ }
func (r *countingRecorder) ObserveChunk(o string) { r.chunks[o]++ }
func (r *countingRecorder) ObserveWait() { r.waits++ }
func (r *countingRecorder) SetTransferred(v *big.Int) { r.last = v.String() }

func TestRun_RecordsMetrics(t *testing.T) {
	rec := &countingRecorder{attempts: map[string]int{}, chunks: map[string]int{}}
	net := &fakeNetwork{
		balances:    []*big.Int{big.NewInt(0), big.NewInt(1000)},
		sendResults: []error{errConflict, nil, errRevert},
	}
	c, err := NewController(net, Params{
		Account:   Account{Address: sender},
		Asset:     NativeAsset("ETH", 18),
		Recipient: recipient,
		Logger:    quietLogger(),
		Recorder:  rec,
	})
	require.NoError(t, err)
	sleeps := 0
	c.gate.sleep = noSleep(&sleeps)

	_, err = c.Run(context.Background(), mustGoal(t, 200, 100))
	require.NoError(t, err)

	assert.Equal(t, 1, rec.waits)
	assert.Equal(t, 1, rec.attempts["sequence_conflict"])
	assert.Equal(t, 1, rec.attempts["failure"])
	assert.Equal(t, 2, rec.attempts["success"])
	assert.Equal(t, 2, rec.chunks["sent"])
	assert.Equal(t, 1, rec.chunks["abandoned"])
	assert.Equal(t, "200", rec.last)
}

func TestNewController_RejectsInconsistentAsset(t *testing.T) {
	bad := NativeAsset("ETH", 18)
	c := tokenAddr
	bad.Contract = &c
	_, err := NewController(&fakeNetwork{}, Params{Asset: bad})
	assert.Error(t, err)
}
