package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const DefaultMaxAttempts = 3

type State int

const (
	StateAwaitingFunds State = iota
	StateSubmitting
	StateSucceeded
	StateRetryingAfterConflict
	StateChunkAbandoned
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingFunds:
		return "awaiting_funds"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateRetryingAfterConflict:
		return "retrying_after_conflict"
	case StateChunkAbandoned:
		return "chunk_abandoned"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Hooks let the CLI print status lines. All are optional.
type Hooks struct {
	OnWait     func(balance, required *big.Int, wait time.Duration)
	OnBatch    func(balance, chunks *big.Int)
	OnSuccess  func(hash common.Hash, transferred *big.Int)
	OnConflict func(attempt int, nonce uint64, reason string)
	OnAbandon  func(attempts int, reason string)
	OnReceipt  func(rcpt *types.Receipt)
	OnDone     func(sum Summary)
}

type Params struct {
	RunID       string
	Account     Account
	Asset       Asset
	Recipient   common.Address
	MaxAttempts int
	Interval    time.Duration
	// WaitReceipt asks a Confirmer network for a receipt of every
	// successful transfer. Display only; accounting never depends on it.
	WaitReceipt bool

	Logger   *slog.Logger
	Recorder Recorder
	Hooks    Hooks
}

type Summary struct {
	RunID        string
	Submissions  int
	Succeeded    int
	Abandoned    int
	Transferred  *big.Int
	FinalBalance *big.Int
	TxHashes     []common.Hash
}

// Controller drives a Goal from zero to its target, one chunk at a time.
type Controller struct {
	net    Network
	p      Params
	gate   *Gate
	seq    *Sequencer
	exec   *Executor
	logger *slog.Logger
	rec    Recorder
	state  State
}

func NewController(net Network, p Params) (*Controller, error) {
	if err := p.Asset.Validate(); err != nil {
		return nil, err
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Recorder == nil {
		p.Recorder = nopRecorder{}
	}
	logger := p.Logger.With("run_id", p.RunID, "asset", p.Asset.Symbol)
	gate := NewGate(net, p.Interval, logger)
	gate.rec = p.Recorder
	gate.OnWait = p.Hooks.OnWait
	return &Controller{
		net:    net,
		p:      p,
		gate:   gate,
		seq:    NewSequencer(net),
		exec:   NewExecutor(net, p.Asset),
		logger: logger,
		rec:    p.Recorder,
	}, nil
}

// Run returns once goal is met, or with the first *QueryError (or context
// error). Failed chunks never end the run. The summary is valid in both cases.
func (c *Controller) Run(ctx context.Context, goal *Goal) (Summary, error) {
	sum := Summary{RunID: c.p.RunID, Transferred: goal.Transferred}
	addr := c.p.Account.Address

	for !goal.Done() {
		c.setState(StateAwaitingFunds)
		bal, err := c.gate.Await(ctx, addr, c.p.Asset, goal.Chunk)
		if err != nil {
			return sum, err
		}
		n := goal.BatchSize(bal)
		c.logger.Info("batch planned", "balance", bal.String(), "chunks", n.String(),
			"transferred", goal.Transferred.String(), "target", goal.Target.String())
		if c.p.Hooks.OnBatch != nil {
			c.p.Hooks.OnBatch(bal, n)
		}
		for i := new(big.Int); i.Cmp(n) < 0; i.Add(i, big.NewInt(1)) {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if err := c.sendChunk(ctx, goal, &sum); err != nil {
				return sum, err
			}
		}
	}

	c.setState(StateDone)
	bal, err := c.net.Balance(ctx, addr, c.p.Asset)
	if err != nil {
		return sum, &QueryError{Op: "balance", Addr: addr, Err: err}
	}
	sum.FinalBalance = bal
	c.logger.Info("goal reached", "transferred", goal.Transferred.String(),
		"succeeded", sum.Succeeded, "abandoned", sum.Abandoned, "balance", bal.String())
	if c.p.Hooks.OnDone != nil {
		c.p.Hooks.OnDone(sum)
	}
	return sum, nil
}

// sendChunk makes up to MaxAttempts submissions for one chunk. Only a
// failed nonce read is returned as an error.
func (c *Controller) sendChunk(ctx context.Context, goal *Goal, sum *Summary) error {
	var reason string
	for attempt := 1; attempt <= c.p.MaxAttempts; attempt++ {
		c.setState(StateSubmitting)
		nonce, err := c.seq.Next(ctx, c.p.Account.Address)
		if err != nil {
			return err
		}
		sum.Submissions++
		out := c.exec.Attempt(ctx, c.p.Recipient, goal.Chunk, nonce)
		c.rec.ObserveAttempt(out.Kind.String())

		switch out.Kind {
		case OutcomeSuccess:
			c.setState(StateSucceeded)
			goal.record()
			sum.Succeeded++
			sum.TxHashes = append(sum.TxHashes, out.TxHash)
			c.rec.ObserveChunk("sent")
			c.rec.SetTransferred(goal.Transferred)
			c.logger.Info("transfer sent", "tx", out.TxHash.Hex(), "nonce", nonce,
				"attempt", attempt, "transferred", goal.Transferred.String())
			if c.p.Hooks.OnSuccess != nil {
				c.p.Hooks.OnSuccess(out.TxHash, goal.Transferred)
			}
			c.confirm(ctx, out.TxHash)
			return nil
		case OutcomeSequenceConflict:
			c.setState(StateRetryingAfterConflict)
			reason = "sequence conflict: " + out.Message
			c.logger.Info("nonce conflict, refetching", "nonce", nonce, "attempt", attempt, "err", out.Message)
			if c.p.Hooks.OnConflict != nil {
				c.p.Hooks.OnConflict(attempt, nonce, out.Message)
			}
		default:
			c.abandon(sum, attempt, out.Message)
			return nil
		}
	}
	c.abandon(sum, c.p.MaxAttempts, fmt.Sprintf("gave up after %d attempts (%s)", c.p.MaxAttempts, reason))
	return nil
}

func (c *Controller) abandon(sum *Summary, attempts int, reason string) {
	c.setState(StateChunkAbandoned)
	sum.Abandoned++
	c.rec.ObserveChunk("abandoned")
	c.logger.Warn("chunk abandoned", "attempts", attempts, "reason", reason)
	if c.p.Hooks.OnAbandon != nil {
		c.p.Hooks.OnAbandon(attempts, reason)
	}
}

func (c *Controller) confirm(ctx context.Context, hash common.Hash) {
	if !c.p.WaitReceipt {
		return
	}
	cf, ok := c.net.(Confirmer)
	if !ok {
		return
	}
	rcpt, err := cf.WaitReceipt(ctx, hash)
	if err != nil {
		c.logger.Warn("receipt unavailable", "tx", hash.Hex(), "err", err)
		return
	}
	if c.p.Hooks.OnReceipt != nil {
		c.p.Hooks.OnReceipt(rcpt)
	}
}

func (c *Controller) setState(s State) {
	if c.state != s {
		c.logger.Debug("state", "from", c.state.String(), "to", s.String())
	}
	c.state = s
}
