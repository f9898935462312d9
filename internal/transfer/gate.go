package transfer

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const DefaultPollInterval = 5 * time.Second

// Gate blocks until an account can cover the next chunk.
type Gate struct {
	net      Network
	interval time.Duration
	logger   *slog.Logger
	rec      Recorder
	sleep    func(ctx context.Context, d time.Duration) error

	// OnWait is called before every delayed re-poll.
	OnWait func(balance, required *big.Int, wait time.Duration)
}

func NewGate(net Network, interval time.Duration, logger *slog.Logger) *Gate {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{net: net, interval: interval, logger: logger, rec: nopRecorder{}, sleep: sleepCtx}
}

// Await polls until the balance covers required and returns that balance.
// There is no retry cap: low funds are expected to be topped up from outside.
// A failed query is returned as *QueryError and is never treated as low funds.
func (g *Gate) Await(ctx context.Context, addr common.Address, asset Asset, required *big.Int) (*big.Int, error) {
	for {
		bal, err := g.net.Balance(ctx, addr, asset)
		if err != nil {
			return nil, &QueryError{Op: "balance", Addr: addr, Err: err}
		}
		if bal.Cmp(required) >= 0 {
			return bal, nil
		}
		g.rec.ObserveWait()
		g.logger.Info("insufficient balance, waiting",
			"balance", bal.String(), "required", required.String(), "wait", g.interval)
		if g.OnWait != nil {
			g.OnWait(bal, required, g.interval)
		}
		if err := g.sleep(ctx, g.interval); err != nil {
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
