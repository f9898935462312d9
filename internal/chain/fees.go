package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

var errNoBaseFee = errors.New("no baseFee (pre-1559?)")

// feeQuote is either an EIP-1559 pair (tip, feeCap) or a legacy gasPrice.
type feeQuote struct {
	dynamic  bool
	tip      *big.Int
	feeCap   *big.Int
	gasPrice *big.Int
}

// Latest base fee and head number.
func (c *Client) latestBaseFee(ctx context.Context) (*big.Int, *big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, nil, err
	}
	h, err := c.ec.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	if h.BaseFee == nil {
		return nil, h.Number, errNoBaseFee
	}
	return new(big.Int).Set(h.BaseFee), new(big.Int).Set(h.Number), nil
}

// suggestTip asks the node for a priority fee and never goes below TipGwei.
func (c *Client) suggestTip(ctx context.Context) *big.Int {
	floor := gweiToWei(c.opts.TipGwei)
	if err := c.wait(ctx); err != nil {
		return floor
	}
	tip, err := c.ec.SuggestGasTipCap(ctx)
	if err != nil {
		c.logger.Debug("eth_maxPriorityFeePerGas failed, using floor", "err", err)
		return floor
	}
	return maxBig(tip, floor)
}

// quoteFees computes maxFee = baseFee*BaseFeeMul + tip, falling back to
// legacy gasPrice on chains without a base fee.
func (c *Client) quoteFees(ctx context.Context) (feeQuote, error) {
	baseFee, _, err := c.latestBaseFee(ctx)
	switch {
	case errors.Is(err, errNoBaseFee):
		if err := c.wait(ctx); err != nil {
			return feeQuote{}, err
		}
		gp, err := c.ec.SuggestGasPrice(ctx)
		if err != nil {
			return feeQuote{}, fmt.Errorf("gas price: %w", err)
		}
		return feeQuote{gasPrice: maxBig(gp, gweiToWei(c.opts.TipGwei))}, nil
	case err != nil:
		return feeQuote{}, fmt.Errorf("base fee: %w", err)
	}
	tip := c.suggestTip(ctx)
	return feeQuote{
		dynamic: true,
		tip:     tip,
		feeCap:  addBig(mulBig(baseFee, c.opts.BaseFeeMul), tip),
	}, nil
}

// RewardStats aggregates min/avg/max for a priority-fee percentile.
type RewardStats struct {
	Min *big.Int
	Avg *big.Int
	Max *big.Int
}

// FeeHistoryStats returns min/avg/max over last N blocks for given percentiles.
func (c *Client) FeeHistoryStats(ctx context.Context, blocks int, percentiles []float64) (map[float64]RewardStats, error) {
	if blocks <= 0 {
		blocks = 20
	}
	if len(percentiles) == 0 {
		percentiles = []float64{50, 95}
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	fh, err := c.ec.FeeHistory(ctx, uint64(blocks), nil, percentiles)
	if err != nil {
		return nil, err
	}
	if len(fh.Reward) == 0 {
		return nil, errors.New("feeHistory: empty reward")
	}
	res := make(map[float64]RewardStats, len(percentiles))
	for j, p := range percentiles {
		st := RewardStats{Avg: big.NewInt(0), Max: big.NewInt(0)}
		n := 0
		for _, row := range fh.Reward {
			if j >= len(row) || row[j] == nil {
				continue
			}
			v := row[j]
			if st.Min == nil || v.Cmp(st.Min) < 0 {
				st.Min = new(big.Int).Set(v)
			}
			if v.Cmp(st.Max) > 0 {
				st.Max = new(big.Int).Set(v)
			}
			st.Avg.Add(st.Avg, v)
			n++
		}
		if n > 0 {
			st.Avg.Div(st.Avg, big.NewInt(int64(n)))
		}
		if st.Min == nil {
			st.Min = big.NewInt(0)
		}
		res[p] = st
	}
	return res, nil
}
