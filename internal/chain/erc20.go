package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const erc20ABIJSON = `[
 {"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
 {"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
 {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
 {"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("erc20 abi: %v", err))
	}
	return a
}

// EncodeERC20Transfer builds transfer(to, amount) calldata.
func EncodeERC20Transfer(to common.Address, amount *big.Int) ([]byte, error) {
	return erc20ABI.Pack("transfer", to, amount)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

// callWithRetry performs eth_call with small exponential backoff.
func (c *Client) callWithRetry(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		ret, err := c.ec.CallContract(ctx, msg, nil)
		if err == nil {
			return ret, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return nil, lastErr
}

func (c *Client) estimateGasWithRetry(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return 0, err
		}
		g, err := c.ec.EstimateGas(ctx, msg)
		if err == nil {
			return g, nil
		}
		lastErr = err
		if isRevert(err) {
			return 0, err
		}
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(backoff):
			}
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return 0, lastErr
}

// TokenBalance reads balanceOf(owner). An empty result (no contract at
// token) is an error, not a zero balance.
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	out, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("balanceOf: empty result from %s (not a token contract?)", token.Hex())
	}
	vals, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	bal, ok := vals[0].(*big.Int)
	if !ok {
		return nil, errors.New("balanceOf: unexpected return type")
	}
	return bal, nil
}

func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (int, error) {
	data, _ := erc20ABI.Pack("decimals")
	out, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}
	if len(out) == 0 {
		return 0, errors.New("decimals: empty result")
	}
	return int(out[len(out)-1]), nil
}

// TokenSymbol supports both string and bytes32 symbol() returns.
func (c *Client) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	data, _ := erc20ABI.Pack("symbol")
	out, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return "", fmt.Errorf("symbol: %w", err)
	}
	if vals, err := erc20ABI.Unpack("symbol", out); err == nil {
		if s, ok := vals[0].(string); ok {
			return s, nil
		}
	}
	return strings.TrimRight(string(out), "\x00"), nil
}

type pauseCheck struct {
	sig     string
	enabled bool // true means a zero result is "paused"
}

// Pause flags seen in the wild; the first one the token answers wins.
var pauseChecks = []pauseCheck{
	{"paused()", false},
	{"isPaused()", false},
	{"transfersPaused()", false},
	{"tradingPaused()", false},
	{"transferEnabled()", true},
	{"tradingEnabled()", true},
}

func sel(sig string) []byte {
	return gethcrypto.Keccak256([]byte(sig))[:4]
}

// TokenPaused checks common pause flags. known is false when the token
// exposes none of them.
func (c *Client) TokenPaused(ctx context.Context, token common.Address) (known, paused bool, err error) {
	for _, p := range pauseChecks {
		if err := c.wait(ctx); err != nil {
			return false, false, err
		}
		res, e := c.ec.CallContract(ctx, ethereum.CallMsg{To: &token, Data: sel(p.sig)}, nil)
		if e != nil || len(res) == 0 {
			continue
		}
		b := res[len(res)-1]
		if p.enabled {
			return true, b == 0, nil
		}
		return true, b == 1, nil
	}
	return false, false, nil
}
