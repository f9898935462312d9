// Package chain is the go-ethereum backed implementation of transfer.Network:
// balances, nonces, fee quotes, signing and raw transaction submission.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/ligun0805/auto-transfer/internal/transfer"
)

var _ transfer.Network = (*Client)(nil)
var _ transfer.Confirmer = (*Client)(nil)

type Options struct {
	// ChainID skips eth_chainId when set.
	ChainID *big.Int
	// TipGwei is the lowest priority fee used, even if the node suggests less.
	TipGwei    int64
	BaseFeeMul int64
	// RateLimit caps outbound RPC requests per second; <= 0 means unlimited.
	RateLimit      float64
	Timeout        time.Duration
	ReceiptPoll    time.Duration
	ReceiptTimeout time.Duration
}

func (o *Options) setDefaults() {
	if o.TipGwei < 0 {
		o.TipGwei = 0
	}
	if o.BaseFeeMul <= 0 {
		o.BaseFeeMul = 2
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.ReceiptPoll <= 0 {
		o.ReceiptPoll = 2 * time.Second
	}
	if o.ReceiptTimeout <= 0 {
		o.ReceiptTimeout = 2 * time.Minute
	}
}

// Client signs with a single key and talks to a single RPC endpoint.
type Client struct {
	ec      *ethclient.Client
	rc      *rpc.Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// Dial connects to rpcURL and loads the signing key.
func Dial(ctx context.Context, rpcURL, privateKeyHex string, opts Options, logger *slog.Logger) (*Client, error) {
	opts.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	key, err := hexToECDSAPriv(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	rc, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(newHTTPClient(opts.Timeout)))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	c := &Client{
		ec:      ethclient.NewClient(rc),
		rc:      rc,
		key:     key,
		from:    gethcrypto.PubkeyToAddress(key.PublicKey),
		limiter: newLimiter(opts.RateLimit),
		opts:    opts,
		logger:  logger.With("component", "chain"),
	}
	if opts.ChainID != nil && opts.ChainID.Sign() > 0 {
		c.chainID = new(big.Int).Set(opts.ChainID)
	} else {
		if err := c.wait(ctx); err != nil {
			rc.Close()
			return nil, err
		}
		id, err := c.ec.ChainID(ctx)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("chain id: %w", err)
		}
		c.chainID = id
	}
	c.logger.Debug("connected", "rpc", rpcURL, "chain_id", c.chainID.String(), "from", c.from.Hex())
	return c, nil
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *Client) wait(ctx context.Context) error { return c.limiter.Wait(ctx) }

func (c *Client) Address() common.Address { return c.from }

func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

func (c *Client) Close() { c.rc.Close() }
