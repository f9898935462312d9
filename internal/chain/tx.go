package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ligun0805/auto-transfer/internal/transfer"
)

const (
	nativeTransferGas  = uint64(21_000)
	fallbackTokenGas   = uint64(90_000)
	gasHeadroomPercent = 20
)

// Build EIP-1559 transaction.
func buildDynamicTx(chain *big.Int, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, tip, feeCap *big.Int, data []byte) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chain,
		Nonce:     nonce,
		Gas:       gasLimit,
		GasTipCap: new(big.Int).Set(tip),
		GasFeeCap: new(big.Int).Set(feeCap),
		To:        to,
		Value:     new(big.Int).Set(value),
		Data:      data,
	})
}

func buildLegacyTx(nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		Gas:      gasLimit,
		GasPrice: new(big.Int).Set(gasPrice),
		To:       to,
		Value:    new(big.Int).Set(value),
		Data:     data,
	})
}

// Sign transaction with latest signer for given chain ID.
func signTx(tx *types.Transaction, chain *big.Int, prv *ecdsa.PrivateKey) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chain)
	return types.SignTx(tx, signer, prv)
}

// nativeGas is 21000 for plain accounts; contract recipients get an estimate.
func (c *Client) nativeGas(ctx context.Context, to common.Address, amount *big.Int) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	code, err := c.ec.CodeAt(ctx, to, nil)
	if err != nil {
		c.logger.Debug("eth_getCode failed, assuming EOA", "to", to.Hex(), "err", err)
		return nativeTransferGas, nil
	}
	if len(code) == 0 {
		return nativeTransferGas, nil
	}
	return c.estimate(ctx, ethereum.CallMsg{From: c.from, To: &to, Value: amount}, nativeTransferGas)
}

// estimate adds headroom to eth_estimateGas. A revert is returned so the
// caller does not broadcast a transaction known to fail; other errors
// degrade to fallback.
func (c *Client) estimate(ctx context.Context, msg ethereum.CallMsg, fallback uint64) (uint64, error) {
	g, err := c.estimateGasWithRetry(ctx, msg)
	if err != nil {
		if isRevert(err) {
			return 0, err
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		c.logger.Warn("gas estimate failed, using fallback", "gas", fallback, "err", err)
		return fallback, nil
	}
	return g + g*gasHeadroomPercent/100, nil
}

// SendNative signs and submits a value transfer with the given nonce.
func (c *Client) SendNative(ctx context.Context, to common.Address, amount *big.Int, nonce uint64) (common.Hash, error) {
	gas, err := c.nativeGas(ctx, to, amount)
	if err != nil {
		return common.Hash{}, classifySendError(err)
	}
	return c.send(ctx, &to, amount, nil, gas, nonce)
}

// SendToken signs and submits transfer(to, amount) on contract.
func (c *Client) SendToken(ctx context.Context, contract, to common.Address, amount *big.Int, nonce uint64) (common.Hash, error) {
	data, err := EncodeERC20Transfer(to, amount)
	if err != nil {
		return common.Hash{}, &transfer.RejectionError{Code: transfer.RejectOther, Message: fmt.Sprintf("encode transfer: %v", err)}
	}
	gas, err := c.estimate(ctx, ethereum.CallMsg{From: c.from, To: &contract, Data: data}, fallbackTokenGas)
	if err != nil {
		return common.Hash{}, classifySendError(err)
	}
	return c.send(ctx, &contract, big.NewInt(0), data, gas, nonce)
}

func (c *Client) send(ctx context.Context, to *common.Address, value *big.Int, data []byte, gas, nonce uint64) (common.Hash, error) {
	fees, err := c.quoteFees(ctx)
	if err != nil {
		return common.Hash{}, classifySendError(err)
	}
	var tx *types.Transaction
	if fees.dynamic {
		tx = buildDynamicTx(c.chainID, nonce, to, value, gas, fees.tip, fees.feeCap, data)
	} else {
		tx = buildLegacyTx(nonce, to, value, gas, fees.gasPrice, data)
	}
	signed, err := signTx(tx, c.chainID, c.key)
	if err != nil {
		return common.Hash{}, &transfer.RejectionError{Code: transfer.RejectOther, Message: fmt.Sprintf("sign: %v", err)}
	}
	if err := c.wait(ctx); err != nil {
		return common.Hash{}, classifySendError(err)
	}
	if err := c.ec.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, classifySendError(err)
	}
	c.logger.Debug("submitted", "tx", signed.Hash().Hex(), "nonce", nonce, "gas", gas)
	return signed.Hash(), nil
}
