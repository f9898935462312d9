package chain

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Parse hex ECDSA private key (with / without 0x).
func hexToECDSAPriv(s string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if len(h) == 0 {
		return nil, errors.New("empty private key")
	}
	return gethcrypto.HexToECDSA(h)
}

// AddressFromKey derives the sender address without dialing anything.
func AddressFromKey(privateKeyHex string) (string, error) {
	prv, err := hexToECDSAPriv(privateKeyHex)
	if err != nil {
		return "", err
	}
	return gethcrypto.PubkeyToAddress(prv.PublicKey).Hex(), nil
}

func gweiToWei(g int64) *big.Int {
	x := new(big.Int).SetInt64(g)
	return x.Mul(x, big.NewInt(1_000_000_000))
}

func mulBig(a *big.Int, m int64) *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(a, big.NewInt(m))
}

func addBig(a, b *big.Int) *big.Int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return new(big.Int).Add(a, b)
}

func maxBig(a, b *big.Int) *big.Int {
	if a == nil || (b != nil && b.Cmp(a) > 0) {
		return b
	}
	return a
}
