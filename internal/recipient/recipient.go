// Package recipient decides where transfers go: the configured fixed address
// or a freshly generated random one.
package recipient

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Kind int

const (
	Fixed Kind = iota + 1
	Random
)

func (k Kind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case Random:
		return "random"
	}
	return "unknown"
}

type Recipient struct {
	Address common.Address
	Kind    Kind
}

// Display is the form shown to the operator. Random addresses keep the
// lowercase rendering they were generated with.
func (r Recipient) Display() string {
	if r.Kind == Random {
		return "0x" + hex.EncodeToString(r.Address.Bytes())
	}
	return r.Address.Hex()
}

// Resolve never fails: an unrecognised choice falls back to fixed with a warning.
func Resolve(choice string, fixed common.Address, logger *slog.Logger) Recipient {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "", "1", "fixed":
		return Recipient{Address: fixed, Kind: Fixed}
	case "2", "random":
		return Recipient{Address: randomAddress(), Kind: Random}
	}
	logger.Warn("unknown recipient choice, using fixed address", "choice", choice, "address", fixed.Hex())
	return Recipient{Address: fixed, Kind: Fixed}
}

func randomAddress() common.Address {
	var b [common.AddressLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return common.BytesToAddress(b[:])
}
