package transfer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Asset describes what is being moved. Native == (Contract == nil).
type Asset struct {
	Symbol          string
	Decimals        int
	MinTransferUnit *big.Int
	Native          bool
	Contract        *common.Address
}

func NativeAsset(symbol string, decimals int) Asset {
	return Asset{Symbol: symbol, Decimals: decimals, MinTransferUnit: big.NewInt(1), Native: true}
}

func TokenAsset(symbol string, decimals int, contract common.Address) Asset {
	c := contract
	return Asset{Symbol: symbol, Decimals: decimals, MinTransferUnit: big.NewInt(1), Contract: &c}
}

func (a Asset) Validate() error {
	if a.Decimals < 0 {
		return fmt.Errorf("asset %s: negative decimals %d", a.Symbol, a.Decimals)
	}
	if a.MinTransferUnit == nil || a.MinTransferUnit.Sign() <= 0 {
		return fmt.Errorf("asset %s: min transfer unit must be positive", a.Symbol)
	}
	if a.Native != (a.Contract == nil) {
		return fmt.Errorf("asset %s: native=%v but contract=%v", a.Symbol, a.Native, a.Contract)
	}
	return nil
}

func (a Asset) String() string {
	if a.Native {
		return a.Symbol + " (native)"
	}
	return a.Symbol + " @ " + a.Contract.Hex()
}

// Account is the single sending account. Signing stays with the Network.
type Account struct {
	Address common.Address
}

// Goal tracks cumulative progress toward Target in fixed Chunk steps.
type Goal struct {
	Target      *big.Int
	Transferred *big.Int
	Chunk       *big.Int
}

func NewGoal(target, chunk *big.Int) (*Goal, error) {
	if chunk == nil || chunk.Sign() <= 0 {
		return nil, errors.New("chunk amount must be > 0")
	}
	if target == nil || target.Sign() <= 0 {
		return nil, errors.New("target amount must be > 0")
	}
	return &Goal{
		Target:      new(big.Int).Set(target),
		Transferred: new(big.Int),
		Chunk:       new(big.Int).Set(chunk),
	}, nil
}

func (g *Goal) Done() bool { return g.Transferred.Cmp(g.Target) >= 0 }

// Remaining is never negative.
func (g *Goal) Remaining() *big.Int {
	r := new(big.Int).Sub(g.Target, g.Transferred)
	if r.Sign() < 0 {
		return new(big.Int)
	}
	return r
}

// BatchSize is min(floor(balance/chunk), ceil(remaining/chunk)).
func (g *Goal) BatchSize(balance *big.Int) *big.Int {
	byFunds := new(big.Int).Quo(balance, g.Chunk)
	rem := g.Remaining()
	byGoal, mod := new(big.Int).QuoRem(rem, g.Chunk, new(big.Int))
	if mod.Sign() > 0 {
		byGoal.Add(byGoal, big.NewInt(1))
	}
	if byFunds.Cmp(byGoal) < 0 {
		return byFunds
	}
	return byGoal
}

func (g *Goal) record() { g.Transferred.Add(g.Transferred, g.Chunk) }

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSequenceConflict
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSequenceConflict:
		return "sequence_conflict"
	case OutcomeFailure:
		return "failure"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is the classified result of one submission.
type Outcome struct {
	Kind    OutcomeKind
	TxHash  common.Hash
	Message string
}
