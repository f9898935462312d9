package transfer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Sequencer hands out the account's next nonce as the node sees it now.
// Nothing is cached: conflict recovery depends on re-reading it.
type Sequencer struct {
	net Network
}

func NewSequencer(net Network) *Sequencer { return &Sequencer{net: net} }

func (s *Sequencer) Next(ctx context.Context, addr common.Address) (uint64, error) {
	n, err := s.net.Nonce(ctx, addr)
	if err != nil {
		return 0, &QueryError{Op: "nonce", Addr: addr, Err: err}
	}
	return n, nil
}
