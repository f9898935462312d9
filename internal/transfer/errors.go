package transfer

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// QueryError is a failed balance or nonce read. It always ends the run.
type QueryError struct {
	Op   string
	Addr common.Address
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query for %s failed: %v", e.Op, e.Addr.Hex(), e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

type RejectionCode int

const (
	RejectOther RejectionCode = iota
	// RejectSequenceConflict: nonce already used or below the account's next nonce.
	RejectSequenceConflict
)

func (c RejectionCode) String() string {
	if c == RejectSequenceConflict {
		return "sequence_conflict"
	}
	return "other"
}

// RejectionError is how a Network reports a refused submission.
type RejectionError struct {
	Code    RejectionCode
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected (%s): %s", e.Code, e.Message)
}

func IsSequenceConflict(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej) && rej.Code == RejectSequenceConflict
}
