package chain

import (
	"errors"
	"strings"

	"github.com/ligun0805/auto-transfer/internal/transfer"
)

// Node messages meaning "this nonce is no longer usable". Matched
// case-insensitively against the submission error text.
var conflictMarkers = []string{
	"nonce too low",
	"nonce has already been used",
	"already known",
	"known transaction",
	"replacement transaction underpriced",
	"nonce_expired",
	"nonce expired",
	"invalid nonce",
	"tx nonce is lower",
}

// classifySendError maps a submission error onto the closed rejection set.
// This is the only place where node error text is inspected.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var re *transfer.RejectionError
	if errors.As(err, &re) {
		return re
	}
	msg := err.Error()
	ls := strings.ToLower(msg)
	for _, m := range conflictMarkers {
		if strings.Contains(ls, m) {
			return &transfer.RejectionError{Code: transfer.RejectSequenceConflict, Message: msg}
		}
	}
	return &transfer.RejectionError{Code: transfer.RejectOther, Message: friendlyReason(msg)}
}

func isRevert(err error) bool {
	if err == nil {
		return false
	}
	ls := strings.ToLower(err.Error())
	return strings.Contains(ls, "execution reverted") || strings.Contains(ls, "revert")
}

// friendlyReason normalizes common node and transport errors for the CLI.
func friendlyReason(s string) string {
	ls := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(ls, "insufficient funds for gas"):
		return "insufficient native balance for gas: " + s
	case strings.Contains(ls, "execution reverted"):
		return "transfer reverted: " + s
	case strings.Contains(ls, "invalid character '<'"):
		return "non-JSON/HTML response (proxy/cf?)"
	case strings.Contains(ls, "dial tcp"), strings.Contains(ls, "lookup "):
		return "network/DNS error: " + s
	case strings.Contains(ls, "context deadline exceeded"):
		return "rpc timeout: " + s
	}
	return s
}
