package main

import (
	"context"
	"errors"

	"github.com/ligun0805/auto-transfer/internal/transfer"
)

// errorMessage turns a terminal error into the one line shown to the operator.
func errorMessage(err error) string {
	var qe *transfer.QueryError
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.As(err, &qe):
		return "network query failed, stopping: " + qe.Error()
	}
	return err.Error()
}
