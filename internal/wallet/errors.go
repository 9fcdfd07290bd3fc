package wallet

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrUserRejected      = errors.New("user rejected the connection request")
	ErrNotConnected      = errors.New("wallet not connected")
	ErrCapabilityMissing = errors.New("provider capability missing")
	ErrUnknownMethod     = errors.New("method not declared by interface")
)

// TransportError wraps any provider failure other than an explicit rejection.
type TransportError struct {
	Op  string // Provider call, e.g. "requestBalance"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
