package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors. Dependencies wrap these so handlers can
// pick a status code without knowing the implementation.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
)

// kindError tags an operation failure with a sentinel kind.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// WrapKind tags err with kind for op.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}
