package snapshot

import "errors"

var (
	// ErrInvalidKey is returned by Write for keys missing a field or with an unknown type.
	ErrInvalidKey = errors.New("invalid snapshot key")
	// ErrInvalidPayload is returned by Write for payloads that are not JSON.
	ErrInvalidPayload = errors.New("invalid snapshot payload")
)
