package service

import (
	"errors"

	"github.com/okian/leaguelearn/internal/adapters/http/api"
)

// Errors surfaced to callers share the API's kinds so handlers can map
// them to status codes.
var (
	ErrInvalidRequest = api.ErrBadRequest
	ErrBackpressure   = api.ErrBackpressure
)

// ErrStopped is returned by Start once the service has been stopped.
var ErrStopped = errors.New("service stopped")
