package weights

import (
	"errors"

	"github.com/okian/leaguelearn/internal/domain/model"
)

var (
	// ErrEmptyEvolution is returned when Blend receives no records. Callers
	// must use the baseline instead.
	ErrEmptyEvolution = errors.New("empty weight evolution")
	// ErrInvalidWindow is returned for a blend window below 1.
	ErrInvalidWindow = errors.New("invalid blend window")
	// ErrNonFiniteWeight is returned when an input or blended weight is NaN or infinite.
	ErrNonFiniteWeight = model.ErrNonFiniteWeight
)
