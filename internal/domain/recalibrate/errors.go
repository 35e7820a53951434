package recalibrate

import "errors"

var (
	// ErrInvalidSeason is the only error Run returns.
	ErrInvalidSeason = errors.New("invalid season")
	// ErrClassPanic wraps a panic recovered while recalibrating one class.
	ErrClassPanic = errors.New("class recalibration panicked")
)
