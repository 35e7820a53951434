package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps dotenv, YAML and environment read failures.
	ErrLoadConfig = errors.New("load config failed")
	// ErrUnknownBackend names a storage or snapshot backend the engine cannot open.
	ErrUnknownBackend = fmt.Errorf("%w: unknown backend", ErrInvalidConfig)
)
