package models

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every ConfigError
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a precondition violation on a named input
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
