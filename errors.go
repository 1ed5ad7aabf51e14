package mandel

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every setup validation failure.
var ErrConfig = errors.New("invalid configuration")

// ConfigError describes a rejected configuration value.
// Configuration errors are detected before rendering starts and are never corrected silently.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s = %v: %s", ErrConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError is used by the other packages of the module to report setup failures.
func NewConfigError(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

func configErr(field string, value any, reason string) error {
	return NewConfigError(field, value, reason)
}
