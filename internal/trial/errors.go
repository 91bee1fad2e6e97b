package trial

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("trial configuration error")

// ConfigurationError reports factor configuration that cannot produce a
// trial. It is returned before any interaction begins and is fatal to the
// trial being built.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("trial configuration: %s", e.Reason)
	}
	return fmt.Sprintf("trial configuration: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
