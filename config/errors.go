package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports a required environment variable that is missing or a value that
// could not be parsed into its expected shape. It is fatal at startup.
type ConfigurationError struct {
	Variable string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Environment variable '%s' is not set", e.Variable)
	}
	return fmt.Sprintf("Environment variable '%s' %s", e.Variable, e.Reason)
}

func missingVariable(name string) error {
	return &ConfigurationError{Variable: name}
}

func invalidVariable(name, format string, args ...any) error {
	return &ConfigurationError{Variable: name, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err, or any error it wraps, is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
