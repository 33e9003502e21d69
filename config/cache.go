package config

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// cached holds the process Config. It is written at most once per generation between resets and
// only ever holds a fully built value.
var cached atomic.Pointer[Config]

// parse is swapped in tests to count parser invocations.
var parse = func() (*Config, error) {
	return ParseConfig(ParseEnviron())
}

// GetConfig returns the process Config, parsing the environment on first use. Later calls return
// equal values even if the environment changes. Each call returns its own copy, so writes by one
// caller never reach the cached Config. Parse failures are not cached.
func GetConfig() (*Config, error) {
	if c := cached.Load(); c != nil {
		return c.clone(), nil
	}
	c, err := parse()
	if err != nil {
		return nil, err
	}
	// a concurrent first call may have won; keep its value so every caller sees one Config
	if !cached.CompareAndSwap(nil, c) {
		return cached.Load().clone(), nil
	}
	logrus.WithField("port", c.Port).Debug("parsed process config from environment")
	return c.clone(), nil
}

// ResetConfig drops the cached Config so the next GetConfig re-reads the environment.
// Intended for tests and bootstrap code only.
func ResetConfig() {
	cached.Store(nil)
}
