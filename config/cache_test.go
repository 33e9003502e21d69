package config

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfig(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	t.Setenv(EnvDIDSeed, testDIDSeed)
	t.Setenv(EnvPort, "6739")

	first, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 6739, first.Port)

	t.Setenv(EnvPort, "7000")
	second, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, withoutHandler(first), withoutHandler(second))
	assert.Equal(t, 6739, second.Port)

	ResetConfig()
	third, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 7000, third.Port)
}

func TestGetConfigReturnsIsolatedCopies(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	t.Setenv(EnvDIDSeed, testDIDSeed)
	t.Setenv(EnvPort, "")
	t.Setenv(EnvHMACRequiredHeaders, "")
	t.Setenv(EnvDigestAlgorithms, "")

	first, err := GetConfig()
	require.NoError(t, err)
	first.Port = 1
	first.DIDSeed = "changed"
	first.HMACRequiredHeaders[0] = "evil"
	first.DigestAlgorithms = append(first.DigestAlgorithms[:0], "MD5")
	first.CredentialRequestHandler = nil

	second, err := GetConfig()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, DefaultPort, second.Port)
	assert.Equal(t, testDIDSeed, second.DIDSeed)
	assert.Equal(t, []string{"date", "digest"}, second.HMACRequiredHeaders)
	assert.Equal(t, []string{"SHA256", "SHA512"}, second.DigestAlgorithms)
	assert.NotNil(t, second.CredentialRequestHandler)
}

func TestGetConfigDoesNotCacheErrors(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	t.Setenv(EnvDIDSeed, "")
	_, err := GetConfig()
	assert.EqualError(t, err, "Environment variable 'DID_SEED' is not set")

	t.Setenv(EnvDIDSeed, testDIDSeed)
	config, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, testDIDSeed, config.DIDSeed)
}

func TestGetConfigConcurrent(t *testing.T) {
	ResetConfig()
	original := parse
	t.Cleanup(func() {
		parse = original
		ResetConfig()
	})

	var calls atomic.Int32
	parse = func() (*Config, error) {
		calls.Add(1)
		return ParseConfig(map[string]string{EnvDIDSeed: testDIDSeed})
	}

	const callers = 32
	results := make([]*Config, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := GetConfig()
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		require.NotNil(t, c)
		assert.Equal(t, withoutHandler(results[0]), withoutHandler(c))
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))

	_, err := GetConfig()
	require.NoError(t, err)
	before := calls.Load()
	_, _ = GetConfig()
	assert.Equal(t, before, calls.Load())
}

func TestGetConfigParseFailure(t *testing.T) {
	ResetConfig()
	original := parse
	t.Cleanup(func() {
		parse = original
		ResetConfig()
	})

	boom := errors.New("boom")
	parse = func() (*Config, error) { return nil, boom }
	_, err := GetConfig()
	assert.ErrorIs(t, err, boom)
}
