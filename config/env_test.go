package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianorwhatever/sign-and-verify/pkg/service/issuance"
)

const testDIDSeed = "z1AZK4h5w5YZkKYEgqtcFfvSbWQ3tZ3ZFgmLsXMZsTVoeK7"

// withoutHandler returns a copy of c that can be compared with assert.Equal.
func withoutHandler(c *Config) Config {
	cp := *c
	cp.CredentialRequestHandler = nil
	return cp
}

func TestParseConfigDefaults(t *testing.T) {
	config, err := ParseConfig(map[string]string{EnvDIDSeed: testDIDSeed})
	require.NoError(t, err)
	assert.NotNil(t, config.CredentialRequestHandler)
	assert.Equal(t, Config{
		Port:                        5000,
		DIDSeed:                     testDIDSeed,
		HMACRequiredHeaders:         []string{"date", "digest"},
		DigestAlgorithms:            []string{"SHA256", "SHA512"},
		IssuerMembershipRegistryURL: "https://digitalcredentials.github.io/issuer-registry/registry.json",
	}, withoutHandler(config))
	assert.False(t, config.HasHMACSecret())
}

func TestParseConfigMissingDIDSeed(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"absent": {EnvPort: "6739"},
		"empty":  {EnvDIDSeed: ""},
	} {
		t.Run(name, func(t *testing.T) {
			config, err := ParseConfig(env)
			assert.Nil(t, config)
			assert.EqualError(t, err, "Environment variable 'DID_SEED' is not set")
			assert.True(t, IsConfigurationError(err))

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, EnvDIDSeed, cfgErr.Variable)
		})
	}
}

func TestParseConfigPort(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr string
	}{
		{name: "set", value: "6739", want: 6739},
		{name: "empty uses default", value: "", want: DefaultPort},
		{name: "padded", value: " 8080 ", want: 8080},
		{name: "not a number", value: "abc", wantErr: `Environment variable 'PORT' is not an integer: "abc"`},
		{name: "zero", value: "0", wantErr: "Environment variable 'PORT' is out of range: 0"},
		{name: "too large", value: "70000", wantErr: "Environment variable 'PORT' is out of range: 70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseConfig(map[string]string{EnvDIDSeed: testDIDSeed, EnvPort: tt.value})
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.True(t, IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, config.Port)
		})
	}
}

func TestParseConfigLists(t *testing.T) {
	config, err := ParseConfig(map[string]string{
		EnvDIDSeed:             testDIDSeed,
		EnvHMACRequiredHeaders: "abc,def, gher, asf",
		EnvDigestAlgorithms:    "SHA256",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "gher", "asf"}, config.HMACRequiredHeaders)
	assert.Equal(t, []string{"SHA256"}, config.DigestAlgorithms)

	config, err = ParseConfig(map[string]string{EnvDIDSeed: testDIDSeed, EnvHMACRequiredHeaders: "date,,digest"})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "", "digest"}, config.HMACRequiredHeaders)
}

func TestParseConfigDigestCheck(t *testing.T) {
	tests := []struct {
		value string
		set   bool
		want  bool
	}{
		{value: "true", set: true, want: true},
		{value: "True", set: true, want: true},
		{value: "TRUE", set: true, want: true},
		{value: "false", set: true},
		{value: "123", set: true},
		{value: "1", set: true},
		{value: "", set: true},
		{set: false},
	}
	for _, tt := range tests {
		env := map[string]string{EnvDIDSeed: testDIDSeed}
		if tt.set {
			env[EnvDigestCheck] = tt.value
		}
		config, err := ParseConfig(env)
		require.NoError(t, err)
		assert.Equal(t, tt.want, config.DigestCheck, "DIGEST_CHECK=%q set=%v", tt.value, tt.set)
	}
}

func TestParseConfigPassthrough(t *testing.T) {
	config, err := ParseConfig(map[string]string{
		EnvDIDSeed:          testDIDSeed,
		EnvHMACSecret:       "hunter2",
		EnvDemoIssuerMethod: "did:web",
	})
	require.NoError(t, err)
	assert.Equal(t, "hunter2", config.HMACSecret)
	assert.True(t, config.HasHMACSecret())
	assert.Equal(t, "did:web", config.DemoIssuerMethod)
}

func TestParseEnviron(t *testing.T) {
	t.Setenv(EnvDIDSeed, testDIDSeed)
	t.Setenv(EnvHMACSecret, "a=b")
	env := ParseEnviron()
	assert.Equal(t, testDIDSeed, env[EnvDIDSeed])
	assert.Equal(t, "a=b", env[EnvHMACSecret])
}

func TestWithCredentialRequestHandler(t *testing.T) {
	config, err := ParseConfig(map[string]string{EnvDIDSeed: testDIDSeed})
	require.NoError(t, err)

	called := false
	handler := func(context.Context, string, string, string) (issuance.Document, error) {
		called = true
		return issuance.Document{"id": "urn:test"}, nil
	}
	derived := config.WithCredentialRequestHandler(handler)
	assert.NotSame(t, config, derived)
	assert.Equal(t, withoutHandler(config), withoutHandler(derived))

	doc, err := derived.CredentialRequestHandler(context.Background(), "did:example:issuer", "did:example:holder", "token")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, issuance.Document{"id": "urn:test"}, doc)

	derived.HMACRequiredHeaders[0] = "host"
	assert.Equal(t, "date", config.HMACRequiredHeaders[0])
}
