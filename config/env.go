package config

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/brianorwhatever/sign-and-verify/pkg/service/issuance"
)

// Environment variables read by ParseConfig.
const (
	EnvPort                = "PORT"
	EnvDIDSeed             = "DID_SEED"
	EnvHMACSecret          = "HMAC_SECRET"
	EnvHMACRequiredHeaders = "HMAC_REQUIRED_HEADERS"
	EnvDigestCheck         = "DIGEST_CHECK"
	EnvDigestAlgorithms    = "DIGEST_ALGORITHMS"
	EnvDemoIssuerMethod    = "DEMO_ISSUER_METHOD"
)

const (
	DefaultPort                        = 5000
	DefaultIssuerMembershipRegistryURL = "https://digitalcredentials.github.io/issuer-registry/registry.json"
)

// CredentialRequestHandler is the issuance entry point carried by Config. It returns the issued
// credential document, or an empty document when no credential is available for the token holder.
type CredentialRequestHandler func(ctx context.Context, issuerID, holderID, idToken string) (issuance.Document, error)

// Config is the process configuration parsed from the environment. A Config is never mutated after
// ParseConfig returns it; use WithCredentialRequestHandler to derive a copy.
type Config struct {
	Port                        int
	DIDSeed                     string
	HMACSecret                  string
	HMACRequiredHeaders         []string
	DigestCheck                 bool
	DigestAlgorithms            []string
	DemoIssuerMethod            string
	IssuerMembershipRegistryURL string
	CredentialRequestHandler    CredentialRequestHandler
}

func defaultHMACRequiredHeaders() []string {
	return []string{"date", "digest"}
}

func defaultDigestAlgorithms() []string {
	return []string{"SHA256", "SHA512"}
}

// ParseEnviron returns a snapshot of the process environment.
func ParseEnviron() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	return env
}

// ParseConfig builds a Config from env. DID_SEED is the only required variable; an empty value
// counts as unset for every variable.
func ParseConfig(env map[string]string) (*Config, error) {
	didSeed := env[EnvDIDSeed]
	if didSeed == "" {
		return nil, missingVariable(EnvDIDSeed)
	}

	port := DefaultPort
	if v := env[EnvPort]; v != "" {
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, invalidVariable(EnvPort, "is not an integer: %q", v)
		}
		if p < 1 || p > 65535 {
			return nil, invalidVariable(EnvPort, "is out of range: %d", p)
		}
		port = p
	}

	hmacRequiredHeaders := defaultHMACRequiredHeaders()
	if v := env[EnvHMACRequiredHeaders]; v != "" {
		hmacRequiredHeaders = splitList(v)
	}

	digestAlgorithms := defaultDigestAlgorithms()
	if v := env[EnvDigestAlgorithms]; v != "" {
		digestAlgorithms = splitList(v)
	}

	return &Config{
		Port:                        port,
		DIDSeed:                     didSeed,
		HMACSecret:                  env[EnvHMACSecret],
		HMACRequiredHeaders:         hmacRequiredHeaders,
		DigestCheck:                 parseStrictBool(env[EnvDigestCheck]),
		DigestAlgorithms:            digestAlgorithms,
		DemoIssuerMethod:            env[EnvDemoIssuerMethod],
		IssuerMembershipRegistryURL: DefaultIssuerMembershipRegistryURL,
		CredentialRequestHandler:    issuance.HandleCredentialRequest,
	}, nil
}

// WithCredentialRequestHandler returns a copy of c that dispatches issuance to h.
func (c *Config) WithCredentialRequestHandler(h CredentialRequestHandler) *Config {
	cp := c.clone()
	cp.CredentialRequestHandler = h
	return cp
}

// clone returns a deep copy of c; the slices are not shared.
func (c *Config) clone() *Config {
	cp := *c
	cp.HMACRequiredHeaders = append([]string(nil), c.HMACRequiredHeaders...)
	cp.DigestAlgorithms = append([]string(nil), c.DigestAlgorithms...)
	return &cp
}

// HasHMACSecret reports whether HMAC_SECRET was provided.
func (c *Config) HasHMACSecret() bool {
	return c.HMACSecret != ""
}

// splitList splits on commas and trims each element. Empty elements are kept.
func splitList(v string) []string {
	return lo.Map(strings.Split(v, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
}

// parseStrictBool only accepts "true" in any letter case; everything else is false.
func parseStrictBool(v string) bool {
	return strings.EqualFold(v, "true")
}
