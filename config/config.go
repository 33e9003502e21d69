package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ardanlabs/conf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/brianorwhatever/sign-and-verify/pkg/service/credential"
)

const (
	DefaultConfigPath = "config/config.toml"
	ConfigExtension   = ".toml"
)

// ErrUsageShown is returned by LoadServiceConfig when --help or --version was handled.
var ErrUsageShown = errors.New("usage shown")

// ServiceConfig carries the settings that wire the issuance service together. It is separate from
// Config, which only holds what the process environment provides.
type ServiceConfig struct {
	conf.Version
	Server   ServerConfig           `toml:"server"`
	Issuance IssuanceConfig         `toml:"issuance"`
	Records  credential.StoreConfig `toml:"records"`
}

// ServerConfig represents configurable properties for the process
type ServerConfig struct {
	LogLocation string `toml:"log_location"`
	LogLevel    string `toml:"log_level" conf:"default:info"`
	// JaegerHost is the collector endpoint for traces. Tracing is off when it is empty.
	JaegerHost string `toml:"jaeger_host"`
}

// IssuanceConfig selects the credential type to issue and where its templates live.
// An empty TemplateDir uses the templates built into the binary.
type IssuanceConfig struct {
	CredentialType string `toml:"credential_type" conf:"default:ID"`
	TemplateDir    string `toml:"template_dir"`
}

// LoadServiceConfig applies defaults, flags from args and ISSUER_* environment variables, then
// overlays the TOML file at path. An empty path skips the file.
func LoadServiceConfig(path string, args []string) (*ServiceConfig, error) {
	if path == "" {
		logrus.Info("no config path provided, using defaults")
	} else if filepath.Ext(path) != ConfigExtension {
		return nil, fmt.Errorf("path<%s> did not match the expected TOML format", path)
	}

	var config ServiceConfig
	config.Version = conf.Version{SVN: ServiceVersion, Desc: Description()}

	if err := conf.Parse(args, "ISSUER", &config); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage("ISSUER", &config)
			if err != nil {
				return nil, errors.Wrap(err, "generating config usage")
			}
			fmt.Println(usage)
			return nil, ErrUsageShown

		case errors.Is(err, conf.ErrVersionWanted):
			version, err := conf.VersionString("ISSUER", &config)
			if err != nil {
				return nil, errors.Wrap(err, "generating config version")
			}
			fmt.Println(version)
			return nil, ErrUsageShown
		}
		return nil, errors.Wrap(err, "parsing config")
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, errors.Wrapf(err, "could not load config: %s", path)
		}
	}

	if err := config.Records.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid records config")
	}
	return &config, nil
}
