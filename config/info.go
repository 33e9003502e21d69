package config

const (
	ServiceName    = "sign-and-verify"
	ServiceVersion = "0.1.0"

	// ConfigPath names the environment variable holding the service config file path.
	ConfigPath = "CONFIG_PATH"
)

// Description is a one-line summary used in CLI usage output.
func Description() string {
	return "Issues unsigned verifiable credentials from identity tokens and organization credential records."
}
