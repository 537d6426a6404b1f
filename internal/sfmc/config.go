package sfmc

import "os"

// Environment variables read by ConfigFromEnv.
const (
	EnvSubdomain    = "SFMC_SUBDOMAIN"
	EnvClientID     = "SFMC_CLIENT_ID"
	EnvClientSecret = "SFMC_CLIENT_SECRET"
)

// Config holds the credentials needed to open an SFMC session.
type Config struct {
	Subdomain    string
	ClientID     string
	ClientSecret string

	// AuthBaseURL and RestBaseURL override the URLs derived from the
	// subdomain. Used for tests and sandbox stacks.
	AuthBaseURL string
	RestBaseURL string
}

// Complete reports whether the config carries everything needed to
// authenticate.
func (c Config) Complete() bool {
	return c.Subdomain != "" && c.ClientID != "" && c.ClientSecret != ""
}

// ConfigFromEnv builds a Config from the SFMC_* environment variables.
// Missing variables are left empty; use Complete to check the result.
func ConfigFromEnv() Config {
	return Config{
		Subdomain:    os.Getenv(EnvSubdomain),
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
	}
}
