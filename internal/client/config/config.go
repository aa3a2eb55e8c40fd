package config

import "time"

// Config holds runtime settings for the SNOT CLI.
//
// Fields:
//   - APIBaseURL: base URL of the notebook REST API (API Gateway stage).
//   - AWSRegion / CognitoClientID: identity provider coordinates.
//   - DatabasePath: sqlite file backing the durable store (identity cache,
//     notebook mirror).
//   - RequestTimeout: per-request deadline for remote calls.
//   - ReconcileDelay: pause before the post-mutation re-list that absorbs
//     server-assigned fields.
type Config struct {
	APIBaseURL      string
	AWSRegion       string
	CognitoClientID string
	DatabasePath    string
	RequestTimeout  time.Duration
	ReconcileDelay  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://ch2l8cp5l3.execute-api.eu-central-1.amazonaws.com/dev"
	c.AWSRegion = "eu-central-1"
	c.CognitoClientID = ""
	c.DatabasePath = "snot.db"
	c.RequestTimeout = 12 * time.Second
	c.ReconcileDelay = time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
