package config

import (
	"encoding/json"
	"os"

	"github.com/YaniYesh22/snot/internal/flagx"
	"github.com/YaniYesh22/snot/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIBaseURL      string         `json:"api_base_url"`
	AWSRegion       string         `json:"aws_region"`
	CognitoClientID string         `json:"cognito_client_id"`
	DatabasePath    string         `json:"database_path"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	ReconcileDelay  timex.Duration `json:"reconcile_delay"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; when absent, nothing is loaded.
// Empty JSON fields leave the current value untouched. Read or unmarshal
// errors panic (caller may recover).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.AWSRegion != "" {
		cfg.AWSRegion = jc.AWSRegion
	}
	if jc.CognitoClientID != "" {
		cfg.CognitoClientID = jc.CognitoClientID
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ReconcileDelay.Duration > 0 {
		cfg.ReconcileDelay = jc.ReconcileDelay.Duration
	}
}
