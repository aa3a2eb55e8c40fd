package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	require.NotEmpty(t, c.APIBaseURL)
	require.Equal(t, "snot.db", c.DatabasePath)
	require.Equal(t, 12*time.Second, c.RequestTimeout)
	require.Equal(t, time.Second, c.ReconcileDelay)
}

func TestParseJsonOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	body := map[string]any{
		"api_base_url":    "https://api.example.com/dev",
		"aws_region":      "us-east-1",
		"database_path":   "custom.db",
		"request_timeout": "5s",
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"snot", "-c", path}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	require.Equal(t, "https://api.example.com/dev", c.APIBaseURL)
	require.Equal(t, "us-east-1", c.AWSRegion)
	require.Equal(t, "custom.db", c.DatabasePath)
	require.Equal(t, 5*time.Second, c.RequestTimeout)
	// untouched fields keep their defaults
	require.Equal(t, time.Second, c.ReconcileDelay)
}

func TestParseFlagsOverride(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"snot", "-a", "https://flags.example.com", "-t", "7"}

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	require.Equal(t, "https://flags.example.com", c.APIBaseURL)
	require.Equal(t, 7*time.Second, c.RequestTimeout)
}
