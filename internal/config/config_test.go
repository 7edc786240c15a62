package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Analysis.MAPeriod)
	assert.Equal(t, 60*time.Second, cfg.Analysis.Interval())
	assert.Equal(t, 60*time.Minute, cfg.Analysis.Duration())
	assert.Equal(t, 60*time.Minute, cfg.Analysis.MomentumWindow())
	assert.Equal(t, "https://www.nseindia.com", cfg.NSE.BaseURL)
	assert.False(t, cfg.Postgres.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Alerts.Enabled())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
analysis:
  ma_period: 5
  interval_seconds: 30
nse:
  rate_limit_rps: 1.5
redis:
  addr: "localhost:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Analysis.MAPeriod)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Interval())
	assert.Equal(t, 1.5, cfg.NSE.RateLimitRPS)
	assert.True(t, cfg.Redis.Enabled())

	// Untouched keys keep their defaults.
	assert.Equal(t, 60, cfg.Analysis.DurationMinutes)
	assert.Equal(t, 5, cfg.Analysis.TopN)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
	}{
		{"ma period too small", "analysis:\n  ma_period: 1\n"},
		{"history smaller than ma", "analysis:\n  history_size: 3\n"},
		{"zero interval", "analysis:\n  interval_seconds: 0\n"},
		{"negative top n", "analysis:\n  top_n: -1\n"},
		{"empty base url", "nse:\n  base_url: \"\"\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestAlertsEnabled(t *testing.T) {
	a := AlertsConfig{SMTPHost: "smtp.example.com", SMTPUser: "u", To: "ops@example.com"}
	assert.True(t, a.Enabled())

	a.To = ""
	assert.False(t, a.Enabled())
}
