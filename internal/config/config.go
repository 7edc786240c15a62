// Package config loads scanner configuration from YAML with sane defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for niftyscan.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	NSE      NSEConfig      `yaml:"nse"`
	Paths    PathsConfig    `yaml:"paths"`
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Log      LogConfig      `yaml:"log"`
}

// AnalysisConfig controls the momentum detection parameters.
type AnalysisConfig struct {
	MAPeriod              int `yaml:"ma_period"`
	DurationMinutes       int `yaml:"duration_minutes"`
	IntervalSeconds       int `yaml:"interval_seconds"`
	MomentumWindowMinutes int `yaml:"momentum_window_minutes"`
	TopN                  int `yaml:"top_n"`
	RecentShifts          int `yaml:"recent_shifts"`
	HistorySize           int `yaml:"history_size"`
}

// Duration returns the total analysis run time.
func (a AnalysisConfig) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

// Interval returns the delay between price fetches.
func (a AnalysisConfig) Interval() time.Duration {
	return time.Duration(a.IntervalSeconds) * time.Second
}

// MomentumWindow returns the lookback window for ranking shifts.
func (a AnalysisConfig) MomentumWindow() time.Duration {
	return time.Duration(a.MomentumWindowMinutes) * time.Minute
}

// NSEConfig holds the NSE India endpoints and HTTP client tuning.
type NSEConfig struct {
	BaseURL               string  `yaml:"base_url"`
	IndexEndpoint         string  `yaml:"index_endpoint"`
	QuoteEndpoint         string  `yaml:"quote_endpoint"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
	MaxRetries            int     `yaml:"max_retries"`
	RetryDelaySeconds     int     `yaml:"retry_delay_seconds"`
	RateLimitRPS          float64 `yaml:"rate_limit_rps"`
	RateLimitBurst        int     `yaml:"rate_limit_burst"`
	UserAgent             string  `yaml:"user_agent"`
	Referer               string  `yaml:"referer"`
}

// RequestTimeout returns the per-request timeout.
func (n NSEConfig) RequestTimeout() time.Duration {
	return time.Duration(n.RequestTimeoutSeconds) * time.Second
}

// RetryDelay returns the fixed delay between retry attempts.
func (n NSEConfig) RetryDelay() time.Duration {
	return time.Duration(n.RetryDelaySeconds) * time.Second
}

// PathsConfig names the on-disk artifacts.
type PathsConfig struct {
	UniverseJSON string `yaml:"universe_json"`
	UniverseCSV  string `yaml:"universe_csv"`
	ResultsJSON  string `yaml:"results_json"`
	ResultsCSV   string `yaml:"results_csv"`
	ArtifactsDir string `yaml:"artifacts_dir"`
}

// ServerConfig holds the read-only HTTP API settings.
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
}

// PostgresConfig enables tick/shift persistence when a DSN is set.
type PostgresConfig struct {
	DSN                 string `yaml:"dsn"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds"`
}

// Enabled reports whether persistence is configured.
func (p PostgresConfig) Enabled() bool { return p.DSN != "" }

// QueryTimeout returns the per-query timeout.
func (p PostgresConfig) QueryTimeout() time.Duration {
	return time.Duration(p.QueryTimeoutSeconds) * time.Second
}

// RedisConfig enables snapshot caching when an address is set.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// Enabled reports whether the cache is configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// TTL returns the snapshot expiry.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

// AlertsConfig enables email notification on momentum shifts.
type AlertsConfig struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (a AlertsConfig) Enabled() bool {
	return a.SMTPHost != "" && a.SMTPUser != "" && a.To != ""
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration, matching NSE's published
// endpoints and conservative polling defaults.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			MAPeriod:              10,
			DurationMinutes:       60,
			IntervalSeconds:       60,
			MomentumWindowMinutes: 60,
			TopN:                  5,
			RecentShifts:          5,
			HistorySize:           60,
		},
		NSE: NSEConfig{
			BaseURL:               "https://www.nseindia.com",
			IndexEndpoint:         "/api/equity-stockIndices?index=NIFTY%2050",
			QuoteEndpoint:         "/api/quote-equity?symbol=",
			RequestTimeoutSeconds: 15,
			MaxRetries:            3,
			RetryDelaySeconds:     2,
			RateLimitRPS:          2.0,
			RateLimitBurst:        4,
			UserAgent:             "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Referer:               "https://www.nseindia.com/market-data/live-equity-market",
		},
		Paths: PathsConfig{
			UniverseJSON: "nifty50_stocks.json",
			UniverseCSV:  "nifty50_stocks.csv",
			ResultsJSON:  "momentum_analysis_results.json",
			ResultsCSV:   "momentum_analysis_results.csv",
			ArtifactsDir: "artifacts",
		},
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8080,
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 10,
			IdleTimeoutSeconds:  60,
		},
		Postgres: PostgresConfig{
			QueryTimeoutSeconds: 5,
		},
		Redis: RedisConfig{
			TTLSeconds: 120,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects configurations the scanner cannot run with.
func (c Config) Validate() error {
	if c.Analysis.MAPeriod < 2 {
		return fmt.Errorf("analysis.ma_period must be at least 2, got %d", c.Analysis.MAPeriod)
	}
	if c.Analysis.HistorySize < c.Analysis.MAPeriod {
		return fmt.Errorf("analysis.history_size (%d) must be >= ma_period (%d)",
			c.Analysis.HistorySize, c.Analysis.MAPeriod)
	}
	if c.Analysis.IntervalSeconds <= 0 {
		return fmt.Errorf("analysis.interval_seconds must be positive, got %d", c.Analysis.IntervalSeconds)
	}
	if c.Analysis.DurationMinutes <= 0 {
		return fmt.Errorf("analysis.duration_minutes must be positive, got %d", c.Analysis.DurationMinutes)
	}
	if c.Analysis.TopN <= 0 {
		return fmt.Errorf("analysis.top_n must be positive, got %d", c.Analysis.TopN)
	}
	if c.NSE.BaseURL == "" {
		return fmt.Errorf("nse.base_url must not be empty")
	}
	if c.NSE.RateLimitRPS <= 0 {
		return fmt.Errorf("nse.rate_limit_rps must be positive, got %f", c.NSE.RateLimitRPS)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	return nil
}
