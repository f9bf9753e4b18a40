package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Token limits per subscription plan, used when limit.plan is set.
var planLimits = map[string]int64{
	"pro":   19_000,
	"max5":  88_000,
	"max20": 220_000,
}

type LimitConfig struct {
	Plan         string `yaml:"plan"`          // pro, max5, max20 or custom
	CustomTokens int64  `yaml:"custom_tokens"` // used when plan is custom
	CycleHours   int    `yaml:"cycle_hours"`
}

type WindowsConfig struct {
	RollingDays           int `yaml:"rolling_days"`
	SessionIdleGapMinutes int `yaml:"session_idle_gap_minutes"`
}

type BurnConfig struct {
	WindowMinutes       int     `yaml:"window_minutes"`
	HighTokensPerMinute float64 `yaml:"high_tokens_per_minute"`
}

type MonitorConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
	ClockSkewMs    int `yaml:"clock_skew_ms"`
}

type PathsConfig struct {
	LogRoots []string `yaml:"log_roots"` // extra roots besides ~/.claude/projects
}

type UIConfig struct {
	ClaudeBinary string `yaml:"claude_binary"` // binary guidance actions are sent to
}

type Config struct {
	Limit   LimitConfig   `yaml:"limit"`
	Windows WindowsConfig `yaml:"windows"`
	Burn    BurnConfig    `yaml:"burn"`
	Monitor MonitorConfig `yaml:"monitor"`
	Paths   PathsConfig   `yaml:"paths"`
	UI      UIConfig      `yaml:"ui"`
}

func Default() *Config {
	return &Config{
		Limit: LimitConfig{
			Plan:       "max5",
			CycleHours: 5,
		},
		Windows: WindowsConfig{
			RollingDays:           7,
			SessionIdleGapMinutes: 30,
		},
		Burn: BurnConfig{
			WindowMinutes:       10,
			HighTokensPerMinute: 150,
		},
		Monitor: MonitorConfig{
			PollIntervalMs: 3000,
			ClockSkewMs:    120_000,
		},
		UI: UIConfig{
			ClaudeBinary: "claude",
		},
	}
}

func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "tokenpace", "config.yaml")
}

// Load reads the config file at path and merges it over the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LimitTokens resolves the nominal cycle token limit from the plan
// name, falling back to custom_tokens and then to the max5 limit.
func (c *Config) LimitTokens() int64 {
	if n, ok := planLimits[c.Limit.Plan]; ok {
		return n
	}
	if c.Limit.CustomTokens > 0 {
		return c.Limit.CustomTokens
	}
	return planLimits["max5"]
}

func (c *Config) CycleDuration() time.Duration {
	return time.Duration(c.Limit.CycleHours) * time.Hour
}

func (c *Config) SessionIdleGap() time.Duration {
	return time.Duration(c.Windows.SessionIdleGapMinutes) * time.Minute
}

func (c *Config) BurnWindow() time.Duration {
	return time.Duration(c.Burn.WindowMinutes) * time.Minute
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMs) * time.Millisecond
}

func (c *Config) ClockSkew() time.Duration {
	return time.Duration(c.Monitor.ClockSkewMs) * time.Millisecond
}
