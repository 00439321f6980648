package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/newthinker/vega/internal/core"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	History  HistoryConfig  `mapstructure:"history"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Advisor  AdvisorConfig  `mapstructure:"advisor"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DataConfig selects the market data source and the bar cache location.
type DataConfig struct {
	Dir     string `mapstructure:"dir"`
	Source  string `mapstructure:"source"`
	Offline bool   `mapstructure:"offline"`
}

type FetchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type BacktestConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
	Start          string  `mapstructure:"start"`
	End            string  `mapstructure:"end"`
	Preset         string  `mapstructure:"preset"`
	PresetsFile    string  `mapstructure:"presets_file"`
}

// HistoryConfig selects the run history backend. An empty path keeps
// history in memory.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	MaxSize int    `mapstructure:"max_size"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Backend string   `mapstructure:"backend"` // "localfs" or "s3"
	Dir     string   `mapstructure:"dir"`     // For localfs
	S3      S3Config `mapstructure:"s3"`      // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// RefreshConfig schedules periodic cache refresh in serve mode. An empty
// schedule disables it; empty symbols fall back to the popular list.
type RefreshConfig struct {
	Schedule string   `mapstructure:"schedule"`
	Symbols  []string `mapstructure:"symbols"`
}

type AdvisorConfig struct {
	Provider string `mapstructure:"provider"` // "claude", "openai" or "ollama"
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// Load reads configuration from an optional file, layered over defaults
// and VEGA_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VEGA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.job_ttl_hours", 1)
	v.SetDefault("server.max_jobs", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("data.dir", "data/cache")
	v.SetDefault("data.source", "yahoo")
	v.SetDefault("data.offline", false)

	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_delay", "500ms")

	v.SetDefault("backtest.initial_capital", 10000.0)
	v.SetDefault("backtest.start", "2022-01-01")
	v.SetDefault("backtest.end", "2023-12-31")
	v.SetDefault("backtest.preset", "sma_20_50")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.max_size", 500)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.backend", "localfs")
	v.SetDefault("archive.dir", "data/archive")
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Data: DataConfig{
			Dir:    "data/cache",
			Source: "yahoo",
		},
		Fetch: FetchConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: 500 * time.Millisecond,
		},
		Backtest: BacktestConfig{
			InitialCapital: 10000,
			Start:          "2022-01-01",
			End:            "2023-12-31",
			Preset:         "sma_20_50",
		},
		History: HistoryConfig{
			Enabled: true,
			MaxSize: 500,
		},
		Archive: ArchiveConfig{
			Backend: "localfs",
			Dir:     "data/archive",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("server addr cannot be empty"))
	}
	if c.Server.JobTTLHours < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("job_ttl_hours cannot be negative, got %d", c.Server.JobTTLHours))
	}

	if c.Data.Source == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("data source cannot be empty"))
	}

	if c.Fetch.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fetch timeout must be positive, got %s", c.Fetch.Timeout))
	}
	if c.Fetch.MaxRetries < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_retries cannot be negative, got %d", c.Fetch.MaxRetries))
	}

	if c.Backtest.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %f", c.Backtest.InitialCapital))
	}
	start, err := time.Parse(core.DateLayout, c.Backtest.Start)
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("invalid backtest start date %q", c.Backtest.Start))
	}
	end, err := time.Parse(core.DateLayout, c.Backtest.End)
	if err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("invalid backtest end date %q", c.Backtest.End))
	}
	if end.Before(start) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backtest end %s before start %s", c.Backtest.End, c.Backtest.Start))
	}

	if c.Archive.Enabled {
		switch c.Archive.Backend {
		case "localfs":
			if c.Archive.Dir == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive dir required for localfs backend"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("s3 bucket required when archive backend is s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown archive backend %q", c.Archive.Backend))
		}
	}

	if c.Refresh.Schedule != "" {
		if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("invalid refresh schedule %q: %w", c.Refresh.Schedule, err))
		}
	}

	// Advisor validation - if provider set, check config exists
	if c.Advisor.Provider != "" {
		switch c.Advisor.Provider {
		case "claude":
			if c.Advisor.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("api_key required when advisor provider is claude"))
			}
		case "openai":
			if c.Advisor.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("api_key required when advisor provider is openai"))
			}
		case "ollama":
			if c.Advisor.BaseURL == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("base_url required when advisor provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown advisor provider %q", c.Advisor.Provider))
		}
	}

	return nil
}

// StartEnd parses the configured backtest date range.
func (c *BacktestConfig) StartEnd() (time.Time, time.Time, error) {
	start, err := time.Parse(core.DateLayout, c.Start)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("invalid start date %q", c.Start))
	}
	end, err := time.Parse(core.DateLayout, c.End)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("invalid end date %q", c.End))
	}
	return start, end, nil
}
