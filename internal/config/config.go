// Package config loads greenpath settings from defaults, an optional
// config.yaml, a .env file and GREENPATH_ environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. GREENPATH_DB_PATH.
const EnvPrefix = "GREENPATH"

type Config struct {
	DBPath     string           `mapstructure:"db_path"`
	LiveData   LiveDataConfig   `mapstructure:"live_data"`
	Redis      RedisConfig      `mapstructure:"redis"`
	CaseStatus CaseStatusConfig `mapstructure:"case_status"`
	Log        LogConfig        `mapstructure:"log"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Velocity   VelocityConfig   `mapstructure:"velocity"`
}

type LiveDataConfig struct {
	// Endpoint is empty when no live feed is configured; catalog defaults
	// are used instead.
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type RedisConfig struct {
	// URL selects the Redis snapshot cache when set, e.g. redis://localhost:6379/0.
	URL string `mapstructure:"url"`
}

type CaseStatusConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type VelocityConfig struct {
	Window int `mapstructure:"window"`
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("db_path", filepath.Join(home, ".greenpath", "greenpath.db"))
	v.SetDefault("live_data.endpoint", "")
	v.SetDefault("live_data.timeout", 8*time.Second)
	v.SetDefault("live_data.max_retries", 2)
	v.SetDefault("live_data.cache_ttl", 6*time.Hour)
	v.SetDefault("redis.url", "")
	v.SetDefault("case_status.endpoint", "https://egov.uscis.gov/casestatus/mycasestatus.do")
	v.SetDefault("case_status.timeout", 10*time.Second)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("velocity.window", 12)
}

// Load resolves the configuration. configFile, when non-empty, must exist;
// otherwise config.yaml is looked up in ~/.greenpath and the working
// directory and may be absent.
func Load(configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v := viper.New()
	setDefaults(v, home)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(home, ".greenpath"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv applies a .env file without overriding variables already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.LiveData.Timeout <= 0 {
		return errors.New("live_data.timeout must be positive")
	}
	if c.LiveData.MaxRetries < 0 {
		return errors.New("live_data.max_retries must not be negative")
	}
	if c.CaseStatus.Timeout <= 0 {
		return errors.New("case_status.timeout must be positive")
	}
	if c.Velocity.Window < 2 {
		return errors.New("velocity.window must be at least 2")
	}
	return nil
}
