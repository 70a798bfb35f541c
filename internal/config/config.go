// Package config loads application settings from configs/config.yml,
// environment variables (PURIFIER_*) and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "PURIFIER"

// Hub modes.
const (
	HubLocal  = "local"
	HubRemote = "remote"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port string `mapstructure:"port"`

	Server struct {
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
		WriteTimeout      time.Duration `mapstructure:"write_timeout"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
		ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Log struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Platform struct {
		File string `mapstructure:"file"`
	} `mapstructure:"platform"`

	Refresh struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"refresh"`

	Templates struct {
		Undefined string `mapstructure:"undefined"`
	} `mapstructure:"templates"`

	Hub struct {
		Mode     string        `mapstructure:"mode"`
		URL      string        `mapstructure:"url"`
		Token    string        `mapstructure:"token"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
		Timeout  time.Duration `mapstructure:"timeout"`
	} `mapstructure:"hub"`

	Auth struct {
		SigningKey string        `mapstructure:"signing_key"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	// Publish writes each purifier's own state into the state store after a refresh.
	Publish bool `mapstructure:"publish"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("platform.file", "configs/air_purifier.yaml")
	v.SetDefault("refresh.interval", 5*time.Second)
	v.SetDefault("templates.undefined", "unknown")
	v.SetDefault("hub.mode", HubLocal)
	v.SetDefault("hub.url", "")
	v.SetDefault("hub.token", "")
	v.SetDefault("hub.cache_ttl", 3*time.Hour)
	v.SetDefault("hub.timeout", 10*time.Second)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("publish", true)
}

// Load reads the config file named config.* from dir. A missing file is not
// an error; defaults and environment variables still apply.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load() // optional .env in the working directory

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Hub.Mode {
	case HubLocal:
	case HubRemote:
		if c.Hub.URL == "" {
			return fmt.Errorf("%w: hub.url is required in remote mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: hub.mode must be %q or %q, got %q", ErrInvalidConfig, HubLocal, HubRemote, c.Hub.Mode)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("%w: refresh.interval must be positive", ErrInvalidConfig)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}
