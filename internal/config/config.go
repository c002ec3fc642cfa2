// Package config loads TeaCounter settings from defaults, an optional YAML
// file and TEACOUNTER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"TeaCounter/internal/storage"
)

const envPrefix = "TEACOUNTER"

type Config struct {
	HTTP    HTTP    `mapstructure:"http"`
	Storage Storage `mapstructure:"storage"`
	Notify  Notify  `mapstructure:"notify"`
	Metrics Metrics `mapstructure:"metrics"`
	Log     Log     `mapstructure:"log"`
	Manager Manager `mapstructure:"manager"`
}

type HTTP struct {
	Addr string `mapstructure:"addr"`
}

type Storage struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DSN         string `mapstructure:"dsn"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type Notify struct {
	Display time.Duration `mapstructure:"display"`
	Fade    time.Duration `mapstructure:"fade"`
}

type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type Log struct {
	Level string `mapstructure:"level"`
	// File receives the logs instead of stderr. The terminal front-end
	// logs nowhere without it.
	File string `mapstructure:"file"`
}

type Manager struct {
	PINHash      string        `mapstructure:"pin_hash"`
	Secret       string        `mapstructure:"secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", storage.DriverFile)
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_prefix", "teacounter:")
	v.SetDefault("notify.display", 3*time.Second)
	v.SetDefault("notify.fade", 300*time.Millisecond)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("manager.pin_hash", "")
	v.SetDefault("manager.secret", "")
	v.SetDefault("manager.token_ttl", 12*time.Hour)
	v.SetDefault("manager.secure_cookie", false)
}

// Load reads the configuration. path may be empty; a named file that does
// not exist is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_HTTP_ADDR") == "" {
		c.HTTP.Addr = ":" + port
	}

	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is empty"))
	}
	if !storage.KnownDriver(c.Storage.Driver) {
		errs = append(errs, fmt.Errorf("storage.driver %q is unknown", c.Storage.Driver))
	}
	if c.Manager.TokenTTL <= 0 {
		errs = append(errs, errors.New("manager.token_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// StorageOptions maps the storage section onto storage.Open's options.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      c.Storage.Driver,
		Path:        c.Storage.Path,
		DSN:         c.Storage.DSN,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}
