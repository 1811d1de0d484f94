// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"nutriscan/internal/favorites"
	"nutriscan/internal/offclient"
)

type Config struct {
	DBPath   string
	LogLevel string

	Host string
	Port int

	FavoritesKey       string
	FavoritesOpTimeout time.Duration

	OFF offclient.Config
}

// Addr is the listen address of the tool server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("db_path", filepath.Join(home, ".nutriscan", "nutriscan.db"))
	v.SetDefault("log_level", "info")
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8011)
	v.SetDefault("favorites.key", favorites.DefaultKey)
	v.SetDefault("favorites.op_timeout", "5s")
	v.SetDefault("off.base_url", offclient.DefaultBaseURL)
	v.SetDefault("off.timeout", "15s")
	v.SetDefault("off.retry_max", 2)
	v.SetDefault("off.user_agent", "nutriscan/1.0")
}

// Load reads configuration from cfgFile, or from $HOME/.nutriscan.yaml when
// cfgFile is empty. A missing default file is not an error; environment
// variables prefixed NUTRISCAN_ override both.
func Load(cfgFile string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, home)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(home)
		v.SetConfigName(".nutriscan")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("nutriscan")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		DBPath:             v.GetString("db_path"),
		LogLevel:           v.GetString("log_level"),
		Host:               v.GetString("http.host"),
		Port:               v.GetInt("http.port"),
		FavoritesKey:       v.GetString("favorites.key"),
		FavoritesOpTimeout: v.GetDuration("favorites.op_timeout"),
		OFF: offclient.Config{
			BaseURL:   v.GetString("off.base_url"),
			Timeout:   v.GetDuration("off.timeout"),
			RetryMax:  v.GetInt("off.retry_max"),
			UserAgent: v.GetString("off.user_agent"),
		},
	}

	if cfg.DBPath, err = homedir.Expand(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("failed to expand db_path: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.FavoritesKey) == "" {
		return fmt.Errorf("favorites.key must not be empty")
	}
	if c.OFF.RetryMax < 0 {
		return fmt.Errorf("off.retry_max must not be negative")
	}
	return nil
}
