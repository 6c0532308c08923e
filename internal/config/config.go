// Package config loads tracker configuration from a yaml file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all tracker settings.
type Config struct {
	// Perspective is the name of the player whose first-person view is
	// tracked. Required for tracking runs.
	Perspective string `mapstructure:"perspective"`
	// DataDir holds per-table game data (raw history, game log,
	// snapshot, summary).
	DataDir string `mapstructure:"data_dir"`
	// AssetsDir holds static assets, including cardinfo.json.
	AssetsDir string `mapstructure:"assets_dir"`

	Logging LoggingConfig `mapstructure:"logging"`
	Viewer  ViewerConfig  `mapstructure:"viewer"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// ViewerConfig controls the state viewer server.
type ViewerConfig struct {
	Address string `mapstructure:"address"`
}

// Load reads configuration from the given yaml file, applying defaults
// and BGA_* environment overrides. A missing config file is not an
// error; defaults and environment alone are a valid configuration.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "data")
	v.SetDefault("assets_dir", "assets")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("viewer.address", ":8080")

	v.SetEnvPrefix("BGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PLAYER_NAME is the legacy environment key for the perspective.
	_ = v.BindEnv("perspective", "BGA_PERSPECTIVE", "PLAYER_NAME")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
