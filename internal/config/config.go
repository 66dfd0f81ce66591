// Package config loads run defaults from an optional .hotpath.yaml.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config carries the file-configurable defaults. Command-line flags always
// win over these.
type Config struct {
	Threshold  float64 `mapstructure:"threshold"`
	Iterations int     `mapstructure:"iterations"`
	Output     string  `mapstructure:"output"`
	Parallel   int     `mapstructure:"parallel"`
	MLMode     bool    `mapstructure:"ml_mode"`
}

// Load reads .hotpath.yaml from the working directory or the home
// directory. A missing file yields the defaults; a malformed one is an
// error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".hotpath")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetDefault("threshold", 10.0)
	v.SetDefault("iterations", 100)
	v.SetDefault("output", "dist")
	v.SetDefault("parallel", 1)
	v.SetDefault("ml_mode", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
