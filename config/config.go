// Package config holds the settings shared by the command-line tools.
// Values come from defaults, then an optional YAML file, then the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/blockfs/common"
)

const (
	envVarPrefix = "BLOCKFS"

	OutputText = "text"
	OutputYAML = "yaml"
)

type Config struct {
	ImageSize uint64 `envconfig:"IMAGE_SIZE" yaml:"imageSize"`
	Debug     uint64 `envconfig:"DEBUG"      yaml:"debug"`
	Lock      bool   `envconfig:"LOCK"       yaml:"lock"`
	Output    string `envconfig:"OUTPUT"     yaml:"output"`
}

func Default() Config {
	return Config{
		ImageSize: common.ONEMB,
		Debug:     0,
		Lock:      true,
		Output:    OutputText,
	}
}

// Load reads the file named by BLOCKFS_CONFIG_FILE, if set, and then the
// BLOCKFS_* environment variables.
func Load() (*Config, error) {
	c := Default()
	if configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE"); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.ImageSize == 0 {
		return fmt.Errorf("imageSize / %s_IMAGE_SIZE must be positive: %w",
			envVarPrefix, common.ErrInvalidConfig)
	}
	switch c.Output {
	case OutputText, OutputYAML:
	default:
		return fmt.Errorf("output / %s_OUTPUT %q not one of %s, %s: %w",
			envVarPrefix, c.Output, OutputText, OutputYAML, common.ErrInvalidConfig)
	}
	return nil
}
