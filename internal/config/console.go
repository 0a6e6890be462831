package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ConsoleConfig holds the configuration for the run console.
type ConsoleConfig struct {
	Environment

	Client
	Console
}

// Console holds the run console parameters.
type Console struct {
	ConfigurationID string        `envconfig:"CONSOLE_CONFIGURATION_ID" default:""`
	Mode            string        `envconfig:"CONSOLE_MODE" default:"validation"`
	Options         string        `envconfig:"CONSOLE_OPTIONS" default:""`
	BufferCapacity  int           `envconfig:"CONSOLE_BUFFER_CAPACITY" default:"1000"`
	FlushInterval   time.Duration `envconfig:"CONSOLE_FLUSH_INTERVAL" default:"16ms"`
}

// InitConsoleConfig initializes the run console configuration.
func InitConsoleConfig() (*ConsoleConfig, error) {
	var cfg ConsoleConfig
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
