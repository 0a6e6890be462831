package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ChangesConfig holds the configuration for the change feed tailer.
type ChangesConfig struct {
	Environment

	Client
	Changes
}

// Changes holds the change stream parameters.
type Changes struct {
	Cursor            string        `envconfig:"CHANGES_CURSOR" default:"0"`
	Limit             int           `envconfig:"CHANGES_LIMIT" default:"100"`
	Sort              string        `envconfig:"CHANGES_SORT" default:""`
	Query             string        `envconfig:"CHANGES_QUERY" default:""`
	Filters           string        `envconfig:"CHANGES_FILTERS" default:""`
	BufferCapacity    int           `envconfig:"CHANGES_BUFFER_CAPACITY" default:"500"`
	ReconnectAttempts int           `envconfig:"CHANGES_RECONNECT_ATTEMPTS" default:"5"`
	ReconnectBackoff  time.Duration `envconfig:"CHANGES_RECONNECT_BACKOFF" default:"500ms"`
}

// InitChangesConfig initializes the change feed tailer configuration.
func InitChangesConfig() (*ChangesConfig, error) {
	var cfg ChangesConfig
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
