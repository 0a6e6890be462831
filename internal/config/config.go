package config

import (
	"time"
)

const envPrefix = ""

// Environment holds the runtime environment name.
type Environment struct {
	Env string `envconfig:"ENV" default:"development"`
}

// Client holds the configuration for the docsync API client. Streams are
// open-ended, so only the time to response headers is bounded.
type Client struct {
	BaseURL               string        `envconfig:"DOCSYNC_BASE_URL" default:"http://localhost:8080/api"`
	ResponseHeaderTimeout time.Duration `envconfig:"DOCSYNC_RESPONSE_HEADER_TIMEOUT" default:"10s"`
}
