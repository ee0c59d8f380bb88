// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all tunables for the server.
type Config struct {
	DatabasePath string `envconfig:"DATABASE_PATH" default:"./data/splitsmart.db"`
	Port         int    `envconfig:"PORT" default:"8080"`
	JWTSecret    []byte `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiry    int    `envconfig:"JWT_EXPIRY" default:"86400"` // seconds, default 1 day
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"text"` // text or json
	RateLimit    int    `envconfig:"RATE_LIMIT" default:"20"`   // requests/second per client
	RateBurst    int    `envconfig:"RATE_BURST" default:"40"`
	BodyLimit    string `envconfig:"BODY_LIMIT" default:"250K"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error; missing required variables are.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return c, nil
}
