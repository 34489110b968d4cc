package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // hcl files or directories
	PlanFile    string   // replays plans instead of asking a model
	Query       string

	// Zero means "not set on the command line".
	MaxRounds int
	Workers   int

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// PlanSeparator splits the rounds of a plan file.
const PlanSeparator = "---"

func NewConfig(cfg Config) (*Config, error) {
	if strings.TrimSpace(cfg.Query) == "" {
		return nil, errors.New("a query is required")
	}
	if cfg.MaxRounds < 0 {
		return nil, fmt.Errorf("max rounds must be at least 1, got %d", cfg.MaxRounds)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log level must be one of debug, info, warn, error; got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("log format must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
