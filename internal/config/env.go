package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds secrets and overrides read from the process environment.
// Zero values mean "not set".
type Env struct {
	OpenAIKey       string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	AnthropicKey    string `env:"ANTHROPIC_API_KEY"`
	AnthropicURL    string `env:"ANTHROPIC_BASE_URL"`
	TavilyKey       string `env:"TAVILY_API_KEY"`
	LogLevel        string `env:"BURSTPLAN_LOG_LEVEL"`
	LogFormat       string `env:"BURSTPLAN_LOG_FORMAT"`
	MaxRounds       int    `env:"BURSTPLAN_MAX_ROUNDS"`
	Workers         int    `env:"BURSTPLAN_WORKERS"`
	HealthcheckPort int    `env:"BURSTPLAN_HEALTHCHECK_PORT"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (*Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &e, nil
}

// LoadEnvFrom reads Env from the given variables instead of the process
// environment.
func LoadEnvFrom(vars map[string]string) (*Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &e, nil
}

// Apply overlays the non-zero engine overrides of e onto m.
func (e *Env) Apply(m *Model) {
	if e.MaxRounds > 0 {
		m.Engine.MaxRounds = e.MaxRounds
	}
	if e.Workers > 0 {
		m.Engine.Workers = e.Workers
	}
	if e.OpenAIBaseURL != "" {
		for _, b := range []*Backend{&m.Planner, &m.Joiner} {
			if b.Provider == "openai" && b.BaseURL == "" {
				b.BaseURL = e.OpenAIBaseURL
			}
		}
	}
	if e.AnthropicURL != "" {
		for _, b := range []*Backend{&m.Planner, &m.Joiner} {
			if b.Provider == "anthropic" && b.BaseURL == "" {
				b.BaseURL = e.AnthropicURL
			}
		}
	}
}
