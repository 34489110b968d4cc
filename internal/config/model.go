// Package config defines the format-agnostic configuration model of the
// engine and the Loader contract implemented by format adapters.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model. Missing paths are not an error.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

const (
	DefaultMaxRounds = 3
	DefaultWorkers   = 10
)

// Model is the complete engine configuration.
type Model struct {
	Engine  Engine
	Planner Backend
	Joiner  Backend
	// Tools lists the tools to instantiate, in declaration order. An empty
	// list means every registered tool with default settings.
	Tools []Tool
}

// Engine holds round and scheduling limits.
type Engine struct {
	MaxRounds int
	Workers   int
	// TextOnly disables typed passthrough substitution.
	TextOnly bool
}

// Backend selects and tunes a language model collaborator.
type Backend struct {
	// Provider is "openai", "anthropic" or "scripted".
	Provider    string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Tool is one `tool "<name>" { ... }` block.
type Tool struct {
	Name  string
	Attrs map[string]cty.Value
}

// Default returns the configuration used when no file is given.
func Default() *Model {
	return &Model{
		Engine: Engine{MaxRounds: DefaultMaxRounds, Workers: DefaultWorkers},
		Planner: Backend{
			Provider: "openai",
			Model:    "gpt-4o",
			Timeout:  120 * time.Second,
		},
		Joiner: Backend{
			Provider: "openai",
			Model:    "gpt-4o",
			Timeout:  120 * time.Second,
		},
	}
}

// Validate checks the invariants the engine relies on.
func (m *Model) Validate() error {
	if m.Engine.MaxRounds < 1 {
		return fmt.Errorf("engine.max_rounds must be at least 1, got %d", m.Engine.MaxRounds)
	}
	if m.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1, got %d", m.Engine.Workers)
	}
	for _, b := range []struct {
		block string
		cfg   Backend
	}{{"planner", m.Planner}, {"joiner", m.Joiner}} {
		switch b.cfg.Provider {
		case "openai", "anthropic", "scripted":
		default:
			return fmt.Errorf("%s.backend must be one of openai, anthropic, scripted; got %q", b.block, b.cfg.Provider)
		}
	}
	seen := make(map[string]struct{}, len(m.Tools))
	for _, t := range m.Tools {
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("tool %q is declared more than once", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}
