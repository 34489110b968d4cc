// Package llm connects the engine to chat-completion language models. It
// provides two completer backends (OpenAI and Anthropic) and, on top of any
// completer, the language-model planner and join decider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/registry"
)

// Completer sends one system and one user message and returns the reply
// text. It satisfies registry.Completer so tools can share the backend.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

var _ registry.Completer = Completer(nil)

// ErrEmptyCompletion is returned when a backend answers without any text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// ErrMissingAPIKey is returned when a backend is selected but its key is not set.
var ErrMissingAPIKey = errors.New("api key is not set")

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// NewCompleter builds the completer selected by b. It returns (nil, nil) for
// the "scripted" provider, which needs no model.
func NewCompleter(b config.Backend, env *config.Env, httpClient *http.Client) (Completer, error) {
	if env == nil {
		env = &config.Env{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: b.Timeout}
	}
	switch b.Provider {
	case "openai":
		if env.OpenAIKey == "" {
			return nil, fmt.Errorf("openai backend: OPENAI_API_KEY %w", ErrMissingAPIKey)
		}
		return NewOpenAI(env.OpenAIKey, b, httpClient), nil
	case "anthropic":
		if env.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic backend: ANTHROPIC_API_KEY %w", ErrMissingAPIKey)
		}
		return NewAnthropic(env.AnthropicKey, b, httpClient), nil
	case "scripted":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", b.Provider)
	}
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
