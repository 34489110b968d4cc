package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
)

const defaultAnthropicMaxTokens = 4096

// Anthropic is a Completer backed by the Anthropic messages API.
type Anthropic struct {
	client  *anthropic.Client
	backend config.Backend
}

// NewAnthropic creates an Anthropic completer.
func NewAnthropic(apiKey string, b config.Backend, httpClient *http.Client) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	}
	if b.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(b.BaseURL, "/")+"/"))
	}
	client := anthropic.NewClient(opts...)
	return &Anthropic{client: &client, backend: b}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	maxTokens := int64(defaultAnthropicMaxTokens)
	if a.backend.MaxTokens > 0 {
		maxTokens = int64(a.backend.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.backend.Model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(a.backend.Temperature),
	}

	ctxlog.FromContext(ctx).Debug("Calling model.", "provider", "anthropic", "model", a.backend.Model)
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("anthropic: %w", ErrEmptyCompletion)
	}
	return sb.String(), nil
}
