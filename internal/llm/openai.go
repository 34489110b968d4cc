package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
)

// OpenAI is a Completer backed by the chat completions API of OpenAI or any
// compatible server.
type OpenAI struct {
	client  *openai.Client
	backend config.Backend
}

// NewOpenAI creates an OpenAI completer.
func NewOpenAI(apiKey string, b config.Backend, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	}
	if b.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(b.BaseURL, "/")+"/"))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, backend: b}
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.backend.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if o.backend.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Opt(int64(o.backend.MaxTokens))
	}
	params.Temperature = openai.Opt(o.backend.Temperature)

	ctxlog.FromContext(ctx).Debug("Calling model.", "provider", "openai", "model", o.backend.Model)
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai request failed (status=%d): %s", apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyCompletion)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyCompletion)
	}
	return content, nil
}
