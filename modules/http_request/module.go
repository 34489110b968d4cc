package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const (
	defaultTimeout = 30 * time.Second
	defaultMaxBody = 64 << 10
)

const description = `http_request(url: str, method: str = "GET") -> {status_code: int, body: str}
 - Fetches a URL and returns the status code and the response body as text.
 - Long bodies are truncated.`

// Tool performs HTTP requests.
type Tool struct {
	client  *http.Client
	timeout time.Duration
	maxBody int64
}

func (t *Tool) Name() string        { return "http_request" }
func (t *Tool) Description() string { return description }

// New builds the tool from its settings: timeout (duration string) and
// max_body (bytes).
func New(_ context.Context, deps registry.Deps, settings registry.Args) (registry.Tool, error) {
	timeout, err := settings.Duration(defaultTimeout, "timeout")
	if err != nil {
		return nil, err
	}
	maxBody, err := settings.Int(defaultMaxBody, "max_body")
	if err != nil {
		return nil, err
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Tool{client: client, timeout: timeout, maxBody: int64(maxBody)}, nil
}

// Invoke implements registry.Tool.
func (t *Tool) Invoke(ctx context.Context, args registry.Args) (cty.Value, error) {
	url, err := args.String("url", "arg0")
	if err != nil {
		return cty.NilVal, err
	}
	method := strings.ToUpper(args.StringOr(http.MethodGet, "method", "arg1"))

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", method, "url", url)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody))
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to read response body: %w", err)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode)),
		"body":        cty.StringVal(string(bodyBytes)),
	}), nil
}

// Register registers the tool with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTool("http_request", &registry.RegisteredTool{
		Description: description,
		New:         New,
	})
}
