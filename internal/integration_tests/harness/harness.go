// Package harness runs the whole application from HCL text in tests.
package harness

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/burstplan/internal/app"
	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/hcl_adapter"
	"github.com/specialistvlad/burstplan/internal/session"
	"github.com/specialistvlad/burstplan/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Result is the outcome of one application run.
type Result struct {
	Session *session.Result
	Err     error
	Logs    *testutil.SafeBuffer
}

// Run writes files into a temporary directory, points the app at every
// .hcl file and the .plan file among them, and answers query. The process
// environment is never read; env is the whole environment.
func Run(t *testing.T, files map[string]string, env map[string]string, query string) Result {
	t.Helper()

	dir := t.TempDir()
	cfg := app.Config{Query: query, LogLevel: "debug", LogFormat: "text"}
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		if filepath.Ext(name) == ".plan" {
			cfg.PlanFile = p
		}
	}
	cfg.ConfigPaths = []string{dir}

	if env == nil {
		env = map[string]string{}
	}
	e, err := config.LoadEnvFrom(env)
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	if os.Getenv("BURSTPLAN_TEST_LOGS") == "true" {
		t.Cleanup(func() { t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String()) })
	}

	c, err := app.NewConfig(cfg)
	require.NoError(t, err)
	a, err := app.NewApp(logs, c, hcl_adapter.NewLoader(), e)
	if err != nil {
		return Result{Err: err, Logs: logs}
	}
	res, err := a.Run(context.Background())
	return Result{Session: res, Err: err, Logs: logs}
}

// ChatReply picks the reply for one chat completion request.
type ChatReply func(system, user string) string

// ChatServer is an OpenAI compatible chat completions endpoint.
type ChatServer struct {
	*httptest.Server

	mu    sync.Mutex
	calls []ChatCall
}

// ChatCall is one recorded request.
type ChatCall struct {
	System string
	User   string
}

// NewChatServer starts a server answering with reply.
func NewChatServer(t *testing.T, reply ChatReply) *ChatServer {
	t.Helper()
	s := &ChatServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var call ChatCall
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				call.System = m.Content
			case "user":
				call.User = m.Content
			}
		}
		s.mu.Lock()
		s.calls = append(s.calls, call)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "test",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": reply(call.System, call.User)},
			}},
		})
	}))
	t.Cleanup(s.Close)
	return s
}

// Calls returns the recorded requests whose system prompt contains marker.
func (s *ChatServer) Calls(marker string) []ChatCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ChatCall
	for _, c := range s.calls {
		if strings.Contains(c.System, marker) {
			out = append(out, c)
		}
	}
	return out
}

// Prompt markers identifying which collaborator sent a request.
const (
	PlannerMarker = "create a plan to solve it"
	JoinerMarker  = "Solve a question answering task"
	MathMarker    = "Translate a math problem"
)
