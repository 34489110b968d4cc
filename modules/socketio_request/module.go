// Package socketio_request provides a tool that emits one socket.io event and
// waits for a reply event.
package socketio_request

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/ctyconv"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const defaultTimeout = 10 * time.Second

const description = `socketio_request(emit_event: str, emit_data: any = null, on_event: str = emit_event) -> {response_data: any}
 - Sends one event to the configured socket.io server and waits for the reply event.
 - on_event defaults to the emitted event name.`

// Settings are the attributes of the tool block.
type Settings struct {
	URL                *url.URL
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Tool talks to one socket.io server. Every call opens its own connection.
type Tool struct {
	settings Settings
}

func (t *Tool) Name() string        { return "socketio_request" }
func (t *Tool) Description() string { return description }

// New builds the tool from its settings: url (required), namespace,
// insecure_skip_verify and timeout.
func New(_ context.Context, _ registry.Deps, settings registry.Args) (registry.Tool, error) {
	raw, err := settings.String("url")
	if err != nil {
		return nil, fmt.Errorf("socketio_request needs a server: %w", err)
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("url %q must be absolute", raw)
	}
	insecure, err := settings.Bool(false, "insecure_skip_verify")
	if err != nil {
		return nil, err
	}
	timeout, err := settings.Duration(defaultTimeout, "timeout")
	if err != nil {
		return nil, err
	}
	return &Tool{settings: Settings{
		URL:                parsedURL,
		Namespace:          settings.StringOr("/", "namespace"),
		InsecureSkipVerify: insecure,
		Timeout:            timeout,
	}}, nil
}

// request is one emit/await exchange.
type request struct {
	emitEvent string
	emitData  any
	onEvent   string
	timeout   time.Duration
}

func parseRequest(args registry.Args, def time.Duration) (request, error) {
	emit, err := args.String("emit_event", "arg0")
	if err != nil {
		return request{}, err
	}
	var data any
	if v, _, ok := args.Lookup("emit_data", "arg1"); ok {
		data, err = ctyconv.ToNative(v)
		if err != nil {
			return request{}, fmt.Errorf("failed to convert emit_data: %w", err)
		}
	}
	timeout, err := args.Duration(def, "timeout")
	if err != nil {
		return request{}, err
	}
	return request{
		emitEvent: emit,
		emitData:  data,
		onEvent:   args.StringOr(emit, "on_event", "arg2"),
		timeout:   timeout,
	}, nil
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value cty.Value
	err   error
}

// Invoke implements registry.Tool.
func (t *Tool) Invoke(ctx context.Context, args registry.Args) (cty.Value, error) {
	req, err := parseRequest(args, t.settings.Timeout)
	if err != nil {
		return cty.NilVal, err
	}

	logger := ctxlog.FromContext(ctx).With("url", t.settings.URL.String(), "onEvent", req.onEvent, "emitEvent", req.emitEvent)
	logger.Debug("Request started")
	defer logger.Debug("Request finished")

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	finish := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, req.timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", t.settings.URL.Scheme, t.settings.URL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(t.settings.URL.Path)
	if t.settings.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(t.settings.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", t.settings.Namespace, "sid", io.Id())
		jsonData, _ := json.Marshal(req.emitData)
		logger.Info("Emitting event", "event", req.emitEvent, "data", string(jsonData))
		io.Emit(req.emitEvent, req.emitData)
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		finish(opResult{err: fmt.Errorf("socket.io connection failed: %w", err)})
	})

	io.On(types.EventName(req.onEvent), func(data ...any) {
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		v, err := ctyconv.FromNative(payload)
		if err != nil {
			finish(opResult{err: fmt.Errorf("failed to convert received data: %w", err)})
			return
		}
		finish(opResult{value: cty.ObjectVal(map[string]cty.Value{"response_data": v})})
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return cty.NilVal, fmt.Errorf("timed out after connecting while waiting for event '%s'", req.onEvent)
		}
		return cty.NilVal, errors.New("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return cty.NilVal, res.err
		}
		logger.Info("Successfully received response event")
		return res.value, nil
	}
}

// Register registers the tool with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTool("socketio_request", &registry.RegisteredTool{
		Description:   description,
		New:           New,
		NeedsSettings: true,
	})
}
