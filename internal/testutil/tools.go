package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/specialistvlad/burstplan/internal/plan"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// ExecutionRecord holds the start and end times of a single tool call.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// FuncTool adapts a function to registry.Tool.
type FuncTool struct {
	ToolName string
	Desc     string
	Fn       func(ctx context.Context, args registry.Args) (cty.Value, error)
}

func (f *FuncTool) Name() string { return f.ToolName }

func (f *FuncTool) Description() string {
	if f.Desc == "" {
		return f.ToolName + "(...)"
	}
	return f.Desc
}

func (f *FuncTool) Invoke(ctx context.Context, args registry.Args) (cty.Value, error) {
	return f.Fn(ctx, args)
}

// Lookup returns a tool that answers every call from a fixed table keyed by
// the rendered first argument, failing for unknown keys.
func Lookup(name string, table map[string]cty.Value) *FuncTool {
	return &FuncTool{
		ToolName: name,
		Fn: func(_ context.Context, args registry.Args) (cty.Value, error) {
			key := args.StringOr("", "query", "arg0")
			v, ok := table[key]
			if !ok {
				return cty.NilVal, errors.New("no result for " + key)
			}
			return v, nil
		},
	}
}

// Echo returns a tool that returns its "value" or first positional
// argument, or its only argument whatever its name.
func Echo(name string) *FuncTool {
	return &FuncTool{
		ToolName: name,
		Fn: func(_ context.Context, args registry.Args) (cty.Value, error) {
			if v, _, ok := args.Lookup("value", "arg0"); ok {
				return v, nil
			}
			if len(args) == 1 {
				for _, v := range args {
					return v, nil
				}
			}
			return cty.StringVal(""), nil
		},
	}
}

// Failing returns a tool whose every call fails with err.
func Failing(name string, err error) *FuncTool {
	return &FuncTool{
		ToolName: name,
		Fn: func(context.Context, registry.Args) (cty.Value, error) {
			return cty.NilVal, err
		},
	}
}

// Panicking returns a tool whose every call panics.
func Panicking(name string) *FuncTool {
	return &FuncTool{
		ToolName: name,
		Fn: func(context.Context, registry.Args) (cty.Value, error) {
			panic(name + " exploded")
		},
	}
}

// Sleeper sleeps for a fixed duration and records when each call ran. Calls
// are keyed by their "id" argument.
type Sleeper struct {
	ToolName string
	Sleep    time.Duration

	mu      sync.Mutex
	records map[string]ExecutionRecord
	running int
	peak    int
}

// NewSleeper creates a sleeper tool.
func NewSleeper(name string, d time.Duration) *Sleeper {
	return &Sleeper{ToolName: name, Sleep: d, records: make(map[string]ExecutionRecord)}
}

func (s *Sleeper) Name() string        { return s.ToolName }
func (s *Sleeper) Description() string { return s.ToolName + "(id) sleeps then returns id" }

func (s *Sleeper) Invoke(ctx context.Context, args registry.Args) (cty.Value, error) {
	id := args.StringOr("", "id", "arg0")

	s.mu.Lock()
	s.running++
	s.peak = max(s.peak, s.running)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}()

	start := time.Now()
	select {
	case <-time.After(s.Sleep):
	case <-ctx.Done():
		return cty.NilVal, ctx.Err()
	}
	end := time.Now()

	s.mu.Lock()
	s.records[id] = ExecutionRecord{Start: start, End: end}
	s.mu.Unlock()
	return cty.StringVal(id), nil
}

// Record returns the execution record of the call with the given id.
func (s *Sleeper) Record(id string) (ExecutionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}

// Peak returns the highest number of calls that ran at the same time.
func (s *Sleeper) Peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// MustParse parses plan text or panics.
func MustParse(text string) *plan.Plan {
	p, err := plan.Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}
