package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// ErrToolNotFound is returned when a plan calls a tool the session does not have.
var ErrToolNotFound = errors.New("tool not found")

// Tool is a named, callable capability available to plans.
type Tool interface {
	Name() string
	// Description tells the planner what the tool does and how to call it.
	Description() string
	// Invoke runs the tool. It must honor ctx and apply its own timeouts.
	Invoke(ctx context.Context, args Args) (cty.Value, error)
}

// Completer is a minimal text-completion collaborator tools may use.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Deps are the shared resources handed to every tool factory.
type Deps struct {
	Env        *config.Env
	HTTPClient *http.Client
	// Completer is nil when no language model is configured.
	Completer Completer
}

// Factory builds a tool from its settings.
type Factory func(ctx context.Context, deps Deps, settings Args) (Tool, error)

// RegisteredTool is the compiled Go side of a tool.
type RegisteredTool struct {
	Description string
	New         Factory
	// NeedsSettings keeps the tool out of the default toolbox; it is only
	// built when a tool block names it.
	NeedsSettings bool
}

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered tools of a single application instance.
type Registry struct {
	tools map[string]*RegisteredTool
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{tools: make(map[string]*RegisteredTool)}
}

// RegisterTool registers a tool factory under name.
func (r *Registry) RegisterTool(name string, tool *RegisteredTool) {
	if _, exists := r.tools[name]; exists {
		panic(fmt.Sprintf("tool with name '%s' already registered", name))
	}
	slog.Debug("Registering tool.", "name", name)
	r.tools[name] = tool
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate builds a Toolbox from the configured tool blocks. With no
// blocks every registered tool that works without settings is built.
func (r *Registry) Instantiate(ctx context.Context, deps Deps, blocks []config.Tool) (*Toolbox, error) {
	logger := ctxlog.FromContext(ctx)

	if len(blocks) == 0 {
		for _, name := range r.Names() {
			if r.tools[name].NeedsSettings {
				logger.Debug("Tool skipped, it needs a tool block.", "tool", name)
				continue
			}
			blocks = append(blocks, config.Tool{Name: name})
		}
	}

	box := NewToolbox()
	for _, b := range blocks {
		reg, ok := r.tools[b.Name]
		if !ok {
			return nil, fmt.Errorf("tool %q is configured but not compiled into this binary (available: %v)", b.Name, r.Names())
		}
		tool, err := reg.New(ctx, deps, Args(b.Attrs))
		if err != nil {
			return nil, fmt.Errorf("failed to create tool %q: %w", b.Name, err)
		}
		if err := box.Add(tool); err != nil {
			return nil, err
		}
		logger.Debug("Tool instantiated.", "tool", b.Name, "settings", len(b.Attrs))
	}
	return box, nil
}

// Descriptor is what the planner learns about a tool.
type Descriptor struct {
	Name        string
	Description string
}

// Toolbox is the set of tools available to one session.
type Toolbox struct {
	tools map[string]Tool
}

// NewToolbox creates an empty toolbox.
func NewToolbox(tools ...Tool) *Toolbox {
	b := &Toolbox{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		b.tools[t.Name()] = t
	}
	return b
}

// Add puts t in the toolbox.
func (b *Toolbox) Add(t Tool) error {
	if _, exists := b.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q added twice", t.Name())
	}
	b.tools[t.Name()] = t
	return nil
}

// Lookup returns the tool called name.
func (b *Toolbox) Lookup(name string) (Tool, error) {
	t, ok := b.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	return t, nil
}

// Descriptors lists the tools ordered by name.
func (b *Toolbox) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(b.tools))
	for _, t := range b.tools {
		out = append(out, Descriptor{Name: t.Name(), Description: t.Description()})
	}
	slices.SortFunc(out, func(x, y Descriptor) int { return strings.Compare(x.Name, y.Name) })
	return out
}
