package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
	"github.com/specialistvlad/burstplan/internal/join"
	"github.com/specialistvlad/burstplan/internal/llm"
	"github.com/specialistvlad/burstplan/internal/localsession"
	"github.com/specialistvlad/burstplan/internal/planner"
	"github.com/specialistvlad/burstplan/internal/registry"
	"github.com/specialistvlad/burstplan/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	model    *config.Model
	registry *registry.Registry
	factory  session.SessionFactory
}

// NewApp is the constructor for the main application. It loads the
// configuration files, overlays env and then cfg, registers modules and
// builds the session factory. With no modules the core modules are used.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, env *config.Env, modules ...registry.Module) (*App, error) {
	if env == nil {
		env = &config.Env{}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = env.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = env.LogFormat
	}
	if cfg.HealthcheckPort == 0 {
		cfg.HealthcheckPort = env.HealthcheckPort
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	env.Apply(model)
	if cfg.MaxRounds > 0 {
		model.Engine.MaxRounds = cfg.MaxRounds
	}
	if cfg.Workers > 0 {
		model.Engine.Workers = cfg.Workers
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "max_rounds", model.Engine.MaxRounds, "workers", model.Engine.Workers)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "tools", reg.Names())

	a := &App{outW: outW, logger: logger, config: cfg, model: model, registry: reg}
	if a.factory, err = a.newFactory(ctx, env); err != nil {
		return nil, err
	}
	return a, nil
}

// newFactory picks the planner and decider and instantiates the toolbox.
func (a *App) newFactory(ctx context.Context, env *config.Env) (*localsession.SessionFactory, error) {
	httpClient := &http.Client{Timeout: a.model.Planner.Timeout}

	var (
		p         planner.Planner
		d         join.Decider
		completer llm.Completer
		err       error
	)
	if a.config.PlanFile != "" {
		plans, err := readPlanFile(a.config.PlanFile)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Replaying plans from file.", "path", a.config.PlanFile, "plans", len(plans))
		p, d = planner.NewScripted(plans...), join.Auto{}
	} else {
		completer, err = llm.NewCompleter(a.model.Planner, env, httpClient)
		if err != nil {
			return nil, fmt.Errorf("planner backend: %w", err)
		}
		if completer == nil {
			return nil, errors.New("the scripted planner backend needs --plan-file")
		}
		if p, err = llm.NewPlanner(completer); err != nil {
			return nil, err
		}

		joiner, err := llm.NewCompleter(a.model.Joiner, env, &http.Client{Timeout: a.model.Joiner.Timeout})
		if err != nil {
			return nil, fmt.Errorf("joiner backend: %w", err)
		}
		if joiner == nil {
			d = join.Auto{}
		} else if d, err = llm.NewDecider(joiner); err != nil {
			return nil, err
		}
	}

	deps := registry.Deps{Env: env, HTTPClient: httpClient}
	if completer != nil {
		deps.Completer = completer
	}
	tools, err := a.registry.Instantiate(ctx, deps, a.model.Tools)
	if err != nil {
		return nil, err
	}

	return &localsession.SessionFactory{
		Planner: p,
		Decider: d,
		Tools:   tools,
		Options: localsession.Options{
			MaxRounds: a.model.Engine.MaxRounds,
			Workers:   a.model.Engine.Workers,
			TextOnly:  a.model.Engine.TextOnly,
		},
	}, nil
}

// readPlanFile splits a plan file into one plan per round. Rounds are
// separated by lines holding only PlanSeparator.
func readPlanFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	var (
		plans   []string
		current []string
	)
	flush := func() {
		if text := strings.TrimSpace(strings.Join(current, "\n")); text != "" {
			plans = append(plans, text)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == PlanSeparator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	if len(plans) == 0 {
		return nil, fmt.Errorf("plan file %s holds no plans", path)
	}
	return plans, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the merged configuration model.
func (a *App) Model() *config.Model {
	return a.model
}
