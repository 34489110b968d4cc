package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/burstplan/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type flags struct {
	configPaths     []string
	planFile        string
	maxRounds       int
	workers         int
	logFormat       string
	logLevel        string
	healthcheckPort int
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		f      flags
		config *app.Config
	)
	cmd := &cobra.Command{
		Use:   "burstplan [flags] QUERY...",
		Short: "Answer a question by planning tool calls and running them concurrently",
		Long: `burstplan - plan, run in parallel, join, replan.

A planner turns the query into a numbered plan of tool calls. Independent
calls run concurrently; a join step then either answers or asks for another
round, up to --max-rounds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			query := strings.TrimSpace(strings.Join(positional, " "))
			if query == "" {
				slog.Debug("No query provided, printing usage and exiting.")
				return cmd.Help()
			}

			logFormat := strings.ToLower(f.logFormat)
			logLevel := strings.ToLower(f.logLevel)
			cfg, err := app.NewConfig(app.Config{
				ConfigPaths:     f.configPaths,
				PlanFile:        f.planFile,
				Query:           query,
				MaxRounds:       f.maxRounds,
				Workers:         f.workers,
				LogFormat:       logFormat,
				LogLevel:        logLevel,
				HealthcheckPort: f.healthcheckPort,
			})
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			config = cfg
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	fs := cmd.Flags()
	fs.StringSliceVarP(&f.configPaths, "config", "c", nil, "Path to an .hcl file or a directory of .hcl files. Repeatable.")
	fs.StringVar(&f.planFile, "plan-file", "", "Replay plans from this file (rounds separated by '---') instead of calling a model.")
	fs.IntVar(&f.maxRounds, "max-rounds", 0, "Maximum number of planning rounds. 0 keeps the configured value.")
	fs.IntVar(&f.workers, "workers", 0, "Number of tools that may run at once. 0 keeps the configured value.")
	fs.StringVar(&f.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&f.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")

	if err := cmd.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "query", config.Query)
	return config, false, nil
}
