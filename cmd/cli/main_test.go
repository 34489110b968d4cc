package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ConfigError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An HCL file with a syntax error fails the loading phase inside app.NewApp().
	invalidHCL := `
		engine {
			max_rounds = 2
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600), "failed to set up test file")

	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{"-c", filePath, "--log-level", "error", "what now?"})

	// --- Assert ---
	require.Error(t, runErr)
	assert.Contains(t, runErr.Error(), "failed to load configuration")
	assert.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_PlanFile(t *testing.T) {
	t.Parallel()

	planPath := filepath.Join(t.TempDir(), "rounds.plan")
	require.NoError(t, os.WriteFile(planPath, []byte("1. math(\"6 * 7\")\n2. join()\n<END_OF_PLAN>"), 0o600))

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--plan-file", planPath, "--log-level", "error", "six", "times", "seven"})
	require.NoError(t, err)
	assert.Equal(t, "42", strings.TrimSpace(out.String()))
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// Providing an unknown flag will cause cli.Parse to return an error.
	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}
