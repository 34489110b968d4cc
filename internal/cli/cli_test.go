package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{
		"-c", "a.hcl", "--config", "conf.d",
		"--plan-file", "rounds.plan",
		"--max-rounds", "4", "--workers", "2",
		"--log-level", "DEBUG", "--log-format", "json",
		"--healthcheck-port", "8080",
		"how", "old", "is", "Cookie?",
	}, out)
	require.NoError(t, err)
	assert.False(t, exit)

	assert.Equal(t, []string{"a.hcl", "conf.d"}, cfg.ConfigPaths)
	assert.Equal(t, "rounds.plan", cfg.PlanFile)
	assert.Equal(t, "how old is Cookie?", cfg.Query)
	assert.Equal(t, 4, cfg.MaxRounds)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 8080, cfg.HealthcheckPort)
}

func TestParse_ExitsCleanly(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--nope", "q"}, "unknown flag: --nope"},
		{"bad level", []string{"--log-level", "loud", "q"}, "log level"},
		{"bad format", []string{"--log-format", "xml", "q"}, "log format"},
		{"negative rounds", []string{"--max-rounds", "-1", "q"}, "max rounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tt.want)
		})
	}
}
