//go:build !windows

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failingMigrationPlan = `
bootstrap:
  log_level: error
phases:
  - banner: "Installing dependencies"
    steps:
      - id: "pip-install-editable"
        execution:
          executable_path: "/bin/sh"
          args: ["-c", "echo installed"]
  - banner: "Running migrations"
    steps:
      - id: "alembic-upgrade"
        execution:
          executable_path: "/bin/sh"
          args: ["-c", "echo migration conflict 1>&2; exit 3"]
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_ExitCodeFromFailingStep(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"--config", writePlan(t, failingMigrationPlan)}, &stdout, &stderr)

	assert.Equal(t, 3, code)
	assert.Equal(t, "=== Installing dependencies ===\ninstalled\n=== Running migrations ===\n", stdout.String())
	assert.Contains(t, stderr.String(), "migration conflict")
	assert.Contains(t, stderr.String(), "Bootstrap failed")
}

func TestRun_DryRunDefaultPlan(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"--dry-run", "--log-level", "error"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "=== Installing dependencies ===\n=== Running migrations ===\n=== Build complete ===\n", stdout.String())
	assert.Contains(t, stderr.String(), "+ pip install --upgrade pip")
	assert.Contains(t, stderr.String(), "+ pip install -e .")
	assert.Contains(t, stderr.String(), "+ alembic upgrade head")
}

func TestRun_Validate(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"--validate"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Plan: 2 phases, 3/3 steps enabled")
	assert.Empty(t, stderr.String())
}

func TestRun_BadInvocation(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{name: "unknown flag", argv: []string{"--bogus"}},
		{name: "positional argument", argv: []string{"extra"}},
		{name: "missing config", argv: []string{"--config", filepath.Join(os.TempDir(), "hsu-bootstrap-missing.yaml")}},
		{name: "bad log level", argv: []string{"--dry-run", "--log-level", "loud"}},
		{name: "bad log format", argv: []string{"--dry-run", "--log-format", "bogus"}},
		{name: "bad log format with validate", argv: []string{"--validate", "--log-format", "bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(tt.argv, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 0, run([]string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "--dry-run")
}
