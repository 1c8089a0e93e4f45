package logging

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	lines []string
}

func (r *recordingSink) funcs() LogFuncs {
	record := func(level string) LogFunc {
		return func(format string, args ...interface{}) {
			r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
		}
	}
	return LogFuncs{
		Debugf: record("debug"),
		Infof:  record("info"),
		Warnf:  record("warn"),
		Errorf: record("error"),
	}
}

func TestLogger_PrefixAndLevels(t *testing.T) {
	sink := &recordingSink{}
	logger := NewLogger("run: abc, ", sink.funcs())

	logger.Debugf("d %d", 1)
	logger.Infof("i %s", "x")
	logger.Warnf("w")
	logger.Errorf("e")
	logger.LogLevelf(LogLevelInfo, "lvl")

	assert.Equal(t, []string{
		"debug run: abc, d 1",
		"info run: abc, i x",
		"warn run: abc, w",
		"error run: abc, e",
		"info run: abc, lvl",
	}, sink.lines)
}

func TestNopLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNopLogger().Errorf("ignored %d", 1)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input     string
		expected  int
		shouldErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"verbose", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNewZapLogger_WritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultZapConfig()
	config.Level = "warn"
	config.Format = "json"
	config.Writer = &buf

	logger, err := NewZapLogger(config, "run: r1, ")
	require.NoError(t, err)

	logger.Infof("hidden")
	logger.Warnf("step %s failed", "pip-upgrade")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "run: r1, step pip-upgrade failed")
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat(""))
	assert.NoError(t, ValidateFormat("console"))
	assert.NoError(t, ValidateFormat("json"))
	assert.Error(t, ValidateFormat("bogus"))
	assert.Error(t, ValidateFormat("JSON"))
}

func TestNewZapLogger_InvalidFormat(t *testing.T) {
	config := DefaultZapConfig()
	config.Format = "bogus"

	_, err := NewZapLogger(config, "")
	assert.Error(t, err)
}

func TestNewZapLogger_InvalidLevel(t *testing.T) {
	config := DefaultZapConfig()
	config.Level = "loud"

	_, err := NewZapLogger(config, "")
	assert.Error(t, err)
}
