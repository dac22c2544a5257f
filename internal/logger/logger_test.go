package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", opts: nil},
		{name: "json debug", opts: []Option{WithLevel("debug"), WithFormat("json")}},
		{name: "bad level", opts: []Option{WithLevel("loud")}, wantErr: true},
		{name: "bad format", opts: []Option{WithFormat("xml")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(WithFormat("json"), WithOutput(&buf))
	require.NoError(t, err)

	log.WithFields("repo", "o/r").Info("saved issue", "issue", 7)
	log.Debug("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "saved issue", entry["msg"])
	assert.Equal(t, "o/r", entry["repo"])
	assert.EqualValues(t, 7, entry["issue"])
}

func TestTextOutputFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(WithLevel("warn"), WithOutput(&buf))
	require.NoError(t, err)

	log.Info("fetching issues")
	assert.Empty(t, buf.String())

	log.Warn("avatar skipped", "login", "bob")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "avatar skipped")
	assert.Contains(t, buf.String(), `"login": "bob"`)
}

func TestWithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := newLoggerWithCore(core).WithFields("issue", 3)

	log.Warn("attachment skipped", "url", "https://example.com/a.png")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, 3, fields["issue"])
	assert.Equal(t, "https://example.com/a.png", fields["url"])
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		debug     string
		level     string
		format    string
		wantLevel string
		wantFmt   string
	}{
		{name: "defaults", wantLevel: "info", wantFmt: "text"},
		{name: "debug flag", debug: "yes", wantLevel: "debug", wantFmt: "text"},
		{name: "level wins over debug", debug: "1", level: "WARN", wantLevel: "warn", wantFmt: "text"},
		{name: "json format", format: "JSON", wantLevel: "info", wantFmt: "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDebug, tt.debug)
			t.Setenv("LOG_LEVEL", tt.level)
			t.Setenv("LOG_FORMAT", tt.format)

			config := ConfigFromEnv()
			assert.Equal(t, tt.wantLevel, config.Level)
			assert.Equal(t, tt.wantFmt, config.Format)
		})
	}
}
