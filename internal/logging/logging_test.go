package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-client/internal/config"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := map[string]zerolog.Level{
		config.EnvDev:   zerolog.DebugLevel,
		config.EnvProd:  zerolog.InfoLevel,
		config.EnvLocal: zerolog.TraceLevel,
	}
	for env, want := range tests {
		logger, err := New(env, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", env, err)
		}
		if got := logger.GetLevel(); got != want {
			t.Errorf("New(%q) level = %v, want %v", env, got, want)
		}
	}

	if _, err := New("staging", &bytes.Buffer{}); err == nil {
		t.Error("New(staging) error = nil")
	}
}

func TestNewFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(config.EnvProd, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info().Str("task_id", "t1").Msg("created task")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v: %s", err, buf.String())
	}
	for _, field := range []string{"timestamp", "caller", "pid", "env", "task_id", "message"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("log line missing %q: %s", field, buf.String())
		}
	}
}
