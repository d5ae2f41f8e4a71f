package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestClientReaderDefaults(t *testing.T) {
	t.Setenv(ClientConfigFileEnv, "")

	cfg, err := NewClientEnvReader("").Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:3333" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.API.ReadRetries != 2 {
		t.Errorf("ReadRetries = %d, want 2", cfg.API.ReadRetries)
	}
	if cfg.API.RetryBackoff != 300*time.Millisecond {
		t.Errorf("RetryBackoff = %v, want 300ms", cfg.API.RetryBackoff)
	}
	if cfg.Env != EnvProd {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProd)
	}
	if cfg.TokenFile != DefaultTokenFile() {
		t.Errorf("TokenFile = %q, want %q", cfg.TokenFile, DefaultTokenFile())
	}
}

func TestClientReaderEnv(t *testing.T) {
	t.Setenv(ClientConfigFileEnv, "")
	t.Setenv("TODO_API_URL", "https://todo.example.com")
	t.Setenv("TODO_API_READ_RETRIES", "0")
	t.Setenv("TODO_TOKEN_FILE", "/tmp/todo-token.json")

	cfg, err := NewClientEnvReader("").Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.API.BaseURL != "https://todo.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.ReadRetries != 0 {
		t.Errorf("ReadRetries = %d, want 0", cfg.API.ReadRetries)
	}
	if cfg.TokenFile != "/tmp/todo-token.json" {
		t.Errorf("TokenFile = %q", cfg.TokenFile)
	}
}

func TestClientReaderFile(t *testing.T) {
	path := writeFile(t, "todo.yaml", `
env: dev
api:
  base_url: http://api.internal:8080
  timeout: 3s
  read_retries: 4
token_file: /var/lib/todo/session.json
`)
	t.Setenv(ClientConfigFileEnv, path)
	t.Setenv("TODO_API_TIMEOUT", "7s")

	cfg, err := NewClientEnvReader("").Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Env != EnvDev {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDev)
	}
	if cfg.API.BaseURL != "http://api.internal:8080" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want the environment to win", cfg.API.Timeout)
	}
	if cfg.API.ReadRetries != 4 {
		t.Errorf("ReadRetries = %d, want 4", cfg.API.ReadRetries)
	}
	if cfg.API.RetryBackoff != 300*time.Millisecond {
		t.Errorf("RetryBackoff = %v, want default", cfg.API.RetryBackoff)
	}
	if cfg.TokenFile != "/var/lib/todo/session.json" {
		t.Errorf("TokenFile = %q", cfg.TokenFile)
	}
}

func TestClientReaderExplicitPathWins(t *testing.T) {
	ignored := writeFile(t, "ignored.yaml", "api:\n  base_url: http://ignored\n")
	used := writeFile(t, "used.yaml", "api:\n  base_url: http://used\n")
	t.Setenv(ClientConfigFileEnv, ignored)

	cfg, err := NewClientEnvReader(used).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.API.BaseURL != "http://used" {
		t.Errorf("BaseURL = %q, want http://used", cfg.API.BaseURL)
	}
}

func TestClientReaderMissingFile(t *testing.T) {
	t.Setenv(ClientConfigFileEnv, "")

	_, err := NewClientEnvReader(filepath.Join(t.TempDir(), "missing.yaml")).Read()
	if err == nil {
		t.Error("Read() error = nil for a missing file")
	}
}

func TestEnvReaderRequiresSigningKey(t *testing.T) {
	t.Setenv("ENV", EnvDev)
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USERNAME", "todo")
	t.Setenv("POSTGRES_PASSWORD", "todo")
	t.Setenv("POSTGRES_DATABASE", "todo")
	t.Setenv("JWT_SIGNING_KEY", "")
	_ = os.Unsetenv("JWT_SIGNING_KEY")

	if _, err := NewEnvReader().Read(); err == nil {
		t.Fatal("Read() error = nil without JWT_SIGNING_KEY")
	}

	t.Setenv("JWT_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.HTTP.Port != "3333" || cfg.JWT.AccessTokenTTL != 24*time.Hour || cfg.JWT.Issuer != "todo-api" {
		t.Errorf("defaults not applied: %+v %+v", cfg.HTTP, cfg.JWT)
	}
}

func TestClientReaderExampleFile(t *testing.T) {
	t.Setenv(ClientConfigFileEnv, "")

	cfg, err := NewClientEnvReader(filepath.Join("..", "..", "config.example.yaml")).Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:3333" || cfg.API.ReadRetries != 2 {
		t.Errorf("example config = %+v", cfg.API)
	}
}
