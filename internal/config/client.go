package config

import (
	"os"
	"path/filepath"
	"time"
)

// ClientConfig configures the todo command line client.
type ClientConfig struct {
	Env       string    `yaml:"env" env:"TODO_ENV" env-default:"prod"`
	API       APIConfig `yaml:"api"`
	TokenFile string    `yaml:"token_file" env:"TODO_TOKEN_FILE"`
}

type APIConfig struct {
	BaseURL      string        `yaml:"base_url" env:"TODO_API_URL" env-default:"http://localhost:3333"`
	Timeout      time.Duration `yaml:"timeout" env:"TODO_API_TIMEOUT" env-default:"10s"`
	ReadRetries  int           `yaml:"read_retries" env:"TODO_API_READ_RETRIES" env-default:"2"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"TODO_API_RETRY_BACKOFF" env-default:"300ms"`
}

// DefaultTokenFile returns the location of the persisted session token
// when TODO_TOKEN_FILE is not set.
func DefaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "todo", "session.json")
}
