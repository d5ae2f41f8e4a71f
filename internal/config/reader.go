package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// ClientConfigFileEnv names the variable pointing at an optional YAML
// config file for the client. Environment variables override the file.
const ClientConfigFileEnv = "TODO_CONFIG"

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

type ClientReader interface {
	Read() (*ClientConfig, error)
}

type ClientEnvReader struct {
	path string
}

// NewClientEnvReader reads the client config from the environment, layered
// over the YAML file at path when path is not empty.
func NewClientEnvReader(path string) ClientEnvReader {
	return ClientEnvReader{path: path}
}

func (r ClientEnvReader) Read() (*ClientConfig, error) {
	cfg := new(ClientConfig)

	path := r.path
	if path == "" {
		path = os.Getenv(ClientConfigFileEnv)
	}

	var err error
	if path != "" {
		// ReadConfig applies the environment on top of the file.
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.TokenFile == "" {
		cfg.TokenFile = DefaultTokenFile()
	}
	return cfg, nil
}
