package metricus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

const (
	DefAgentURL        = "http://localhost:8080"
	DefTLSVerification = false
	DefTimeout         = "10s"
	DefConfigPath      = "metricus.toml"

	filePermission = 0o644
	dirPermission  = 0o755
)

type Config struct {
	Agent AgentConfig `toml:"agent"`
}

type AgentConfig struct {
	URL             string `toml:"url"`
	TLSVerification bool   `toml:"tls_verification"`
	Timeout         string `toml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Agent: AgentConfig{
			URL:             DefAgentURL,
			TLSVerification: DefTLSVerification,
			Timeout:         DefTimeout,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Agent.URL == "" {
		cfg.Agent.URL = DefAgentURL
	}
	if cfg.Agent.Timeout == "" {
		cfg.Agent.Timeout = DefTimeout
	}

	return &cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
