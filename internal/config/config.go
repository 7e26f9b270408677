package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config models todoline.yml.
type Config struct {
	Workspace string `yaml:"workspace"`
	Server    struct {
		Listen   string `yaml:"listen"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		APIKey    string `yaml:"api_key"`
	} `yaml:"auth"`
	Defaults struct {
		PageSize     int `yaml:"page_size"`
		TopTagsLimit int `yaml:"top_tags_limit"`
	} `yaml:"defaults"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create it with tl config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Defaults.PageSize != 0 && (c.Defaults.PageSize < 1 || c.Defaults.PageSize > 100) {
		return fmt.Errorf("config.defaults.page_size must be between 1 and 100")
	}
	if c.Defaults.TopTagsLimit != 0 && (c.Defaults.TopTagsLimit < 1 || c.Defaults.TopTagsLimit > 100) {
		return fmt.Errorf("config.defaults.top_tags_limit must be between 1 and 100")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "todoline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	cfg, err := FromYAML([]byte(defaultTemplate))
	if err != nil {
		panic(fmt.Sprintf("default config template: %v", err))
	}
	return cfg
}

const defaultTemplate = `# Directory holding the .todoline data directory. Empty means the
# current directory.
workspace: ""

server:
  listen: 127.0.0.1:8787
  base_path: /v1

auth:
  # Leave both empty to run the API unauthenticated (development mode).
  # Set jwt_secret to require HS256 bearer tokens, api_key to accept a
  # static X-Api-Key header, or both to allow either.
  jwt_secret: ""
  api_key: ""

defaults:
  page_size: 20
  top_tags_limit: 10
`
