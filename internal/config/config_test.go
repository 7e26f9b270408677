package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"todoline/internal/config"
)

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
workspace: /srv/todos
server:
  listen: 0.0.0.0:9000
  base_path: /api
auth:
  jwt_secret: sekrit
defaults:
  page_size: 50
  top_tags_limit: 5
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Workspace != "/srv/todos" || cfg.Server.Listen != "0.0.0.0:9000" || cfg.Server.BasePath != "/api" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Auth.JWTSecret != "sekrit" || cfg.Auth.APIKey != "" {
		t.Fatalf("unexpected auth: %+v", cfg.Auth)
	}
	if cfg.Defaults.PageSize != 50 || cfg.Defaults.TopTagsLimit != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg.Defaults)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"relative base path", "server:\n  base_path: v1\n", "base_path"},
		{"page size too big", "defaults:\n  page_size: 101\n", "page_size"},
		{"page size negative", "defaults:\n  page_size: -1\n", "page_size"},
		{"top tags too big", "defaults:\n  top_tags_limit: 500\n", "top_tags_limit"},
		{"not yaml", "{{{", "invalid config yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestZeroValuesPassValidation(t *testing.T) {
	// unset sections fall back to application defaults elsewhere
	if _, err := config.FromYAML([]byte("workspace: \"\"\n")); err != nil {
		t.Fatalf("empty config rejected: %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("expected nil,nil for missing file, got %v, %v", cfg, err)
	}

	path := config.Path(dir)
	if err := os.WriteFile(path, []byte("server:\n  listen: 127.0.0.1:1234\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = config.LoadOptional(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg == nil || cfg.Server.Listen != "127.0.0.1:1234" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if err := os.WriteFile(path, []byte("defaults:\n  page_size: 9999\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.LoadOptional(dir); err == nil {
		t.Fatalf("expected validation error for present-but-invalid file")
	}
}

func TestLoadMissingMentionsInit(t *testing.T) {
	_, err := config.Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "tl config init") {
		t.Fatalf("expected pointer to config init, got %v", err)
	}
}

func TestPath(t *testing.T) {
	if got := config.Path(""); got != filepath.Join(".", "todoline.yml") {
		t.Fatalf("default path: %s", got)
	}
	if got := config.Path("/tmp/ws"); got != filepath.Join("/tmp/ws", "todoline.yml") {
		t.Fatalf("workspace path: %s", got)
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault()))
	if err != nil {
		t.Fatalf("default template invalid: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:8787" || cfg.Server.BasePath != "/v1" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Defaults.PageSize != 20 || cfg.Defaults.TopTagsLimit != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg.Defaults)
	}
	if cfg.Auth.JWTSecret != "" || cfg.Auth.APIKey != "" {
		t.Fatalf("default template should ship unauthenticated: %+v", cfg.Auth)
	}
}
