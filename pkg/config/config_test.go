package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	BaseURL string `yaml:"base_url" env:"TEST_BASE_URL" default:"https://example.com"`
	Weeks   int    `yaml:"weeks" default:"6"`
	Debug   bool   `yaml:"debug"`
	Token   string `yaml:"token" required:"true"`

	Cookies map[string]string `yaml:"cookies"`

	Nested struct {
		Name string `yaml:"name" default:"inner"`
	} `yaml:"nested"`
}

func TestLoadDefaultsOnly(t *testing.T) {
	t.Setenv("TEST_BASE_URL", "")
	t.Setenv("CFG_TOKEN", "tkn")

	var cfg testConfig
	if err := New("CFG").Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://example.com" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.Weeks != 6 {
		t.Errorf("Weeks = %d, want 6", cfg.Weeks)
	}
	if cfg.Nested.Name != "inner" {
		t.Errorf("Nested.Name = %q, want %q", cfg.Nested.Name, "inner")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("CFG_TOKEN", "tkn")
	file := filepath.Join(t.TempDir(), "config.yml")
	content := "base_url: https://portal.test\nweeks: 2\ncookies:\n  SESSION: abc\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg testConfig
	if err := New("CFG").Load(&cfg, file); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://portal.test" {
		t.Errorf("BaseURL = %q, file value should win over default", cfg.BaseURL)
	}
	if cfg.Weeks != 2 {
		t.Errorf("Weeks = %d, want 2", cfg.Weeks)
	}
	if cfg.Cookies["SESSION"] != "abc" {
		t.Errorf("Cookies = %v", cfg.Cookies)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	t.Setenv("CFG_TOKEN", "tkn")
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte("weeks = 4\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg testConfig
	if err := New("CFG").Load(&cfg, file); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Weeks != 4 {
		t.Errorf("Weeks = %d, want 4", cfg.Weeks)
	}
}

func TestLoadEnvWinsOverFile(t *testing.T) {
	t.Setenv("CFG_TOKEN", "tkn")
	t.Setenv("TEST_BASE_URL", "https://env.test")
	t.Setenv("CFG_WEEKS", "9")
	t.Setenv("CFG_DEBUG", "true")

	file := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(file, []byte("base_url: https://file.test\nweeks: 2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg testConfig
	if err := New("CFG").Load(&cfg, file); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://env.test" {
		t.Errorf("BaseURL = %q, explicit env tag should win", cfg.BaseURL)
	}
	if cfg.Weeks != 9 {
		t.Errorf("Weeks = %d, prefixed env should win", cfg.Weeks)
	}
	if !cfg.Debug {
		t.Errorf("Debug = false, want true from env")
	}
}

func TestLoadMissingFileSkipped(t *testing.T) {
	t.Setenv("CFG_TOKEN", "tkn")

	var cfg testConfig
	if err := New("CFG").Load(&cfg, "does-not-exist.yml"); err != nil {
		t.Errorf("Load with missing file: %v", err)
	}
}

func TestLoadRequiredField(t *testing.T) {
	t.Setenv("CFG_TOKEN", "")

	var cfg testConfig
	if err := New("CFG").Load(&cfg); err == nil {
		t.Errorf("expected error for blank required field")
	}
}

func TestLoadRejectsNonStruct(t *testing.T) {
	var n int
	if err := New("CFG").Load(&n); err == nil {
		t.Errorf("expected error for non-struct config")
	}
}
