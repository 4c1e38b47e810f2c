package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port required")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("CINE_TEST_TOKEN", "s3cret")
	p := writeFile(t, "port: 9000\ntoken: ${CINE_TEST_TOKEN}\n")

	cfg := sample{Name: "default"}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 || cfg.Token != "s3cret" || cfg.Name != "default" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "name: x\n")
	cfg := sample{}
	err := Load(p, &cfg)
	if err == nil || !strings.Contains(err.Error(), "port required") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	cfg := sample{Port: 1}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	if err != nil || loaded {
		t.Fatalf("loaded = %v, err = %v", loaded, err)
	}
}

func TestExpand_Default(t *testing.T) {
	t.Setenv("CINE_SET", "a")
	got := Expand("${CINE_SET:-x} ${CINE_UNSET_VAR:-fallback} ${CINE_UNSET_VAR}")
	if got != "a fallback " {
		t.Errorf("Expand = %q", got)
	}
}
