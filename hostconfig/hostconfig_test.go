package hostconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileResolvesNothing(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.Lookup("proxy.url"); ok {
		t.Errorf("Lookup found a value with no settings file present")
	}
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	content := "[proxy]\nurl = \"http://proxy.example:8080\"\n"
	if err := os.WriteFile(filepath.Join(dir, settingsFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, ok := s.Lookup("proxy.url")
	if !ok || v != "http://proxy.example:8080" {
		t.Errorf("Lookup(proxy.url) = (%v, %v), want (http://proxy.example:8080, true)", v, ok)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "[proxy]\nurl = \"http://from-file\"\n"
	if err := os.WriteFile(filepath.Join(dir, settingsFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("TOOLSIGHT_PROXY_URL", "http://from-env")
	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, ok := s.Lookup("proxy.url")
	if !ok || v != "http://from-env" {
		t.Errorf("Lookup(proxy.url) = (%v, %v), want (http://from-env, true)", v, ok)
	}
}
