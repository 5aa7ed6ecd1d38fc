package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	prev := flagConfig
	flagConfig = path
	t.Cleanup(func() { flagConfig = prev })
	t.Setenv("PREDICTHQ_TOKEN", "")
	t.Setenv("PORT", "")
}

func TestLoadAppMinimalConfig(t *testing.T) {
	writeConfig(t, "listen: \":8080\"\n")

	a, err := loadApp(true)
	if err != nil {
		t.Fatalf("loadApp: %v", err)
	}
	if a.cfg.Listen != ":8080" {
		t.Errorf("listen = %q", a.cfg.Listen)
	}
	if a.job == nil {
		t.Fatal("generate needs a batch job")
	}
}

func TestLoadAppIgnoresDisabledBatch(t *testing.T) {
	writeConfig(t, "batch:\n  enabled: false\n  location: \"not a location\"\n")

	a, err := loadApp(false)
	if err != nil {
		t.Fatalf("serve should start with batch disabled: %v", err)
	}
	if a.job != nil {
		t.Error("batch job built while disabled")
	}

	if _, err := loadApp(true); err == nil {
		t.Error("generate should reject a malformed batch location")
	}
}

func TestLoadAppEnabledBatchValidatesLocation(t *testing.T) {
	writeConfig(t, "batch:\n  enabled: true\n  location: \"not a location\"\n")

	if _, err := loadApp(false); err == nil {
		t.Error("expected error for malformed batch location")
	}
}
