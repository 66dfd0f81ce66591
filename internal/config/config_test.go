package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Threshold != 10.0 {
		t.Errorf("Threshold = %v, want 10.0", cfg.Threshold)
	}
	if cfg.Iterations != 100 {
		t.Errorf("Iterations = %d, want 100", cfg.Iterations)
	}
	if cfg.Output != "dist" {
		t.Errorf("Output = %q, want %q", cfg.Output, "dist")
	}
	if cfg.Parallel != 1 {
		t.Errorf("Parallel = %d, want 1", cfg.Parallel)
	}
	if cfg.MLMode {
		t.Error("MLMode = true, want false")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)

	yaml := "threshold: 25.5\noutput: build\nml_mode: true\n"
	if err := os.WriteFile(filepath.Join(dir, ".hotpath.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Threshold != 25.5 {
		t.Errorf("Threshold = %v, want 25.5", cfg.Threshold)
	}
	if cfg.Output != "build" {
		t.Errorf("Output = %q, want %q", cfg.Output, "build")
	}
	if !cfg.MLMode {
		t.Error("MLMode = false, want true")
	}
	if cfg.Iterations != 100 {
		t.Errorf("Iterations = %d, want default 100", cfg.Iterations)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".hotpath.yaml"), []byte("threshold: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Load() with malformed yaml succeeded, want error")
	}
}
