package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Namespace != "insider-testops" {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if cfg.ControllerPodLabel != "app=test-controller" {
		t.Errorf("ControllerPodLabel = %q", cfg.ControllerPodLabel)
	}
	if cfg.ReadinessTimeout != 300*time.Second {
		t.Errorf("ReadinessTimeout = %v", cfg.ReadinessTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 10*time.Second {
		t.Errorf("RetryDelay = %v", cfg.RetryDelay)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("NAMESPACE", "staging")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("READINESS_TIMEOUT", "2m")
	t.Setenv("RETRY_DELAY", "15") // bare seconds

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Namespace != "staging" {
		t.Errorf("Namespace = %q, want staging", cfg.Namespace)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.MaxRetries)
	}
	if cfg.ReadinessTimeout != 2*time.Minute {
		t.Errorf("ReadinessTimeout = %v, want 2m", cfg.ReadinessTimeout)
	}
	if cfg.RetryDelay != 15*time.Second {
		t.Errorf("RetryDelay = %v, want 15s", cfg.RetryDelay)
	}
}

func TestLoad_FileLayeredUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testops.toml")
	content := `
namespace = "from-file"
helm_release_name = "file-release"
readiness_timeout = "90s"
max_retries = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NAMESPACE", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	// Env beats file.
	if cfg.Namespace != "from-env" {
		t.Errorf("Namespace = %q, want from-env", cfg.Namespace)
	}
	// File beats default.
	if cfg.HelmReleaseName != "file-release" {
		t.Errorf("HelmReleaseName = %q, want file-release", cfg.HelmReleaseName)
	}
	if cfg.ReadinessTimeout != 90*time.Second {
		t.Errorf("ReadinessTimeout = %v, want 90s", cfg.ReadinessTimeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	// Untouched fields keep defaults.
	if cfg.BrowserNodePodLabel != "app=browser-node" {
		t.Errorf("BrowserNodePodLabel = %q", cfg.BrowserNodePodLabel)
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("Load() expected error for missing config file")
	}
}

func TestLoad_UnparseableEnvFallsBack(t *testing.T) {
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("READINESS_TIMEOUT", "soon")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.MaxRetries)
	}
	if cfg.ReadinessTimeout != 300*time.Second {
		t.Errorf("ReadinessTimeout = %v, want default 300s", cfg.ReadinessTimeout)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
