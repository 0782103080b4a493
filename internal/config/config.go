// Package config provides orchestrator configuration from a config file,
// environment variables, and defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds orchestrator configuration. Precedence is defaults, then
// config file, then environment variables; command-line flags override
// individual fields after Load (see internal/cli).
type Config struct {
	// Namespace is the K8s namespace to operate in (env: NAMESPACE).
	Namespace string

	// ControllerPodLabel selects the test controller pod
	// (env: CONTROLLER_POD_LABEL).
	ControllerPodLabel string

	// BrowserNodePodLabel selects the browser node fleet
	// (env: BROWSER_NODE_POD_LABEL).
	BrowserNodePodLabel string

	// BrowserNodeHeadlessSvc is the headless service that gives each
	// browser node pod a stable DNS name (env: BROWSER_NODE_HEADLESS_SVC).
	BrowserNodeHeadlessSvc string

	// KubeConfig is the path to kubeconfig (env: KUBECONFIG).
	// Empty means in-cluster config, falling back to the default kubeconfig.
	KubeConfig string

	// HelmChartPath is the chart directory for deploys (env: HELM_CHART_PATH).
	HelmChartPath string

	// HelmReleaseName is the release to upgrade-or-install
	// (env: HELM_RELEASE_NAME).
	HelmReleaseName string

	// HelmValuesFile is an optional values file passed to helm
	// (env: HELM_VALUES_FILE). Empty means no -f flag.
	HelmValuesFile string

	// ReadinessTimeout bounds each readiness wait (env: READINESS_TIMEOUT).
	ReadinessTimeout time.Duration

	// ReadinessInterval is the poll interval during readiness waits
	// (env: READINESS_CHECK_INTERVAL).
	ReadinessInterval time.Duration

	// MaxRetries is the attempt count for every retried operation
	// (env: MAX_RETRIES).
	MaxRetries int

	// RetryDelay is the fixed delay between attempts (env: RETRY_DELAY).
	RetryDelay time.Duration

	// LogLevel controls log verbosity: debug, info, warn, error
	// (env: LOG_LEVEL).
	LogLevel string
}

// fileConfig is the TOML shape of the config file. Durations are strings
// ("5m", "30s") or bare seconds ("300"); zero values mean "not set".
type fileConfig struct {
	Namespace              string `toml:"namespace"`
	ControllerPodLabel     string `toml:"controller_pod_label"`
	BrowserNodePodLabel    string `toml:"browser_node_pod_label"`
	BrowserNodeHeadlessSvc string `toml:"browser_node_headless_svc"`
	KubeConfig             string `toml:"kubeconfig"`
	HelmChartPath          string `toml:"helm_chart_path"`
	HelmReleaseName        string `toml:"helm_release_name"`
	HelmValuesFile         string `toml:"helm_values_file"`
	ReadinessTimeout       string `toml:"readiness_timeout"`
	ReadinessInterval      string `toml:"readiness_check_interval"`
	MaxRetries             int    `toml:"max_retries"`
	RetryDelay             string `toml:"retry_delay"`
	LogLevel               string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Namespace:              "insider-testops",
		ControllerPodLabel:     "app=test-controller",
		BrowserNodePodLabel:    "app=browser-node",
		BrowserNodeHeadlessSvc: "browser-node-headless",
		HelmChartPath:          "./helm/insider-testops",
		HelmReleaseName:        "insider-testops",
		ReadinessTimeout:       300 * time.Second,
		ReadinessInterval:      5 * time.Second,
		MaxRetries:             3,
		RetryDelay:             10 * time.Second,
		LogLevel:               "info",
	}
}

// Load builds a Config from defaults, an optional TOML file, and the
// environment, in that priority order. An empty path skips the file layer;
// a non-empty path that cannot be read or parsed is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		applyFile(cfg, fc)
	}

	cfg.Namespace = envOr("NAMESPACE", cfg.Namespace)
	cfg.ControllerPodLabel = envOr("CONTROLLER_POD_LABEL", cfg.ControllerPodLabel)
	cfg.BrowserNodePodLabel = envOr("BROWSER_NODE_POD_LABEL", cfg.BrowserNodePodLabel)
	cfg.BrowserNodeHeadlessSvc = envOr("BROWSER_NODE_HEADLESS_SVC", cfg.BrowserNodeHeadlessSvc)
	cfg.KubeConfig = envOr("KUBECONFIG", cfg.KubeConfig)
	cfg.HelmChartPath = envOr("HELM_CHART_PATH", cfg.HelmChartPath)
	cfg.HelmReleaseName = envOr("HELM_RELEASE_NAME", cfg.HelmReleaseName)
	cfg.HelmValuesFile = envOr("HELM_VALUES_FILE", cfg.HelmValuesFile)
	cfg.ReadinessTimeout = envDurationOr("READINESS_TIMEOUT", cfg.ReadinessTimeout)
	cfg.ReadinessInterval = envDurationOr("READINESS_CHECK_INTERVAL", cfg.ReadinessInterval)
	cfg.MaxRetries = envIntOr("MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryDelay = envDurationOr("RETRY_DELAY", cfg.RetryDelay)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

// Level maps LogLevel to a slog.Level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyFile(cfg *Config, fc fileConfig) {
	setString(&cfg.Namespace, fc.Namespace)
	setString(&cfg.ControllerPodLabel, fc.ControllerPodLabel)
	setString(&cfg.BrowserNodePodLabel, fc.BrowserNodePodLabel)
	setString(&cfg.BrowserNodeHeadlessSvc, fc.BrowserNodeHeadlessSvc)
	setString(&cfg.KubeConfig, fc.KubeConfig)
	setString(&cfg.HelmChartPath, fc.HelmChartPath)
	setString(&cfg.HelmReleaseName, fc.HelmReleaseName)
	setString(&cfg.HelmValuesFile, fc.HelmValuesFile)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.MaxRetries > 0 {
		cfg.MaxRetries = fc.MaxRetries
	}
	cfg.ReadinessTimeout = durationOr(fc.ReadinessTimeout, cfg.ReadinessTimeout)
	cfg.ReadinessInterval = durationOr(fc.ReadinessInterval, cfg.ReadinessInterval)
	cfg.RetryDelay = durationOr(fc.RetryDelay, cfg.RetryDelay)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// durationOr parses a Go duration or a bare number of seconds, returning
// fallback for empty or unparseable input.
func durationOr(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDurationOr accepts either a Go duration ("5m", "30s") or a bare
// number of seconds ("300"), which is what the CI environments export.
func envDurationOr(key string, fallback time.Duration) time.Duration {
	return durationOr(os.Getenv(key), fallback)
}
