// Package cli wires the testops command tree: deploy, readiness, test
// collection, test execution, and the full sequential run.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/testops/internal/cluster"
	"github.com/steveyegge/testops/internal/config"
	"github.com/steveyegge/testops/internal/helm"
	"github.com/steveyegge/testops/internal/orchestrator"
)

var (
	flagConfig     string
	flagKubeconfig string
	flagNamespace  string
	flagVerbose    bool

	flagChart      string
	flagValues     string
	flagNodeCount  int
	flagSkipDeploy bool
	flagTests      []string
)

var rootCmd = &cobra.Command{
	Use:   "testops",
	Short: "Deploy a browser test fleet and run the e2e suite against it",
	Long: `testops deploys the browser node fleet via Helm, waits for the pods
to become ready, and runs the e2e suite inside the test controller pod
against an available browser node.

Each subcommand runs exactly one pipeline stage; the bare "run" command
executes the whole sequence.

Examples:
  testops run --node-count 2
  testops run --skip-deploy
  testops deploy --chart ./helm/insider-testops --node-count 3
  testops status
  testops readiness
  testops collect
  testops execute --test TestQACareersFlow`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to TOML config file")
	pf.StringVar(&flagKubeconfig, "kubeconfig", "", "Path to kubeconfig (default: auto-detect)")
	pf.StringVar(&flagNamespace, "namespace", "", "Kubernetes namespace")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(runCmd, deployCmd, statusCmd, readinessCmd, collectCmd, executeCmd)
}

// Execute runs the CLI. The returned error is nil on success; the caller
// maps errors and interrupts to process exit codes.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig layers flag overrides on top of config.Load.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagKubeconfig != "" {
		cfg.KubeConfig = flagKubeconfig
	}
	if flagNamespace != "" {
		cfg.Namespace = flagNamespace
	}
	if flagChart != "" {
		cfg.HelmChartPath = flagChart
	}
	if flagValues != "" {
		cfg.HelmValuesFile = flagValues
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
}

// buildOrchestrator assembles the full stack: cluster client, helm
// deployer, orchestrator.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, error) {
	client, err := cluster.New(cfg.KubeConfig, cfg.Namespace, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to cluster: %w", err)
	}
	deployer := helm.New(cfg.HelmReleaseName, cfg.Namespace, logger)
	return orchestrator.New(client, deployer, cfg, logger), nil
}

// setup is the shared preamble for every subcommand.
func setup() (*config.Config, *slog.Logger, *orchestrator.Orchestrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)
	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, orch, nil
}
