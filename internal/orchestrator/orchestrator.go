// Package orchestrator sequences the deploy-and-test pipeline against the
// browser node fleet: deploy, wait for readiness, collect tests, execute
// them inside the controller pod. Strictly linear and synchronous; every
// stage converts its faults into an error at the stage boundary and the
// driver only ever branches on error identity.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"

	"github.com/google/uuid"

	"github.com/steveyegge/testops/internal/cluster"
	"github.com/steveyegge/testops/internal/config"
	"github.com/steveyegge/testops/internal/retry"
)

// Sentinel errors for the closed set of selection-miss outcomes.
var (
	// ErrNoControllerPod means no pod matched the controller label.
	ErrNoControllerPod = errors.New("test controller pod not found")

	// ErrNoWorkerAvailable means no browser node had a free session slot.
	ErrNoWorkerAvailable = errors.New("no available browser node")

	// ErrNoTestsCollected means discovery produced no test identifiers.
	ErrNoTestsCollected = errors.New("no test cases collected")
)

// Cluster is the slice of internal/cluster the orchestrator needs.
type Cluster interface {
	ListPods(ctx context.Context, labelSelector string) ([]corev1.Pod, error)
	Exec(ctx context.Context, podName, command string, env map[string]string) (cluster.ExecResult, error)
}

// Deployer is the slice of internal/helm the orchestrator needs.
type Deployer interface {
	Deploy(ctx context.Context, chartPath string, nodeCount int, valuesFile string) error
}

// Orchestrator runs the pipeline. All fields are set at construction and
// never mutated; a fresh run ID ties log lines to one invocation.
type Orchestrator struct {
	cluster  Cluster
	deployer Deployer
	cfg      *config.Config
	logger   *slog.Logger
	policy   retry.Policy
}

// New creates an Orchestrator.
func New(cluster Cluster, deployer Deployer, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	runID := uuid.NewString()[:8]
	return &Orchestrator{
		cluster:  cluster,
		deployer: deployer,
		cfg:      cfg,
		logger:   logger.With("run_id", runID),
		policy:   retry.Policy{Attempts: cfg.MaxRetries, Delay: cfg.RetryDelay},
	}
}

// RunOptions selects what one full Run does.
type RunOptions struct {
	ChartPath  string
	NodeCount  int
	ValuesFile string
	SkipDeploy bool
}

// Run executes the five-stage pipeline:
//
//	Deploy (optional) -> ReadyWorkers -> ReadyController -> CollectTests -> ExecuteTests
//
// Any stage failing after its retries halts the sequence. There is no
// rollback; a partially applied deployment is left as-is.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) error {
	nodeCount := opts.NodeCount
	if nodeCount <= 0 {
		nodeCount = 1
	}

	o.logger.Info("starting orchestration",
		"namespace", o.cfg.Namespace,
		"controller_label", o.cfg.ControllerPodLabel,
		"browser_node_label", o.cfg.BrowserNodePodLabel,
		"node_count", nodeCount,
		"skip_deploy", opts.SkipDeploy)

	if !opts.SkipDeploy && opts.ChartPath != "" {
		o.logger.Info("stage deploy")
		if err := o.Deploy(ctx, opts.ChartPath, nodeCount, opts.ValuesFile); err != nil {
			o.logger.Error("deployment failed after retries", "error", err)
			return err
		}
	} else {
		o.logger.Info("stage deploy skipped")
	}

	o.logger.Info("stage readiness: browser nodes", "min_ready", nodeCount)
	if err := o.WaitReady(ctx, o.cfg.BrowserNodePodLabel, nodeCount); err != nil {
		o.logger.Error("browser nodes did not become ready", "error", err)
		return err
	}

	o.logger.Info("stage readiness: test controller")
	if err := o.WaitReady(ctx, o.cfg.ControllerPodLabel, 1); err != nil {
		o.logger.Error("test controller did not become ready", "error", err)
		return err
	}

	if fleet, err := o.FleetStatus(ctx); err == nil {
		o.logFleet(fleet)
	}

	o.logger.Info("stage collect")
	cases, err := o.CollectTests(ctx)
	if err != nil {
		// Collection exhaustion is advisory: fall through and run the
		// whole suite instead of aborting.
		o.logger.Warn("no test cases collected, running the full suite", "error", err)
	} else {
		o.logger.Info("collected test cases", "count", len(cases))
	}

	o.logger.Info("stage execute")
	if err := o.ExecuteTests(ctx, nil); err != nil {
		o.logger.Error("test execution failed", "error", err)
		return err
	}

	o.logger.Info("orchestration completed successfully")
	return nil
}

// Deploy wraps one helm attempt in the retry policy.
func (o *Orchestrator) Deploy(ctx context.Context, chartPath string, nodeCount int, valuesFile string) error {
	return retry.Run(ctx, o.policy, o.logger, "deploy", func(ctx context.Context) error {
		return o.deployer.Deploy(ctx, chartPath, nodeCount, valuesFile)
	})
}

// controllerPod returns the name of the first pod matching the controller
// label, in listing order.
func (o *Orchestrator) controllerPod(ctx context.Context) (string, error) {
	pods, err := o.cluster.ListPods(ctx, o.cfg.ControllerPodLabel)
	if err != nil {
		return "", fmt.Errorf("finding controller pod: %w", err)
	}
	if len(pods) == 0 {
		return "", ErrNoControllerPod
	}
	return pods[0].Name, nil
}
