// Package helm drives `helm upgrade --install` for the test fleet release.
// It is the only component that mutates cluster state.
package helm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v2"
)

const (
	// MinNodeCount and MaxNodeCount bound the browser node replica count.
	// Out-of-range requests are clamped, not rejected.
	MinNodeCount = 1
	MaxNodeCount = 5

	// DefaultNodeCount is used when the caller does not ask for a count.
	DefaultNodeCount = 1

	// commandTimeout is the ceiling on one helm invocation, matching the
	// --wait --timeout passed to helm itself.
	commandTimeout = 5 * time.Minute
)

// CommandRunner executes a subprocess and reports exit code and captured
// output. Injectable so tests never shell out.
type CommandRunner func(ctx context.Context, name string, args ...string) (exitCode int, stdout, stderr string)

// Deployer installs or upgrades the release. One attempt per Deploy call;
// retries are the orchestration driver's business.
type Deployer struct {
	ReleaseName string
	Namespace   string
	logger      *slog.Logger
	run         CommandRunner
}

// New creates a Deployer that shells out to helm.
func New(releaseName, namespace string, logger *slog.Logger) *Deployer {
	return &Deployer{
		ReleaseName: releaseName,
		Namespace:   namespace,
		logger:      logger,
		run:         runCommand,
	}
}

// ClampNodeCount coerces a replica count into [MinNodeCount, MaxNodeCount].
// Out-of-range input is corrected with a warning, never rejected.
func ClampNodeCount(n int, logger *slog.Logger) int {
	if n < MinNodeCount {
		logger.Warn("node count below minimum, clamping", "requested", n, "using", MinNodeCount)
		return MinNodeCount
	}
	if n > MaxNodeCount {
		logger.Warn("node count above maximum, clamping", "requested", n, "using", MaxNodeCount)
		return MaxNodeCount
	}
	return n
}

// Deploy runs one `helm upgrade --install` attempt. Success is the
// subprocess exiting zero, nothing else. A values file that does not exist
// is skipped with a warning rather than failing the attempt.
func (d *Deployer) Deploy(ctx context.Context, chartPath string, nodeCount int, valuesFile string) error {
	nodeCount = ClampNodeCount(nodeCount, d.logger)

	if err := d.preflight(chartPath, valuesFile); err != nil {
		return err
	}

	args := []string{
		"upgrade", "--install",
		d.ReleaseName,
		chartPath,
		"--namespace", d.Namespace,
		"--create-namespace",
	}
	if valuesFile != "" {
		if _, err := os.Stat(valuesFile); err == nil {
			args = append(args, "-f", valuesFile)
		} else {
			d.logger.Warn("values file not found, deploying without it", "path", valuesFile)
		}
	}
	args = append(args,
		"--set", fmt.Sprintf("browserNode.replicaCount=%d", nodeCount),
		"--set", fmt.Sprintf("browserNode.autoscaling.minReplicas=%d", nodeCount),
		"--set", fmt.Sprintf("browserNode.autoscaling.maxReplicas=%d", MaxNodeCount),
		"--wait",
		"--timeout", "5m",
	)

	// One release, one upgrade at a time. A second orchestrator racing the
	// same release fails its attempt instead of corrupting the rollout.
	lock := flock.New(releaseLockPath(d.ReleaseName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring release lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("release %s is locked by another deploy", d.ReleaseName)
	}
	defer func() { _ = lock.Unlock() }()

	d.logger.Info("running helm", "release", d.ReleaseName, "namespace", d.Namespace,
		"node_count", nodeCount, "args", strings.Join(args, " "))

	code, stdout, stderr := d.run(ctx, "helm", args...)
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) != "" {
			d.logger.Info("helm: " + line)
		}
	}
	if code != 0 {
		if stderr != "" {
			d.logger.Error("helm stderr", "output", strings.TrimSpace(stderr))
		}
		return fmt.Errorf("helm exited with code %d", code)
	}

	d.logger.Info("helm deployment completed", "release", d.ReleaseName)
	return nil
}

// preflight validates the chart directory before invoking helm, and logs
// the chart identity so CI logs record what was rolled out.
func (d *Deployer) preflight(chartPath, valuesFile string) error {
	info, err := os.Stat(chartPath)
	if err != nil {
		return fmt.Errorf("helm chart path does not exist: %s", chartPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("helm chart path is not a directory: %s", chartPath)
	}

	meta, err := readChartMeta(filepath.Join(chartPath, "Chart.yaml"))
	if err != nil {
		return err
	}
	d.logger.Info("chart validated", "name", meta.Name, "version", meta.Version)

	if valuesFile != "" {
		if err := checkValuesFile(valuesFile, d.logger); err != nil {
			return err
		}
	}
	return nil
}

type chartMeta struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

func readChartMeta(path string) (chartMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chartMeta{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var meta chartMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return chartMeta{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return meta, nil
}

// checkValuesFile parses a values file that exists; a missing file is only
// a warning because Deploy skips the -f flag for it.
func checkValuesFile(path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("values file not readable, will deploy without it", "path", path)
		return nil
	}
	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing values file %s: %w", path, err)
	}
	return nil
}

func releaseLockPath(release string) string {
	return filepath.Join(os.TempDir(), "testops-deploy-"+release+".lock")
}

// runCommand is the real CommandRunner: exec with captured output and a
// wall-clock ceiling.
func runCommand(ctx context.Context, name string, args ...string) (int, string, string) {
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return 0, stdout.String(), stderr.String()
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), stdout.String(), stderr.String()
	}
	return 1, stdout.String(), stderr.String() + err.Error()
}
