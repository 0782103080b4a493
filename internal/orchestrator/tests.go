package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/steveyegge/testops/internal/retry"
)

const (
	// collectCommand lists the e2e suite's tests without running them.
	collectCommand = "go test -tags e2e -list '.*' ./e2e/..."

	// executeCommand runs the whole e2e suite inside the controller pod.
	executeCommand = "go test -tags e2e -count=1 -v ./e2e/..."
)

// CollectTests discovers the test identifiers hosted by the controller pod.
// It retries until at least one identifier is found or the policy is
// exhausted; exhaustion returns ErrNoTestsCollected with an empty list, and
// the driver treats that as advisory rather than fatal.
//
// The collected list is logged but deliberately not fed to ExecuteTests;
// execution runs the default suite unless the caller supplies a subset.
func (o *Orchestrator) CollectTests(ctx context.Context) ([]string, error) {
	return retry.Do(ctx, o.policy, o.logger, "collect tests", func(ctx context.Context) ([]string, error) {
		controllerPod, err := o.controllerPod(ctx)
		if err != nil {
			return nil, err
		}
		o.logger.Info("collecting test cases", "controller_pod", controllerPod)

		result, err := o.cluster.Exec(ctx, controllerPod, collectCommand, nil)
		if err != nil {
			return nil, fmt.Errorf("test discovery: %w", err)
		}
		if result.ExitCode != 0 {
			o.logger.Warn("test discovery exited non-zero",
				"exit_code", result.ExitCode, "stderr", strings.TrimSpace(result.Stderr))
		}

		cases := parseTestList(result.Stdout)
		if len(cases) == 0 {
			return nil, ErrNoTestsCollected
		}
		for _, tc := range cases {
			o.logger.Info("collected", "test", tc)
		}
		return cases, nil
	})
}

// testNamePattern matches the identifiers `go test -list` prints, one per
// line: a bare test function name.
var testNamePattern = regexp.MustCompile(`^(Test|Benchmark|Example|Fuzz)\w*$`)

// parseTestList extracts qualified test identifiers from `go test -list`
// output. Names accumulate until the trailing `ok <pkg> <elapsed>` line
// qualifies them as <pkg>.<Name>; report banners are skipped. Names left
// pending at EOF (no ok line) are kept bare.
func parseTestList(output string) []string {
	var cases []string
	var pending []string

	flush := func(pkg string) {
		for _, name := range pending {
			if pkg != "" {
				cases = append(cases, pkg+"."+name)
			} else {
				cases = append(cases, name)
			}
		}
		pending = pending[:0]
	}

	for _, line := range strings.Split(output, "\n") {
		if line == "" || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "ok" && len(fields) >= 2 {
			flush(fields[1])
			continue
		}
		if len(fields) == 1 && testNamePattern.MatchString(fields[0]) {
			pending = append(pending, fields[0])
		}
		// Everything else is a report banner (FAIL, ?, ---, ===, #, ...).
	}
	flush("")
	return cases
}

// ExecuteTests runs the suite inside the controller pod against a freshly
// selected browser node, retrying whole attempts. Each attempt re-resolves
// the controller pod and the worker so a retry can land on a different
// node. A non-empty subset restricts execution with a -run pattern.
func (o *Orchestrator) ExecuteTests(ctx context.Context, subset []string) error {
	return retry.Run(ctx, o.policy, o.logger, "execute tests", func(ctx context.Context) error {
		controllerPod, err := o.controllerPod(ctx)
		if err != nil {
			return err
		}

		worker, err := o.SelectWorker(ctx)
		if err != nil {
			return err
		}
		remoteURL := fmt.Sprintf("http://%s:%d", worker, gridPort)

		command := executeCommand
		if len(subset) > 0 {
			command += fmt.Sprintf(" -run '^(%s)$'", strings.Join(subset, "|"))
		}
		env := map[string]string{
			"HEADLESS":   "true",
			"REMOTE_URL": remoteURL,
		}
		o.logger.Info("executing tests", "controller_pod", controllerPod,
			"remote_url", remoteURL, "command", command)

		result, err := o.cluster.Exec(ctx, controllerPod, command, env)
		if err != nil {
			return fmt.Errorf("test execution: %w", err)
		}

		o.logTestOutput(result.Stdout, result.Stderr)

		if result.ExitCode == 0 {
			o.logger.Info("tests completed", "exit_code", 0)
			return nil
		}
		// The exec channel does not always carry a real exit status; when
		// it is lost or non-zero, fall back to reading the verdict out of
		// the report text.
		if outputReportsSuccess(result.Stdout) {
			o.logger.Info("tests passed per output, exit code unreliable",
				"exit_code", result.ExitCode)
			return nil
		}
		return fmt.Errorf("tests failed with exit code %d", result.ExitCode)
	})
}

func (o *Orchestrator) logTestOutput(stdout, stderr string) {
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) != "" {
			o.logger.Info("test: " + line)
		}
	}
	for _, line := range strings.Split(stderr, "\n") {
		if strings.TrimSpace(line) != "" {
			o.logger.Info("test stderr: " + line)
		}
	}
}

var failedCountPattern = regexp.MustCompile(`(\d+)\s+failed`)

// outputReportsSuccess decides a run's verdict from its report text: the
// output must report a pass, and any explicit failure count must be zero.
// Text without a pass marker, or with a non-numeric failure marker, is a
// failure.
func outputReportsSuccess(output string) bool {
	lower := strings.ToLower(output)
	if !strings.Contains(lower, "passed") && !strings.Contains(lower, "--- pass") {
		return false
	}
	if matches := failedCountPattern.FindAllStringSubmatch(lower, -1); matches != nil {
		for _, m := range matches {
			if m[1] != "0" {
				return false
			}
		}
		return true
	}
	return !strings.Contains(lower, "failed") && !strings.Contains(lower, "--- fail")
}
