package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
)

// ExitCodeUnknown marks an exec whose exit status the transport lost.
// The SPDY channel reports non-zero exits as a coded error, but not every
// failure mode carries one; callers that need a verdict on unknown codes
// fall back to inspecting output (see internal/orchestrator).
const ExitCodeUnknown = -1

// ExecResult is the captured outcome of one command run inside a pod.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exec runs command through `/bin/sh -c` inside the named pod, with env
// assignments prefixed the way the test controller image expects them.
// The error is non-nil only for transport-level failures (no connection,
// timeout); a command that ran and exited non-zero returns a nil error
// with the code in ExecResult.
func (c *Client) Exec(ctx context.Context, podName, command string, env map[string]string) (ExecResult, error) {
	shellCmd := command
	if len(env) > 0 {
		shellCmd = envPrefix(env) + " " + command
	}
	c.logger.Debug("exec in pod", "pod", podName, "command", shellCmd)

	req := c.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(c.namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Command: []string{"/bin/sh", "-c", shellCmd},
			Stdout:  true,
			Stderr:  true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.restConfig, http.MethodPost, req.URL())
	if err != nil {
		return ExecResult{ExitCode: ExitCodeUnknown}, fmt.Errorf("creating SPDY executor: %w", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, c.execTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	streamErr := executor.StreamWithContext(execCtx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})

	result := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if streamErr == nil {
		result.ExitCode = 0
		return result, nil
	}

	// A coded exit error means the command ran to completion; recover the
	// real exit status instead of treating it as a transport fault.
	var exitErr utilexec.CodeExitError
	if errors.As(streamErr, &exitErr) {
		result.ExitCode = exitErr.Code
		return result, nil
	}

	result.ExitCode = ExitCodeUnknown
	if ctxErr := execCtx.Err(); ctxErr != nil {
		return result, fmt.Errorf("exec in pod %s: %w", podName, ctxErr)
	}
	return result, fmt.Errorf("exec in pod %s: %w", podName, streamErr)
}

// envPrefix renders env assignments for a sh -c command line, in sorted
// key order so repeated invocations are identical in logs.
func envPrefix(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+shellQuote(env[k]))
	}
	return strings.Join(parts, " ")
}

// shellQuote wraps a string in single quotes for safe shell expansion.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
