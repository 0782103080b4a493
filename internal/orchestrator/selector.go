package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/steveyegge/testops/internal/cluster"
	"github.com/steveyegge/testops/internal/grid"
)

// gridPort is the browser automation endpoint every node exposes.
const gridPort = 4444

// probeTimeout bounds one status probe; a slow node must not eat the
// exec budget meant for test commands.
const probeTimeout = 30 * time.Second

// WorkerDNS is a browser node pod's stable in-cluster DNS name via the
// headless service.
func (o *Orchestrator) WorkerDNS(podName string) string {
	return fmt.Sprintf("%s.%s.%s.svc.cluster.local",
		podName, o.cfg.BrowserNodeHeadlessSvc, o.cfg.Namespace)
}

// SelectWorker finds the first browser node, in listing order, that is
// cluster-ready and has a free session slot. It returns the node's DNS
// name, or ErrNoWorkerAvailable when nothing qualifies. First-fit, not
// best-fit; probe failures of any kind skip the candidate.
func (o *Orchestrator) SelectWorker(ctx context.Context) (string, error) {
	controllerPod, err := o.controllerPod(ctx)
	if err != nil {
		return "", err
	}
	o.logger.Info("probing browser nodes via controller pod", "controller_pod", controllerPod)

	pods, err := o.cluster.ListPods(ctx, o.cfg.BrowserNodePodLabel)
	if err != nil {
		return "", fmt.Errorf("listing browser nodes: %w", err)
	}
	if len(pods) == 0 {
		o.logger.Warn("no browser node pods found", "label", o.cfg.BrowserNodePodLabel)
		return "", ErrNoWorkerAvailable
	}
	o.logger.Info("found browser node pods", "count", len(pods))

	for i := range pods {
		pod := &pods[i]
		if !cluster.PodReady(pod) {
			o.logger.Debug("browser node not ready, skipping", "pod", pod.Name)
			continue
		}

		dns := o.WorkerDNS(pod.Name)
		status := o.probeWorker(ctx, controllerPod, dns)
		o.logger.Info("browser node status", "pod", pod.Name,
			"ready", status.Ready, "sessions", status.Active, "max_sessions", status.Capacity,
			"available", status.Available())

		if status.Available() {
			o.logger.Info("selected browser node", "dns", dns)
			return dns, nil
		}
	}

	o.logger.Warn("no available browser node found")
	return "", ErrNoWorkerAvailable
}

// probeWorker fetches a node's /status through the controller pod. The
// orchestrator and the fleet are on different network segments, so the
// probe is a curl run inside the cluster rather than a direct HTTP call.
// Every failure mode means "unavailable", never an error.
func (o *Orchestrator) probeWorker(ctx context.Context, controllerPod, dns string) grid.WorkerStatus {
	url := fmt.Sprintf("http://%s:%d/status", dns, gridPort)
	command := fmt.Sprintf("curl -s --connect-timeout 3 --max-time 10 %s", url)

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	result, err := o.cluster.Exec(probeCtx, controllerPod, command, nil)
	if err != nil || result.ExitCode != 0 || result.Stdout == "" {
		o.logger.Debug("status probe failed", "url", url,
			"exit_code", result.ExitCode, "stderr", result.Stderr, "error", err)
		return grid.WorkerStatus{}
	}

	status, err := grid.ParseStatus([]byte(result.Stdout))
	if err != nil {
		o.logger.Debug("status probe unparseable", "url", url, "error", err)
		return grid.WorkerStatus{}
	}
	return status
}
