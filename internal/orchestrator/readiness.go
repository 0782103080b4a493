package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/steveyegge/testops/internal/cluster"
)

// WaitReady blocks until at least minReady pods matching labelSelector are
// simultaneously ready, or the configured readiness timeout elapses. Fixed
// poll interval, no backoff. Zero pods listed counts as zero ready; list
// errors count as zero ready and polling continues.
func (o *Orchestrator) WaitReady(ctx context.Context, labelSelector string, minReady int) error {
	o.logger.Info("waiting for pods", "label", labelSelector, "min_ready", minReady,
		"timeout", o.cfg.ReadinessTimeout)

	deadline := time.Now().Add(o.cfg.ReadinessTimeout)
	for {
		pods, err := o.cluster.ListPods(ctx, labelSelector)
		if err != nil {
			o.logger.Warn("pod list failed, counting zero ready", "label", labelSelector, "error", err)
			pods = nil
		}

		readyCount := 0
		for i := range pods {
			if cluster.PodReady(&pods[i]) {
				readyCount++
			}
		}
		o.logger.Info("readiness", "label", labelSelector,
			"ready", readyCount, "required", minReady, "total", len(pods))

		if readyCount >= minReady {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pods with label %s not ready after %v (%d/%d)",
				labelSelector, o.cfg.ReadinessTimeout, readyCount, minReady)
		}

		select {
		case <-time.After(o.cfg.ReadinessInterval):
		case <-ctx.Done():
			return fmt.Errorf("waiting for pods with label %s: %w", labelSelector, ctx.Err())
		}
	}
}
