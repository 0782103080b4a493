package orchestrator

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/steveyegge/testops/internal/cluster"
)

// PodInfo is a read-only snapshot of one pod, fetched fresh on every call.
type PodInfo struct {
	Name  string
	Phase string
	Ready bool
	IP    string
}

// Fleet is the controller and browser node pods at one instant.
type Fleet struct {
	Namespace    string
	Controller   []PodInfo
	BrowserNodes []PodInfo
}

// FleetStatus snapshots the controller and browser node pods.
func (o *Orchestrator) FleetStatus(ctx context.Context) (Fleet, error) {
	fleet := Fleet{Namespace: o.cfg.Namespace}

	controller, err := o.cluster.ListPods(ctx, o.cfg.ControllerPodLabel)
	if err != nil {
		return Fleet{}, fmt.Errorf("listing controller pods: %w", err)
	}
	fleet.Controller = podInfos(controller)

	nodes, err := o.cluster.ListPods(ctx, o.cfg.BrowserNodePodLabel)
	if err != nil {
		return Fleet{}, fmt.Errorf("listing browser node pods: %w", err)
	}
	fleet.BrowserNodes = podInfos(nodes)

	return fleet, nil
}

func podInfos(pods []corev1.Pod) []PodInfo {
	infos := make([]PodInfo, 0, len(pods))
	for i := range pods {
		infos = append(infos, PodInfo{
			Name:  pods[i].Name,
			Phase: string(pods[i].Status.Phase),
			Ready: cluster.PodReady(&pods[i]),
			IP:    pods[i].Status.PodIP,
		})
	}
	return infos
}

func (o *Orchestrator) logFleet(fleet Fleet) {
	o.logger.Info("fleet status", "controller_pods", len(fleet.Controller),
		"browser_nodes", len(fleet.BrowserNodes))
	for _, p := range fleet.Controller {
		o.logger.Info("controller pod", "name", p.Name, "phase", p.Phase, "ready", p.Ready, "ip", p.IP)
	}
	for _, p := range fleet.BrowserNodes {
		o.logger.Info("browser node pod", "name", p.Name, "phase", p.Phase, "ready", p.Ready, "ip", p.IP)
	}
}
