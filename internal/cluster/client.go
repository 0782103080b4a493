// Package cluster is a thin facade over the Kubernetes API: list pods by
// label selector and exec commands inside a pod. It never mutates cluster
// state; the deployed release is helm's business (see internal/helm).
package cluster

import (
	"fmt"
	"log/slog"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// DefaultExecTimeout bounds exec calls that run test commands.
const DefaultExecTimeout = 300 * time.Second

// Client talks to one namespace of one cluster.
type Client struct {
	clientset   kubernetes.Interface
	restConfig  *rest.Config
	namespace   string
	logger      *slog.Logger
	execTimeout time.Duration
}

// New builds a Client from a kubeconfig path. An empty path tries
// in-cluster config first, then the default kubeconfig chain.
func New(kubeConfig, namespace string, logger *slog.Logger) (*Client, error) {
	restConfig, err := buildRESTConfig(kubeConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("building kube config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating clientset: %w", err)
	}
	return &Client{
		clientset:   clientset,
		restConfig:  restConfig,
		namespace:   namespace,
		logger:      logger,
		execTimeout: DefaultExecTimeout,
	}, nil
}

func buildRESTConfig(kubeConfig string, logger *slog.Logger) (*rest.Config, error) {
	if kubeConfig != "" {
		logger.Info("loading kubeconfig", "path", kubeConfig)
		return clientcmd.BuildConfigFromFlags("", kubeConfig)
	}

	// Try in-cluster first, then default kubeconfig.
	if cfg, err := rest.InClusterConfig(); err == nil {
		logger.Info("loaded in-cluster config")
		return cfg, nil
	}
	logger.Info("loading default kubeconfig")
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules, &clientcmd.ConfigOverrides{}).ClientConfig()
}

// Namespace returns the namespace every call is scoped to.
func (c *Client) Namespace() string {
	return c.namespace
}
