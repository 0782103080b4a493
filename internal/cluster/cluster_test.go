package cluster

import (
	"context"
	"log/slog"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func testClient(objs ...*corev1.Pod) *Client {
	clientset := fake.NewSimpleClientset()
	for _, p := range objs {
		_, _ = clientset.CoreV1().Pods(p.Namespace).Create(context.Background(), p, metav1.CreateOptions{})
	}
	return &Client{
		clientset:   clientset,
		namespace:   "insider-testops",
		logger:      slog.New(slog.DiscardHandler),
		execTimeout: DefaultExecTimeout,
	}
}

func makePod(name string, labels map[string]string, phase corev1.PodPhase, containersReady ...bool) *corev1.Pod {
	statuses := make([]corev1.ContainerStatus, 0, len(containersReady))
	for _, ready := range containersReady {
		statuses = append(statuses, corev1.ContainerStatus{Ready: ready})
	}
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "insider-testops",
			Labels:    labels,
		},
		Status: corev1.PodStatus{
			Phase:             phase,
			ContainerStatuses: statuses,
		},
	}
}

func TestListPods_FiltersByLabel(t *testing.T) {
	c := testClient(
		makePod("browser-node-0", map[string]string{"app": "browser-node"}, corev1.PodRunning, true),
		makePod("browser-node-1", map[string]string{"app": "browser-node"}, corev1.PodPending),
		makePod("test-controller-0", map[string]string{"app": "test-controller"}, corev1.PodRunning, true),
	)

	pods, err := c.ListPods(context.Background(), "app=browser-node")
	if err != nil {
		t.Fatalf("ListPods() error: %v", err)
	}
	if len(pods) != 2 {
		t.Fatalf("ListPods() returned %d pods, want 2", len(pods))
	}
	for _, p := range pods {
		if p.Labels["app"] != "browser-node" {
			t.Errorf("ListPods() returned pod %s with label %q", p.Name, p.Labels["app"])
		}
	}
}

func TestNamespaceScope(t *testing.T) {
	c := testClient()
	if got := c.Namespace(); got != "insider-testops" {
		t.Errorf("Namespace() = %q, want %q", got, "insider-testops")
	}
}

func TestListPods_NoMatches(t *testing.T) {
	c := testClient()
	pods, err := c.ListPods(context.Background(), "app=browser-node")
	if err != nil {
		t.Fatalf("ListPods() error: %v", err)
	}
	if len(pods) != 0 {
		t.Errorf("ListPods() returned %d pods, want 0", len(pods))
	}
}

func TestPodReady(t *testing.T) {
	tests := []struct {
		name string
		pod  *corev1.Pod
		want bool
	}{
		{
			name: "running all containers ready",
			pod:  makePod("a", nil, corev1.PodRunning, true, true),
			want: true,
		},
		{
			name: "running one container not ready",
			pod:  makePod("b", nil, corev1.PodRunning, true, false),
			want: false,
		},
		{
			name: "pending",
			pod:  makePod("c", nil, corev1.PodPending, true),
			want: false,
		},
		{
			name: "failed",
			pod:  makePod("d", nil, corev1.PodFailed, true),
			want: false,
		},
		{
			name: "running without container statuses",
			pod:  makePod("e", nil, corev1.PodRunning),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PodReady(tt.pod); got != tt.want {
				t.Errorf("PodReady() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvPrefix_SortedAndQuoted(t *testing.T) {
	got := envPrefix(map[string]string{
		"REMOTE_URL": "http://node-0:4444",
		"HEADLESS":   "true",
	})
	want := "HEADLESS='true' REMOTE_URL='http://node-0:4444'"
	if got != want {
		t.Errorf("envPrefix() = %q, want %q", got, want)
	}
}

func TestShellQuote_EscapesSingleQuotes(t *testing.T) {
	got := shellQuote("it's")
	want := `'it'\''s'`
	if got != want {
		t.Errorf("shellQuote() = %q, want %q", got, want)
	}
}
