package livestate

import (
	"context"
	"fmt"
	"sync"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/leonardobora/eco-dashboard-renault/pkg/config"
	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// KubernetesFeeder counts Ready cluster nodes as active servers.
// Workstations are not visible to the cluster and keep their last known value.
type KubernetesFeeder struct {
	clientset     kubernetes.Interface
	metricsClient metricsv.Interface
	labelSelector string

	mu           sync.Mutex
	workstations int
}

func NewKubernetesFeeder(cfg config.KubernetesConfig, start models.OperationalState) (*KubernetesFeeder, error) {
	restConfig, err := clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	var metricsClient metricsv.Interface
	if cfg.UseMetricsServer {
		metricsClient, err = metricsv.NewForConfig(restConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics client: %w", err)
		}
	}

	return NewKubernetesFeederForClients(clientset, metricsClient, cfg.LabelSelector, start), nil
}

// NewKubernetesFeederForClients wires existing clients. metricsClient may be nil.
func NewKubernetesFeederForClients(clientset kubernetes.Interface, metricsClient metricsv.Interface, labelSelector string, start models.OperationalState) *KubernetesFeeder {
	return &KubernetesFeeder{
		clientset:     clientset,
		metricsClient: metricsClient,
		labelSelector: labelSelector,
		workstations:  start.ActiveWorkstations,
	}
}

func (k *KubernetesFeeder) Observe(ctx context.Context) (models.OperationalState, error) {
	opts := metav1.ListOptions{LabelSelector: k.labelSelector}

	nodes, err := k.clientset.CoreV1().Nodes().List(ctx, opts)
	if err != nil {
		return models.OperationalState{}, fmt.Errorf("failed to list nodes: %w", err)
	}

	var reporting map[string]bool
	if k.metricsClient != nil {
		nodeMetrics, err := k.metricsClient.MetricsV1beta1().NodeMetricses().List(ctx, opts)
		if err != nil {
			return models.OperationalState{}, fmt.Errorf("failed to list node metrics: %w", err)
		}
		reporting = make(map[string]bool, len(nodeMetrics.Items))
		for _, m := range nodeMetrics.Items {
			reporting[m.Name] = true
		}
	}

	active := 0
	for i := range nodes.Items {
		node := &nodes.Items[i]
		if !isNodeReady(node) {
			continue
		}
		if reporting != nil && !reporting[node.Name] {
			klog.V(4).InfoS("Skipping node without usage metrics", "node", node.Name)
			continue
		}
		active++
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	return models.OperationalState{
		ActiveWorkstations: k.workstations,
		ActiveServers:      active,
	}, nil
}

// SetWorkstations updates the workstation count reported alongside nodes
func (k *KubernetesFeeder) SetWorkstations(n int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.workstations = n
}

func (k *KubernetesFeeder) Name() string {
	return config.FeederKubernetes
}

func isNodeReady(node *corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}
