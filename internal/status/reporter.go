package status

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stackctl/pkg/logging"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// maxRecentEvents bounds the event tail included in a snapshot.
const maxRecentEvents = 10

// WorkloadStatus is the condensed state of one deployment.
type WorkloadStatus struct {
	Name    string `yaml:"name"`
	Ready   int32  `yaml:"ready"`
	Desired int32  `yaml:"desired"`
}

// Healthy reports whether all desired replicas are ready.
func (w WorkloadStatus) Healthy() bool {
	return w.Desired > 0 && w.Ready >= w.Desired
}

// ServiceStatus is the condensed state of one service.
type ServiceStatus struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	ClusterIP string   `yaml:"clusterIP"`
	Ports     []string `yaml:"ports,omitempty"`
}

// IngressStatus is the condensed state of one ingress.
type IngressStatus struct {
	Name    string   `yaml:"name"`
	Hosts   []string `yaml:"hosts,omitempty"`
	Address string   `yaml:"address,omitempty"`
}

// EventInfo is one recent namespace event.
type EventInfo struct {
	LastSeen time.Time `yaml:"lastSeen"`
	Type     string    `yaml:"type"`
	Reason   string    `yaml:"reason"`
	Object   string    `yaml:"object"`
	Message  string    `yaml:"message"`
}

// Snapshot is a point-in-time, read-only view of the stack's cluster
// state. Ingresses is nil when the namespace has none configured.
type Snapshot struct {
	Namespace  string           `yaml:"namespace"`
	Workloads  []WorkloadStatus `yaml:"workloads"`
	Services   []ServiceStatus  `yaml:"services"`
	Ingresses  []IngressStatus  `yaml:"ingresses,omitempty"`
	ReadyCount int              `yaml:"readyCount"`
	TotalCount int              `yaml:"totalCount"`
	Events     []EventInfo      `yaml:"recentEvents,omitempty"`
}

// Reporter produces snapshots. It never mutates cluster state.
type Reporter struct {
	clientset kubernetes.Interface
}

// NewReporter wraps a clientset.
func NewReporter(clientset kubernetes.Interface) *Reporter {
	return &Reporter{clientset: clientset}
}

// Snapshot gathers the namespace's workloads, services, ingresses and
// recent events. Optional resource kinds that cannot be listed are
// omitted rather than failing the whole snapshot.
func (r *Reporter) Snapshot(ctx context.Context, namespace string) (*Snapshot, error) {
	snap := &Snapshot{Namespace: namespace}

	deployments, err := r.clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments in %q: %w", namespace, err)
	}
	for _, d := range deployments.Items {
		desired := int32(1)
		if d.Spec.Replicas != nil {
			desired = *d.Spec.Replicas
		}
		w := WorkloadStatus{Name: d.Name, Ready: d.Status.ReadyReplicas, Desired: desired}
		snap.Workloads = append(snap.Workloads, w)
		snap.TotalCount++
		if w.Healthy() {
			snap.ReadyCount++
		}
	}

	services, err := r.clientset.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services in %q: %w", namespace, err)
	}
	for _, s := range services.Items {
		svc := ServiceStatus{
			Name:      s.Name,
			Type:      string(s.Spec.Type),
			ClusterIP: s.Spec.ClusterIP,
		}
		for _, p := range s.Spec.Ports {
			svc.Ports = append(svc.Ports, fmt.Sprintf("%d/%s", p.Port, p.Protocol))
		}
		snap.Services = append(snap.Services, svc)
	}

	// Ingress is optional: a stack without one is healthy, and clusters
	// may deny ingress listing entirely. Omit rather than fail.
	ingresses, err := r.clientset.NetworkingV1().Ingresses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		logging.Warn("StatusReporter", "Could not list ingresses in %q, omitting: %v", namespace, err)
	} else {
		for _, ing := range ingresses.Items {
			st := IngressStatus{Name: ing.Name}
			for _, rule := range ing.Spec.Rules {
				if rule.Host != "" {
					st.Hosts = append(st.Hosts, rule.Host)
				}
			}
			for _, lb := range ing.Status.LoadBalancer.Ingress {
				if lb.Hostname != "" {
					st.Address = lb.Hostname
				} else if lb.IP != "" {
					st.Address = lb.IP
				}
			}
			snap.Ingresses = append(snap.Ingresses, st)
		}
	}

	events, err := r.clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		logging.Warn("StatusReporter", "Could not list events in %q, omitting: %v", namespace, err)
	} else {
		for _, e := range events.Items {
			snap.Events = append(snap.Events, EventInfo{
				LastSeen: e.LastTimestamp.Time,
				Type:     e.Type,
				Reason:   e.Reason,
				Object:   fmt.Sprintf("%s/%s", e.InvolvedObject.Kind, e.InvolvedObject.Name),
				Message:  e.Message,
			})
		}
		sort.Slice(snap.Events, func(i, j int) bool {
			return snap.Events[i].LastSeen.After(snap.Events[j].LastSeen)
		})
		if len(snap.Events) > maxRecentEvents {
			snap.Events = snap.Events[:maxRecentEvents]
		}
	}

	return snap, nil
}
