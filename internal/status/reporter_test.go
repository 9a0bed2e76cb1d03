package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func deployment(name string, desired, ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "flyte"},
		Spec:       appsv1.DeploymentSpec{Replicas: &desired},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: ready},
	}
}

func TestSnapshot_CountsAndContents(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		deployment("flyteadmin", 2, 2),
		deployment("flytepropeller", 1, 0),
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "flyteadmin", Namespace: "flyte"},
			Spec: corev1.ServiceSpec{
				Type:      corev1.ServiceTypeClusterIP,
				ClusterIP: "10.0.0.10",
				Ports:     []corev1.ServicePort{{Port: 81, Protocol: corev1.ProtocolTCP}},
			},
		},
		&networkingv1.Ingress{
			ObjectMeta: metav1.ObjectMeta{Name: "flyte", Namespace: "flyte"},
			Spec: networkingv1.IngressSpec{
				Rules: []networkingv1.IngressRule{{Host: "flyte.example.com"}},
			},
		},
	)

	snap, err := NewReporter(clientset).Snapshot(context.Background(), "flyte")
	require.NoError(t, err)

	assert.Equal(t, 2, snap.TotalCount)
	assert.Equal(t, 1, snap.ReadyCount)
	require.Len(t, snap.Workloads, 2)
	require.Len(t, snap.Services, 1)
	assert.Equal(t, []string{"81/TCP"}, snap.Services[0].Ports)
	require.Len(t, snap.Ingresses, 1)
	assert.Equal(t, []string{"flyte.example.com"}, snap.Ingresses[0].Hosts)
}

func TestSnapshot_NoIngressOmitsField(t *testing.T) {
	clientset := fake.NewSimpleClientset(deployment("flyteadmin", 1, 1))

	snap, err := NewReporter(clientset).Snapshot(context.Background(), "flyte")
	require.NoError(t, err)
	assert.Nil(t, snap.Ingresses, "a stack without ingress omits the field rather than failing")
}

func TestSnapshot_EventTailSortedAndBounded(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clientset := fake.NewSimpleClientset()
	for i := 0; i < maxRecentEvents+5; i++ {
		_, err := clientset.CoreV1().Events("flyte").Create(context.Background(), &corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: string(rune('a'+i)) + "-event", Namespace: "flyte"},
			Type:           "Normal",
			Reason:         "Created",
			LastTimestamp:  metav1.Time{Time: base.Add(time.Duration(i) * time.Minute)},
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "flyteadmin-0"},
		}, metav1.CreateOptions{})
		require.NoError(t, err)
	}

	snap, err := NewReporter(clientset).Snapshot(context.Background(), "flyte")
	require.NoError(t, err)

	require.Len(t, snap.Events, maxRecentEvents)
	for i := 1; i < len(snap.Events); i++ {
		assert.True(t, !snap.Events[i].LastSeen.After(snap.Events[i-1].LastSeen), "events must be newest first")
	}
}

func TestRender_IncludesSummaryAndTables(t *testing.T) {
	snap := &Snapshot{
		Namespace:  "flyte",
		ReadyCount: 1,
		TotalCount: 2,
		Workloads: []WorkloadStatus{
			{Name: "flyteadmin", Ready: 1, Desired: 1},
			{Name: "flytepropeller", Ready: 0, Desired: 1},
		},
		Services: []ServiceStatus{
			{Name: "flyteadmin", Type: "ClusterIP", ClusterIP: "10.0.0.10", Ports: []string{"81/TCP"}},
		},
	}

	out := Render(snap)
	assert.Contains(t, out, "1/2 workloads ready")
	assert.Contains(t, out, "flyteadmin")
	assert.Contains(t, out, "NotReady")
	assert.Contains(t, out, "CLUSTER-IP")
	assert.NotContains(t, out, "INGRESS", "ingress table must be omitted when absent")
}
