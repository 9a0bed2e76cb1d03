package kube

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"stackctl/pkg/logging"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ErrNotFound is returned when a requested cluster resource is absent.
var ErrNotFound = errors.New("resource not found")

// ErrReadinessTimeout is returned by WaitForWorkloadsReady when the
// timeout elapses before every selected workload is ready. Callers treat
// it as a warning, not a deployment failure.
var ErrReadinessTimeout = errors.New("timed out waiting for workloads to become ready")

// readinessPollInterval is how often the readiness wait re-queries the
// cluster. A variable so tests can shrink it.
var readinessPollInterval = 5 * time.Second

// Client implements ControlPlane against a Kubernetes clientset.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient wraps an existing clientset.
func NewClient(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// NewClientForContext builds a Client for the named kubeconfig context.
func NewClientForContext(kubeContext string) (*Client, error) {
	clientset, err := GetClientsetForContext(kubeContext)
	if err != nil {
		return nil, err
	}
	return NewClient(clientset), nil
}

// Clientset exposes the underlying clientset for read-only consumers
// (the status reporter) that need resource kinds beyond ControlPlane.
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get namespace %q: %w", name, err)
	}
	return true, nil
}

func (c *Client) EnsureNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
	_, err := c.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			logging.Debug("ControlPlane", "Namespace %q already exists", name)
			return nil
		}
		return fmt.Errorf("failed to create namespace %q: %w", name, err)
	}
	logging.Info("ControlPlane", "Created namespace %q", name)
	return nil
}

func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	err := c.clientset.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete namespace %q: %w", name, err)
	}
	logging.Info("ControlPlane", "Namespace %q deletion initiated", name)
	return nil
}

func (c *Client) SecretMatches(ctx context.Context, namespace, name string, data map[string][]byte) (bool, error) {
	secret, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get secret %s/%s: %w", namespace, name, err)
	}
	return reflect.DeepEqual(secret.Data, data), nil
}

func (c *Client) UpsertSecret(ctx context.Context, namespace, name string, data map[string][]byte) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}

	_, err := c.clientset.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
	if err == nil {
		logging.Info("ControlPlane", "Created secret %s/%s", namespace, name)
		return nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create secret %s/%s: %w", namespace, name, err)
	}

	existing, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to get secret %s/%s for update: %w", namespace, name, err)
	}
	existing.Data = data
	existing.Type = corev1.SecretTypeOpaque
	if _, err := c.clientset.CoreV1().Secrets(namespace).Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update secret %s/%s: %w", namespace, name, err)
	}
	logging.Info("ControlPlane", "Updated secret %s/%s", namespace, name)
	return nil
}

// WorkloadsReady counts label-selected deployments in the namespace that
// have all desired replicas ready.
func (c *Client) WorkloadsReady(ctx context.Context, namespace, selector string) (int, int, error) {
	deployments, err := c.clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list deployments in %q: %w", namespace, err)
	}

	total := len(deployments.Items)
	ready := 0
	for _, d := range deployments.Items {
		if deploymentReady(&d) {
			ready++
		}
	}
	return ready, total, nil
}

func deploymentReady(d *appsv1.Deployment) bool {
	desired := int32(1)
	if d.Spec.Replicas != nil {
		desired = *d.Spec.Replicas
	}
	return desired > 0 && d.Status.ReadyReplicas >= desired
}

func (c *Client) WaitForWorkloadsReady(ctx context.Context, namespace, selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	subsystem := "ControlPlane"

	for {
		ready, total, err := c.WorkloadsReady(ctx, namespace, selector)
		if err != nil {
			return err
		}
		if total > 0 && ready == total {
			logging.Info(subsystem, "All workloads ready: %d/%d", ready, total)
			return nil
		}
		logging.Debug(subsystem, "Waiting for workloads: %d/%d ready (selector %q)", ready, total, selector)

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d/%d ready after %s", ErrReadinessTimeout, ready, total, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readinessPollInterval):
		}
	}
}
