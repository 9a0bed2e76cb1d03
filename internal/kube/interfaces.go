package kube

import (
	"context"
	"time"
)

// ControlPlane is the narrow surface of the cluster API the provisioning
// core depends on. The concrete implementation is *Client; tests inject
// fakes.
type ControlPlane interface {
	// NamespaceExists reports whether the namespace is present.
	NamespaceExists(ctx context.Context, name string) (bool, error)

	// EnsureNamespace creates the namespace if it does not exist.
	// Safe to call when the namespace is already present.
	EnsureNamespace(ctx context.Context, name string) error

	// DeleteNamespace initiates namespace deletion. Deletion is
	// asynchronous on the cluster side; this returns as soon as the
	// request is accepted. Returns ErrNotFound if the namespace is absent.
	DeleteNamespace(ctx context.Context, name string) error

	// SecretMatches reports whether the named secret exists and already
	// carries exactly the given key/value data.
	SecretMatches(ctx context.Context, namespace, name string, data map[string][]byte) (bool, error)

	// UpsertSecret creates or updates the named secret with the given
	// data (create-or-update, never a blind create).
	UpsertSecret(ctx context.Context, namespace, name string, data map[string][]byte) error

	// WorkloadsReady returns the number of ready and total label-selected
	// workloads in the namespace.
	WorkloadsReady(ctx context.Context, namespace, selector string) (ready int, total int, err error)

	// WaitForWorkloadsReady blocks until every label-selected workload in
	// the namespace is ready, the timeout elapses (ErrReadinessTimeout),
	// or the context is cancelled.
	WaitForWorkloadsReady(ctx context.Context, namespace, selector string, timeout time.Duration) error
}
