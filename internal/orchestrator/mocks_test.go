package orchestrator

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"stackctl/internal/kube"
	"stackctl/internal/release"
	"stackctl/internal/secrets"
)

// fakeControlPlane is a stateful in-memory control plane. It records
// mutations so tests can assert idempotence and call ordering.
type fakeControlPlane struct {
	mu         sync.Mutex
	namespaces map[string]bool
	secrets    map[string]map[string][]byte

	// Scripted failures, keyed by operation name.
	failures map[string]error

	// notReady makes the readiness wait time out.
	notReady bool

	calls []string
}

func newFakeControlPlane() *fakeControlPlane {
	return &fakeControlPlane{
		namespaces: make(map[string]bool),
		secrets:    make(map[string]map[string][]byte),
		failures:   make(map[string]error),
	}
}

func (f *fakeControlPlane) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeControlPlane) fail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[op]
}

func (f *fakeControlPlane) NamespaceExists(ctx context.Context, name string) (bool, error) {
	f.record("NamespaceExists")
	if err := f.fail("NamespaceExists"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.namespaces[name], nil
}

func (f *fakeControlPlane) EnsureNamespace(ctx context.Context, name string) error {
	f.record("EnsureNamespace")
	if err := f.fail("EnsureNamespace"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.namespaces[name] = true
	return nil
}

func (f *fakeControlPlane) DeleteNamespace(ctx context.Context, name string) error {
	f.record("DeleteNamespace")
	if err := f.fail("DeleteNamespace"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.namespaces[name] {
		return kube.ErrNotFound
	}
	delete(f.namespaces, name)
	return nil
}

func (f *fakeControlPlane) SecretMatches(ctx context.Context, namespace, name string, data map[string][]byte) (bool, error) {
	f.record("SecretMatches")
	if err := f.fail("SecretMatches"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.secrets[namespace+"/"+name]
	return ok && reflect.DeepEqual(existing, data), nil
}

func (f *fakeControlPlane) UpsertSecret(ctx context.Context, namespace, name string, data map[string][]byte) error {
	f.record("UpsertSecret")
	if err := f.fail("UpsertSecret"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[namespace+"/"+name] = data
	return nil
}

func (f *fakeControlPlane) WorkloadsReady(ctx context.Context, namespace, selector string) (int, int, error) {
	f.record("WorkloadsReady")
	if f.notReady {
		return 0, 1, nil
	}
	return 1, 1, nil
}

func (f *fakeControlPlane) WaitForWorkloadsReady(ctx context.Context, namespace, selector string, timeout time.Duration) error {
	f.record("WaitForWorkloadsReady")
	if err := f.fail("WaitForWorkloadsReady"); err != nil {
		return err
	}
	if f.notReady {
		return fmt.Errorf("%w: 0/1 ready after %s", kube.ErrReadinessTimeout, timeout)
	}
	return nil
}

// fakeReleaseManager records install/uninstall calls against an in-memory
// release set.
type fakeReleaseManager struct {
	mu        sync.Mutex
	installed map[string]release.Spec
	failures  map[string]error
	calls     []string
}

func newFakeReleaseManager() *fakeReleaseManager {
	return &fakeReleaseManager{
		installed: make(map[string]release.Spec),
		failures:  make(map[string]error),
	}
}

func (f *fakeReleaseManager) key(name, namespace string) string {
	return namespace + "/" + name
}

func (f *fakeReleaseManager) InstallOrUpgrade(ctx context.Context, spec release.Spec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "InstallOrUpgrade")
	if err := f.failures["InstallOrUpgrade"]; err != nil {
		return err
	}
	f.installed[f.key(spec.Name, spec.Namespace)] = spec
	return nil
}

func (f *fakeReleaseManager) Uninstall(ctx context.Context, name, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "Uninstall")
	if err := f.failures["Uninstall"]; err != nil {
		return err
	}
	if _, ok := f.installed[f.key(name, namespace)]; !ok {
		return release.ErrReleaseNotFound
	}
	delete(f.installed, f.key(name, namespace))
	return nil
}

func (f *fakeReleaseManager) IsInstalled(ctx context.Context, name, namespace string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "IsInstalled")
	if err := f.failures["IsInstalled"]; err != nil {
		return false, err
	}
	_, ok := f.installed[f.key(name, namespace)]
	return ok, nil
}

// fakeSecretStore scripts the external secret store.
type fakeSecretStore struct {
	value    string
	getErr   error
	delErr   error
	getCalls int
	delCalls int
}

func (f *fakeSecretStore) Get(ctx context.Context, name string) (string, error) {
	f.getCalls++
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.value, nil
}

func (f *fakeSecretStore) Delete(ctx context.Context, name string, recoverable bool) error {
	f.delCalls++
	return f.delErr
}

var _ secrets.Store = (*fakeSecretStore)(nil)
var _ kube.ControlPlane = (*fakeControlPlane)(nil)
var _ release.Manager = (*fakeReleaseManager)(nil)
