package release

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"stackctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var runHelmCommand = func(ctx context.Context, stdin []byte, args ...string) (stdout string, stderr string, err error) {
	cmd := exec.CommandContext(ctx, "helm", args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	runErr := cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), runErr
}

// HelmManager implements Manager by driving the `helm` CLI. The values
// document is piped over stdin so it never touches the filesystem.
type HelmManager struct {
	kubeContext string
}

// NewHelmManager returns a manager pinned to the given kubeconfig context.
// An empty context means helm's current context.
func NewHelmManager(kubeContext string) *HelmManager {
	return &HelmManager{kubeContext: kubeContext}
}

func (m *HelmManager) contextArgs() []string {
	if m.kubeContext == "" {
		return nil
	}
	return []string{"--kube-context", m.kubeContext}
}

func (m *HelmManager) InstallOrUpgrade(ctx context.Context, spec Spec) error {
	valuesYAML, err := yaml.Marshal(spec.Values)
	if err != nil {
		return fmt.Errorf("failed to render values document: %w", err)
	}

	args := []string{
		"upgrade", "--install", spec.Name, spec.Chart,
		"--namespace", spec.Namespace,
		"--version", spec.Version,
		"--values", "-",
		"--wait=false",
	}
	args = append(args, m.contextArgs()...)

	logging.Info("ReleaseManager", "Installing release %q (chart %s, version %s) into %q", spec.Name, spec.Chart, spec.Version, spec.Namespace)
	_, stderr, err := runHelmCommand(ctx, valuesYAML, args...)
	if err != nil {
		return fmt.Errorf("helm upgrade --install %s failed: %w. Stderr: %s", spec.Name, err, strings.TrimSpace(stderr))
	}
	return nil
}

func (m *HelmManager) Uninstall(ctx context.Context, name, namespace string) error {
	args := []string{"uninstall", name, "--namespace", namespace}
	args = append(args, m.contextArgs()...)

	_, stderr, err := runHelmCommand(ctx, nil, args...)
	if err != nil {
		if isNotFoundStderr(stderr) {
			return ErrReleaseNotFound
		}
		return fmt.Errorf("helm uninstall %s failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr))
	}
	logging.Info("ReleaseManager", "Uninstalled release %q from %q", name, namespace)
	return nil
}

func (m *HelmManager) IsInstalled(ctx context.Context, name, namespace string) (bool, error) {
	args := []string{"status", name, "--namespace", namespace}
	args = append(args, m.contextArgs()...)

	_, stderr, err := runHelmCommand(ctx, nil, args...)
	if err != nil {
		if isNotFoundStderr(stderr) {
			return false, nil
		}
		return false, fmt.Errorf("helm status %s failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr))
	}
	return true, nil
}

func isNotFoundStderr(stderr string) bool {
	return strings.Contains(stderr, "release: not found") || strings.Contains(stderr, "not found")
}
