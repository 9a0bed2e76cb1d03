package release

import (
	"context"
	"errors"
)

// ErrReleaseNotFound is returned by Uninstall and reported by IsInstalled
// when the named release is absent from the namespace.
var ErrReleaseNotFound = errors.New("release not found")

// Spec is everything the release manager needs for one install-or-upgrade.
type Spec struct {
	Name      string
	Namespace string
	Chart     string
	Version   string

	// Values is the resolved configuration document. It is rendered to
	// YAML and handed to the release manager in memory only; it must not
	// contain the plaintext credential (the credential travels via the
	// control-plane secret object the values reference).
	Values map[string]interface{}
}

// Manager is the package-install layer. The orchestrator treats
// InstallOrUpgrade as a single atomic unit; sub-resource idempotency is
// the manager's concern.
type Manager interface {
	// InstallOrUpgrade installs the release or upgrades it in place.
	InstallOrUpgrade(ctx context.Context, spec Spec) error

	// Uninstall removes the release. Returns ErrReleaseNotFound when it
	// is already absent.
	Uninstall(ctx context.Context, name, namespace string) error

	// IsInstalled reports whether the release exists in the namespace.
	IsInstalled(ctx context.Context, name, namespace string) (bool, error)
}
