package teardown

import (
	"context"
	"errors"
	"fmt"

	"stackctl/internal/config"
	"stackctl/internal/kube"
	"stackctl/internal/pipeline"
	"stackctl/internal/release"
	"stackctl/internal/secrets"
)

// Step names, stable across reporting surfaces.
const (
	StepUninstallRelease  = "uninstall-release"
	StepDeleteNamespace   = "delete-namespace"
	StepDeleteSecretEntry = "delete-secret-entry"
	StepDeleteMetadata    = "delete-metadata-bucket"
	StepDeleteUserData    = "delete-userdata-bucket"
	StepDeleteIAMRole     = "delete-iam-role"
)

// Options tune how the coordinator prompts.
type Options struct {
	// Force approves every confirmation prompt.
	Force bool

	// YesSecretDelete pre-approves only the secret store deletion, which
	// is irreversible and gets its own prompt.
	YesSecretDelete bool
}

// Report is the outcome of one teardown run. Failures are independent
// and additive: every step is attempted, and Failed reports whether any
// of them broke.
type Report struct {
	Steps []pipeline.Result
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	return pipeline.Failed(r.Steps)
}

// Coordinator drives the removal of every resource an install created.
// The secret value is never resolved on this path; only the store entry
// name is needed.
type Coordinator struct {
	cfg          *config.DeploymentConfig
	controlPlane kube.ControlPlane
	releases     release.Manager
	store        secrets.Store
	objects      ObjectStore
	roles        RoleManager
	confirm      Confirmer
	opts         Options
}

// New wires a coordinator from its collaborators.
func New(cfg *config.DeploymentConfig, cp kube.ControlPlane, rm release.Manager, store secrets.Store, objects ObjectStore, roles RoleManager, confirm Confirmer, opts Options) *Coordinator {
	if opts.Force {
		confirm = AutoApprove()
	}
	return &Coordinator{
		cfg:          cfg,
		controlPlane: cp,
		releases:     rm,
		store:        store,
		objects:      objects,
		roles:        roles,
		confirm:      confirm,
		opts:         opts,
	}
}

// Run attempts every teardown step regardless of earlier failures and
// returns the full outcome vector.
func (c *Coordinator) Run(ctx context.Context) *Report {
	return &Report{Steps: pipeline.RunCollectAll(ctx, c.steps())}
}

func (c *Coordinator) steps() []pipeline.Step {
	cfg := c.cfg

	steps := []pipeline.Step{
		{
			Name:    StepUninstallRelease,
			Confirm: c.gate(fmt.Sprintf("Uninstall release %q from namespace %q?", cfg.ReleaseName, cfg.Namespace)),
			Satisfied: func(ctx context.Context) (bool, error) {
				installed, err := c.releases.IsInstalled(ctx, cfg.ReleaseName, cfg.Namespace)
				if err != nil {
					return false, err
				}
				return !installed, nil
			},
			Apply: func(ctx context.Context) error {
				err := c.releases.Uninstall(ctx, cfg.ReleaseName, cfg.Namespace)
				if errors.Is(err, release.ErrReleaseNotFound) {
					return nil
				}
				return err
			},
		},
		{
			Name:    StepDeleteNamespace,
			Confirm: c.gate(fmt.Sprintf("Delete namespace %q and everything in it?", cfg.Namespace)),
			Detail:  "deletion initiated",
			Satisfied: func(ctx context.Context) (bool, error) {
				exists, err := c.controlPlane.NamespaceExists(ctx, cfg.Namespace)
				if err != nil {
					return false, err
				}
				return !exists, nil
			},
			Apply: func(ctx context.Context) error {
				err := c.controlPlane.DeleteNamespace(ctx, cfg.Namespace)
				if errors.Is(err, kube.ErrNotFound) {
					return nil
				}
				return err
			},
		},
	}

	if cfg.Database.SecretName != "" {
		steps = append(steps, pipeline.Step{
			Name:    StepDeleteSecretEntry,
			Confirm: c.secretGate(fmt.Sprintf("Permanently delete secret store entry %q? This is immediate, with no recovery window.", cfg.Database.SecretName)),
			Apply: func(ctx context.Context) error {
				err := c.store.Delete(ctx, cfg.Database.SecretName, false)
				var berr *secrets.BrokerError
				if errors.As(err, &berr) && berr.Kind == secrets.KindNotFound {
					return nil
				}
				return err
			},
		})
	}

	// Bucket cleanup runs only when both identifiers are configured; a
	// half-configured pair is treated as not ours to delete. The two steps
	// stay independent so one stuck bucket does not block the other.
	bucketsConfigured := cfg.MetadataBucket != "" && cfg.UserDataBucket != ""
	steps = append(steps,
		c.bucketStep(StepDeleteMetadata, cfg.MetadataBucket, bucketsConfigured),
		c.bucketStep(StepDeleteUserData, cfg.UserDataBucket, bucketsConfigured),
	)

	steps = append(steps, pipeline.Step{
		Name:    StepDeleteIAMRole,
		Confirm: c.gate(fmt.Sprintf("Delete IAM role %q?", cfg.IAMRoleARN)),
		Satisfied: func(ctx context.Context) (bool, error) {
			return cfg.IAMRoleARN == "", nil
		},
		Apply: func(ctx context.Context) error {
			return c.roles.DeleteRole(ctx, cfg.IAMRoleARN)
		},
	})

	return steps
}

// bucketStep builds one empty-then-delete step. The precondition skips
// unconfigured buckets before the operator is ever prompted.
func (c *Coordinator) bucketStep(name, bucket string, configured bool) pipeline.Step {
	return pipeline.Step{
		Name:    name,
		Confirm: c.gate(fmt.Sprintf("Empty and delete bucket %q?", bucket)),
		Satisfied: func(ctx context.Context) (bool, error) {
			return !configured, nil
		},
		Apply: func(ctx context.Context) error {
			if err := c.objects.EmptyBucket(ctx, bucket); err != nil {
				return err
			}
			return c.objects.DeleteBucket(ctx, bucket)
		},
	}
}

func (c *Coordinator) gate(prompt string) func() bool {
	return func() bool { return c.confirm.Confirm(prompt) }
}

// secretGate honors --yes-secret-delete in addition to --force.
func (c *Coordinator) secretGate(prompt string) func() bool {
	if c.opts.YesSecretDelete {
		return func() bool { return true }
	}
	return func() bool { return c.confirm.Confirm(prompt) }
}
