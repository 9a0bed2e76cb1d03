package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"stackctl/internal/config"
	"stackctl/internal/kube"
	"stackctl/internal/pipeline"
	"stackctl/internal/release"
	"stackctl/internal/secrets"
	"stackctl/pkg/logging"
)

// State is the orchestrator's position in the install sequence.
type State string

const (
	StateInit               State = "Init"
	StateNamespaceEnsured   State = "NamespaceEnsured"
	StateSecretMaterialized State = "SecretMaterialized"
	StateReleaseApplied     State = "ReleaseApplied"
	StateReadinessAwaited   State = "ReadinessAwaited"
	StateDone               State = "Done"
	StateAborted            State = "Aborted"
)

// Step names, in install order.
const (
	StepEnsureNamespace   = "ensure-namespace"
	StepMaterializeSecret = "materialize-secret"
	StepApplyRelease      = "apply-release"
	StepAwaitReadiness    = "await-readiness"
)

// Result is the outcome of one install run: the terminal state, the
// per-step outcome vector (exactly the steps that were attempted, so a
// retry knows what is already idempotently in place), and an optional
// readiness warning.
type Result struct {
	State       State
	Steps       []pipeline.Result
	AbortReason string

	// Warning carries the readiness-timeout detail when the stack
	// deployed but did not become healthy within the budget. The run
	// still counts as Done.
	Warning string
}

// Orchestrator executes the ordered install sequence against the three
// external systems. It performs no automatic retries: every step is an
// idempotent create-or-update, so re-invocation is the retry mechanism.
type Orchestrator struct {
	cfg          config.DeploymentConfig
	controlPlane kube.ControlPlane
	releases     release.Manager
	store        secrets.Store
}

// New wires an orchestrator. The store may be nil when the configuration
// carries a literal credential.
func New(cfg config.DeploymentConfig, controlPlane kube.ControlPlane, releases release.Manager, store secrets.Store) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		controlPlane: controlPlane,
		releases:     releases,
		store:        store,
	}
}

// WorkloadSelector is the label selector the readiness wait and the
// status reporter use to find the release's workloads.
func WorkloadSelector(releaseName string) string {
	return "app.kubernetes.io/instance=" + releaseName
}

// Install runs the state machine Init → NamespaceEnsured →
// SecretMaterialized → ReleaseApplied → ReadinessAwaited → Done.
//
// The credential is resolved first; a broker failure aborts before any
// cluster mutation. A fatal step failure aborts with the completed-step
// vector; the namespace/secret steps are left in place for reuse on
// retry. A readiness timeout is reported as a warning, never a failure.
func (o *Orchestrator) Install(ctx context.Context) (*Result, error) {
	handle, err := secrets.ResolveSecret(ctx, o.cfg, o.store)
	if err != nil {
		return &Result{
			State:       StateAborted,
			AbortReason: fmt.Sprintf("credential resolution failed: %v", err),
		}, err
	}

	steps := redactSteps(o.installSteps(handle), handle.Value)
	results := pipeline.RunAbortOnFailure(ctx, steps)

	res := &Result{Steps: results}
	if ctx.Err() != nil {
		res.State = StateAborted
		res.AbortReason = "interrupted by operator"
		return res, ctx.Err()
	}
	res.State = terminalState(results)
	if res.State == StateAborted {
		last := results[len(results)-1]
		res.AbortReason = fmt.Sprintf("step %q failed: %v", last.Name, last.Err)
		return res, last.Err
	}

	for _, r := range results {
		if r.Name == StepAwaitReadiness && r.Status == pipeline.StatusWarning {
			res.Warning = fmt.Sprintf("deployed but not yet healthy: %v", r.Err)
			logging.Warn("Orchestrator", "%s", res.Warning)
		}
	}
	return res, nil
}

func (o *Orchestrator) installSteps(handle secrets.SecretHandle) []pipeline.Step {
	namespace := o.cfg.Namespace
	secretName := release.SecretObjectName(o.cfg.ReleaseName)
	secretData := map[string][]byte{release.SecretKey: []byte(handle.Value)}
	selector := WorkloadSelector(o.cfg.ReleaseName)

	return []pipeline.Step{
		{
			Name:  StepEnsureNamespace,
			Fatal: true,
			Satisfied: func(ctx context.Context) (bool, error) {
				return o.controlPlane.NamespaceExists(ctx, namespace)
			},
			Apply: func(ctx context.Context) error {
				return o.controlPlane.EnsureNamespace(ctx, namespace)
			},
		},
		{
			Name:  StepMaterializeSecret,
			Fatal: true,
			Satisfied: func(ctx context.Context) (bool, error) {
				return o.controlPlane.SecretMatches(ctx, namespace, secretName, secretData)
			},
			Apply: func(ctx context.Context) error {
				return o.controlPlane.UpsertSecret(ctx, namespace, secretName, secretData)
			},
		},
		{
			// Install-or-upgrade is a single atomic unit from our side;
			// the release manager owns sub-resource idempotency, so there
			// is no precondition short-circuit here.
			Name:  StepApplyRelease,
			Fatal: true,
			Apply: func(ctx context.Context) error {
				return o.releases.InstallOrUpgrade(ctx, release.Spec{
					Name:      o.cfg.ReleaseName,
					Namespace: namespace,
					Chart:     o.cfg.Chart,
					Version:   o.cfg.Version,
					Values:    release.BuildValues(o.cfg),
				})
			},
		},
		{
			Name:  StepAwaitReadiness,
			Fatal: true,
			Apply: func(ctx context.Context) error { return nil },
			Wait: func(ctx context.Context) error {
				return o.controlPlane.WaitForWorkloadsReady(ctx, namespace, selector, o.cfg.ReadinessTimeout)
			},
			// Only the timeout is "deployed but not yet healthy"; any
			// other readiness error is a real control-plane failure.
			WaitWarns: func(err error) bool {
				return errors.Is(err, kube.ErrReadinessTimeout)
			},
		},
	}
}

// redactedError masks the credential in an error's message while keeping
// the original error chain intact for errors.Is/As.
type redactedError struct {
	err error
	msg string
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

// redactSteps wraps every step callback so the credential value can never
// reach log output or the operator-facing report through echoed CLI
// stderr or API error bodies.
func redactSteps(steps []pipeline.Step, secret string) []pipeline.Step {
	if secret == "" {
		return steps
	}
	for i := range steps {
		steps[i] = redactStep(steps[i], secret)
	}
	return steps
}

func redactStep(step pipeline.Step, secret string) pipeline.Step {
	wrap := func(err error) error {
		if err == nil {
			return nil
		}
		msg := logging.Redact(err.Error(), secret)
		if msg == err.Error() {
			return err
		}
		return &redactedError{err: err, msg: msg}
	}

	if satisfied := step.Satisfied; satisfied != nil {
		step.Satisfied = func(ctx context.Context) (bool, error) {
			ok, err := satisfied(ctx)
			return ok, wrap(err)
		}
	}
	if apply := step.Apply; apply != nil {
		step.Apply = func(ctx context.Context) error {
			return wrap(apply(ctx))
		}
	}
	if wait := step.Wait; wait != nil {
		step.Wait = func(ctx context.Context) error {
			return wrap(wait(ctx))
		}
	}
	return step
}

// terminalState maps the attempted-step vector onto the state machine.
func terminalState(results []pipeline.Result) State {
	if pipeline.Failed(results) {
		return StateAborted
	}
	state := StateInit
	for _, r := range results {
		switch r.Name {
		case StepEnsureNamespace:
			state = StateNamespaceEnsured
		case StepMaterializeSecret:
			state = StateSecretMaterialized
		case StepApplyRelease:
			state = StateReleaseApplied
		case StepAwaitReadiness:
			state = StateReadinessAwaited
		}
	}
	if state == StateReadinessAwaited {
		return StateDone
	}
	return state
}

// CompletedSteps lists the names of steps that reached Skipped, Applied or
// Warning, for the partial-progress report on abort.
func CompletedSteps(results []pipeline.Result) []string {
	var names []string
	for _, r := range results {
		if r.Status == pipeline.StatusSkipped || r.Status == pipeline.StatusApplied || r.Status == pipeline.StatusWarning {
			names = append(names, r.Name)
		}
	}
	return names
}

// IsBrokerError reports whether the install failure came from credential
// resolution rather than a cluster or release operation.
func IsBrokerError(err error) bool {
	var berr *secrets.BrokerError
	return errors.As(err, &berr)
}
