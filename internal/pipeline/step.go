package pipeline

import (
	"context"

	"stackctl/pkg/logging"
)

// Status is the tagged outcome of one step.
type Status string

const (
	// StatusSkipped: the precondition was already satisfied, nothing done.
	StatusSkipped Status = "Skipped"
	// StatusApplied: the step ran its action to completion.
	StatusApplied Status = "Applied"
	// StatusFailed: the step's action or precondition check failed.
	StatusFailed Status = "Failed"
	// StatusWarning: the step applied but its wait did not conclude in
	// time; the run is degraded, not failed.
	StatusWarning Status = "Warning"
)

// Step is a named unit of work: an optional precondition check (is this
// already satisfied?), an apply action, and an optional wait. Fatal marks
// steps whose failure halts the abort-on-failure traversal.
type Step struct {
	Name string

	// Confirm gates destructive steps behind an operator decision. It is
	// consulted only after Satisfied has reported there is work to do; a
	// nil Confirm means the step needs no approval, a false return skips
	// the step and records the decline.
	Confirm func() bool

	// Satisfied reports whether the step's target state is already in
	// place. A nil Satisfied means the step always applies.
	Satisfied func(ctx context.Context) (bool, error)

	// Apply performs the step's action.
	Apply func(ctx context.Context) error

	// Wait optionally blocks until the applied state settles.
	Wait func(ctx context.Context) error

	// WaitWarns classifies a Wait error as a degradation (StatusWarning)
	// rather than a failure. A nil WaitWarns treats every Wait error as
	// a warning.
	WaitWarns func(err error) bool

	// Detail annotates a successful apply in the result (e.g. "deletion
	// initiated" for an asynchronous operation).
	Detail string

	Fatal bool
}

// Result records the outcome of one step.
type Result struct {
	Name   string
	Status Status
	Err    error
	Detail string
}

// runOne executes a single step and produces its result. The precondition
// check runs before the confirmation gate so the operator is never
// prompted about a resource that is already in its target state.
func runOne(ctx context.Context, step Step) Result {
	subsystem := "Pipeline"

	if step.Satisfied != nil {
		ok, err := step.Satisfied(ctx)
		if err != nil {
			return Result{Name: step.Name, Status: StatusFailed, Err: err}
		}
		if ok {
			logging.Debug(subsystem, "Step %q already satisfied, skipping", step.Name)
			return Result{Name: step.Name, Status: StatusSkipped}
		}
	}

	if step.Confirm != nil && !step.Confirm() {
		logging.Info(subsystem, "Step %q declined by operator, skipping", step.Name)
		return Result{Name: step.Name, Status: StatusSkipped, Detail: "declined by operator"}
	}

	if err := step.Apply(ctx); err != nil {
		return Result{Name: step.Name, Status: StatusFailed, Err: err}
	}
	logging.Info(subsystem, "Step %q applied", step.Name)

	if step.Wait != nil {
		if err := step.Wait(ctx); err != nil {
			if step.WaitWarns == nil || step.WaitWarns(err) {
				return Result{Name: step.Name, Status: StatusWarning, Err: err}
			}
			return Result{Name: step.Name, Status: StatusFailed, Err: err}
		}
	}
	return Result{Name: step.Name, Status: StatusApplied, Detail: step.Detail}
}

// RunAbortOnFailure is the install-path traversal: steps run in order and
// a Failed result on a fatal step halts the remainder. The returned slice
// holds exactly the steps that were attempted, so a caller can report
// which idempotent steps are already in place for a retry.
func RunAbortOnFailure(ctx context.Context, steps []Step) []Result {
	var results []Result
	for _, step := range steps {
		res := runOne(ctx, step)
		results = append(results, res)
		if res.Status == StatusFailed && step.Fatal {
			logging.Error("Pipeline", res.Err, "Fatal failure in step %q, halting sequence", step.Name)
			break
		}
	}
	return results
}

// RunCollectAll is the teardown-path traversal: failures are independent
// and additive. Every step is attempted regardless of earlier failures,
// and the full outcome vector is returned.
func RunCollectAll(ctx context.Context, steps []Step) []Result {
	results := make([]Result, 0, len(steps))
	for _, step := range steps {
		res := runOne(ctx, step)
		if res.Status == StatusFailed {
			logging.Error("Pipeline", res.Err, "Step %q failed, continuing with remaining steps", step.Name)
		}
		results = append(results, res)
	}
	return results
}

// Failed reports whether any result in the sequence is a failure.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFailed {
			return true
		}
	}
	return false
}
