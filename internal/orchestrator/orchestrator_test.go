package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"stackctl/internal/config"
	"stackctl/internal/pipeline"
	"stackctl/internal/secrets"
	"stackctl/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.DeploymentConfig {
	cfg := config.GetDefaultConfig()
	cfg.ClusterName = "prod-eks"
	cfg.Region = "eu-central-1"
	cfg.Chart = "flyteorg/flyte-core"
	cfg.Version = "v1.10.6"
	cfg.Database.Host = "db.internal"
	cfg.Database.Name = "flyteadmin"
	cfg.Database.Username = "flyteadmin"
	cfg.Database.SecretValue = "pw123"
	cfg.MetadataBucket = "prod-flyte-metadata"
	cfg.UserDataBucket = "prod-flyte-userdata"
	cfg.ReadinessTimeout = time.Second
	return cfg
}

func statuses(results []pipeline.Result) []pipeline.Status {
	out := make([]pipeline.Status, 0, len(results))
	for _, r := range results {
		out = append(out, r.Status)
	}
	return out
}

func TestInstall_FreshClusterAppliesEveryStep(t *testing.T) {
	cp := newFakeControlPlane()
	rm := newFakeReleaseManager()
	o := New(testConfig(), cp, rm, nil)

	res, err := o.Install(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t,
		[]pipeline.Status{pipeline.StatusApplied, pipeline.StatusApplied, pipeline.StatusApplied, pipeline.StatusApplied},
		statuses(res.Steps))
	assert.Empty(t, res.Warning)
	assert.True(t, cp.namespaces["flyte"])
	assert.Contains(t, cp.secrets, "flyte/flyte-db-pass")
}

func TestInstall_SecondRunConverges(t *testing.T) {
	cp := newFakeControlPlane()
	rm := newFakeReleaseManager()
	cfg := testConfig()

	res, err := New(cfg, cp, rm, nil).Install(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateDone, res.State)

	res, err = New(cfg, cp, rm, nil).Install(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	// Namespace and secret are precondition-checked: no duplicate side
	// effects. The release call may no-op upgrade; readiness recomputed.
	assert.Equal(t,
		[]pipeline.Status{pipeline.StatusSkipped, pipeline.StatusSkipped, pipeline.StatusApplied, pipeline.StatusApplied},
		statuses(res.Steps))

	ensures := 0
	for _, c := range cp.calls {
		if c == "EnsureNamespace" {
			ensures++
		}
	}
	assert.Equal(t, 1, ensures, "namespace must be created exactly once across both runs")
}

func TestInstall_BrokerNotFoundHaltsBeforeAnyMutation(t *testing.T) {
	cp := newFakeControlPlane()
	rm := newFakeReleaseManager()
	cfg := testConfig()
	cfg.Database.SecretValue = ""
	cfg.Database.SecretName = "flyte/db-pass"
	store := &fakeSecretStore{getErr: &secrets.BrokerError{Kind: secrets.KindNotFound, Name: "flyte/db-pass"}}

	res, err := New(cfg, cp, rm, store).Install(context.Background())
	require.Error(t, err)
	assert.True(t, IsBrokerError(err))

	assert.Equal(t, StateAborted, res.State)
	assert.Empty(t, res.Steps)
	assert.Empty(t, cp.calls, "no cluster mutation after a failed credential lookup")
	assert.Empty(t, rm.calls, "release manager must never be called without a resolved secret")
}

func TestInstall_NamespaceFailureAborts(t *testing.T) {
	cp := newFakeControlPlane()
	cp.failures["EnsureNamespace"] = fmt.Errorf("forbidden")
	rm := newFakeReleaseManager()

	res, err := New(testConfig(), cp, rm, nil).Install(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateAborted, res.State)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, pipeline.StatusFailed, res.Steps[0].Status)
	assert.Contains(t, res.AbortReason, StepEnsureNamespace)
	assert.Empty(t, rm.calls)
}

func TestInstall_ReleaseFailureLeavesEarlierStepsInPlace(t *testing.T) {
	cp := newFakeControlPlane()
	rm := newFakeReleaseManager()
	rm.failures["InstallOrUpgrade"] = fmt.Errorf("chart not found")

	res, err := New(testConfig(), cp, rm, nil).Install(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateAborted, res.State)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, pipeline.StatusFailed, res.Steps[2].Status)

	// No rollback: namespace and secret stay for the retry.
	assert.True(t, cp.namespaces["flyte"])
	assert.Contains(t, cp.secrets, "flyte/flyte-db-pass")
	assert.Equal(t, []string{StepEnsureNamespace, StepMaterializeSecret}, CompletedSteps(res.Steps))
}

func TestInstall_ReadinessTimeoutIsWarningNotAbort(t *testing.T) {
	cp := newFakeControlPlane()
	cp.notReady = true
	rm := newFakeReleaseManager()

	res, err := New(testConfig(), cp, rm, nil).Install(context.Background())
	require.NoError(t, err, "a readiness timeout must not fail the run")

	assert.Equal(t, StateDone, res.State)
	assert.NotEmpty(t, res.Warning)
	require.Len(t, res.Steps, 4)
	assert.Equal(t, pipeline.StatusWarning, res.Steps[3].Status)
}

func TestInstall_ReadinessErrorOtherThanTimeoutAborts(t *testing.T) {
	cp := newFakeControlPlane()
	cp.failures["WaitForWorkloadsReady"] = fmt.Errorf("deployments.apps is forbidden")
	rm := newFakeReleaseManager()

	res, err := New(testConfig(), cp, rm, nil).Install(context.Background())
	require.Error(t, err, "a control-plane error during readiness is not a timeout")

	assert.Equal(t, StateAborted, res.State)
	require.Len(t, res.Steps, 4)
	assert.Equal(t, pipeline.StatusFailed, res.Steps[3].Status)
	assert.Contains(t, res.AbortReason, "forbidden")
}

func TestInstall_CredentialNeverReachesLogsOrReport(t *testing.T) {
	var logs bytes.Buffer
	logging.Init(logging.LevelDebug, &logs)
	t.Cleanup(func() { logging.Init(logging.LevelInfo, os.Stderr) })

	cp := newFakeControlPlane()
	rm := newFakeReleaseManager()
	// Simulate the release CLI echoing the rendered document on failure.
	rm.failures["InstallOrUpgrade"] = fmt.Errorf("helm stderr: invalid values: password=pw123")

	res, err := New(testConfig(), cp, rm, nil).Install(context.Background())
	require.Error(t, err)

	assert.NotContains(t, err.Error(), "pw123")
	assert.Contains(t, err.Error(), "********")
	assert.NotContains(t, res.AbortReason, "pw123")
	for _, step := range res.Steps {
		if step.Err != nil {
			assert.NotContains(t, step.Err.Error(), "pw123")
		}
	}
	assert.NotContains(t, logs.String(), "pw123", "the credential must never appear in log output")
}

func TestInstall_ExactlyOneStoreLookup(t *testing.T) {
	cp := newFakeControlPlane()
	rm := newFakeReleaseManager()
	cfg := testConfig()
	cfg.Database.SecretValue = ""
	cfg.Database.SecretName = "flyte/db-pass"
	store := &fakeSecretStore{value: "pw123"}

	_, err := New(cfg, cp, rm, store).Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)
}

func TestWorkloadSelector(t *testing.T) {
	assert.Equal(t, "app.kubernetes.io/instance=flyte", WorkloadSelector("flyte"))
}

func TestTerminalStateProgression(t *testing.T) {
	results := []pipeline.Result{
		{Name: StepEnsureNamespace, Status: pipeline.StatusApplied},
	}
	assert.Equal(t, StateNamespaceEnsured, terminalState(results))

	results = append(results, pipeline.Result{Name: StepMaterializeSecret, Status: pipeline.StatusSkipped})
	assert.Equal(t, StateSecretMaterialized, terminalState(results))

	results = append(results, pipeline.Result{Name: StepApplyRelease, Status: pipeline.StatusApplied})
	assert.Equal(t, StateReleaseApplied, terminalState(results))

	results = append(results, pipeline.Result{Name: StepAwaitReadiness, Status: pipeline.StatusApplied})
	assert.Equal(t, StateDone, terminalState(results))
}
