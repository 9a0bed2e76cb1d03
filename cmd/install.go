package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"stackctl/internal/color"
	"stackctl/internal/config"
	"stackctl/internal/kube"
	"stackctl/internal/orchestrator"
	"stackctl/internal/release"
	"stackctl/internal/secrets"
	"stackctl/internal/status"
)

func newInstallCmd() *cobra.Command {
	var (
		dryRun           bool
		readinessTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or upgrade the application stack",
		Long: `Installs the configured stack release into the target namespace, or
upgrades it in place when it is already installed.

The sequence is: resolve the database credential (from the configured
literal or the external secret store), ensure the namespace, materialize
the credential as a cluster secret, apply the release, then wait for the
workloads to become healthy. Every step checks its precondition first, so
re-running after a failure resumes where the previous run stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if readinessTimeout > 0 {
				cfg.ReadinessTimeout = readinessTimeout
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			if dryRun {
				return printInstallPlan(cmd, cfg)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			controlPlane, err := kube.NewClientForContext(cfg.KubeContext)
			if err != nil {
				return fmt.Errorf("failed to connect to the cluster: %w", err)
			}

			var store secrets.Store
			if cfg.Database.SecretName != "" {
				store = secrets.NewAWSStore(cfg.Region)
			}

			orch := orchestrator.New(cfg, controlPlane, release.NewHelmManager(cfg.KubeContext), store)

			fmt.Fprintf(cmd.OutOrStdout(), "Installing release %q into namespace %q on cluster %q (context %q)\n",
				cfg.ReleaseName, cfg.Namespace, cfg.ClusterName, effectiveKubeContext(cfg))

			result, installErr := orch.Install(ctx)
			printStepResults(cmd.OutOrStdout(), result.Steps)

			if result.State == orchestrator.StateAborted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
					color.ErrorStyle.Render("Aborted:"), result.AbortReason)
				if completed := orchestrator.CompletedSteps(result.Steps); len(completed) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Completed steps are left in place; re-run install to resume: %v\n", completed)
				}
				return installErr
			}

			if result.Warning != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
					color.WarningStyle.Render("Warning:"), result.Warning)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), color.SuccessStyle.Render("Stack is installed and healthy."))
			}

			snap, err := status.NewReporter(controlPlane.Clientset()).Snapshot(ctx, cfg.Namespace)
			if err != nil {
				// The install itself succeeded; a status read failure only
				// costs us the summary.
				fmt.Fprintf(cmd.OutOrStdout(), "Could not read stack status: %v\n", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), status.Render(snap))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the install plan and rendered values without touching the cluster")
	cmd.Flags().DurationVar(&readinessTimeout, "readiness-timeout", 0, "override the post-install readiness wait (e.g. 15m)")

	return cmd
}

// printInstallPlan renders the step sequence and the values document. The
// values reference the cluster secret by name, so the document is safe to
// print as-is.
func printInstallPlan(cmd *cobra.Command, cfg config.DeploymentConfig) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Plan for release %q in namespace %q (no changes will be made):\n", cfg.ReleaseName, cfg.Namespace)
	for _, name := range []string{
		orchestrator.StepEnsureNamespace,
		orchestrator.StepMaterializeSecret,
		orchestrator.StepApplyRelease,
		orchestrator.StepAwaitReadiness,
	} {
		fmt.Fprintf(out, "  - %s\n", name)
	}

	rendered, err := yaml.Marshal(release.BuildValues(cfg))
	if err != nil {
		return fmt.Errorf("failed to render values: %w", err)
	}
	fmt.Fprintf(out, "\nValues:\n%s", rendered)
	return nil
}
