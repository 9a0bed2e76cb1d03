package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stackctl/internal/color"
	"stackctl/internal/config"
	"stackctl/internal/kube"
	"stackctl/internal/release"
	"stackctl/internal/secrets"
	"stackctl/internal/teardown"
)

func newTeardownCmd() *cobra.Command {
	var opts teardown.Options

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove the stack and every resource the install created",
		Long: `Uninstalls the release, deletes the namespace, removes the secret
store entry, empties and deletes the storage buckets, and deletes the IAM
role. Each destructive step asks for confirmation before it runs.

Failures are independent: a step that breaks is recorded and the remaining
steps are still attempted, so one stuck resource never blocks the rest of
the cleanup. The secret value itself is never read on this path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateTeardown(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			controlPlane, err := kube.NewClientForContext(cfg.KubeContext)
			if err != nil {
				return fmt.Errorf("failed to connect to the cluster: %w", err)
			}

			cleaner := teardown.NewAWSCleaner(cfg.Region)
			confirm := teardown.NewTerminalConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())

			coordinator := teardown.New(&cfg, controlPlane,
				release.NewHelmManager(cfg.KubeContext),
				secrets.NewAWSStore(cfg.Region),
				cleaner, cleaner, confirm, opts)

			fmt.Fprintf(cmd.OutOrStdout(), "Tearing down release %q in namespace %q on cluster %q (context %q)\n",
				cfg.ReleaseName, cfg.Namespace, cfg.ClusterName, effectiveKubeContext(cfg))

			report := coordinator.Run(ctx)
			printStepResults(cmd.OutOrStdout(), report.Steps)

			if report.Failed() {
				fmt.Fprintln(cmd.OutOrStdout(), color.ErrorStyle.Render("Teardown finished with failures; re-run to retry the failed steps."))
				return fmt.Errorf("teardown finished with failures")
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.SuccessStyle.Render("Teardown complete."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "skip every confirmation prompt")
	cmd.Flags().BoolVar(&opts.YesSecretDelete, "yes-secret-delete", false, "pre-approve the irreversible secret store deletion")

	return cmd
}
