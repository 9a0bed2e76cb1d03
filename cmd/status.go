package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"stackctl/internal/config"
	"stackctl/internal/kube"
	"stackctl/internal/status"
)

func newStatusCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the health of the installed stack",
		Long: `Reads the target namespace and reports workload readiness, service
endpoints, ingress hosts and the most recent cluster events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "yaml" {
				return fmt.Errorf("unsupported output format %q (want text or yaml)", output)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateTeardown(cfg); err != nil {
				return err
			}

			controlPlane, err := kube.NewClientForContext(cfg.KubeContext)
			if err != nil {
				return fmt.Errorf("failed to connect to the cluster: %w", err)
			}

			snap, err := status.NewReporter(controlPlane.Clientset()).Snapshot(cmd.Context(), cfg.Namespace)
			if err != nil {
				return err
			}

			if output == "yaml" {
				rendered, err := yaml.Marshal(snap)
				if err != nil {
					return fmt.Errorf("failed to render status: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), string(rendered))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), status.Render(snap))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")

	return cmd
}
