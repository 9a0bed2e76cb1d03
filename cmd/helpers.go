package cmd

import (
	"fmt"
	"io"

	"stackctl/internal/color"
	"stackctl/internal/config"
	"stackctl/internal/kube"
	"stackctl/internal/pipeline"
)

// loadConfig builds the effective configuration for this invocation:
// defaults, then the user and project (or --config) files, then
// STACKCTL_* environment overrides.
func loadConfig() (config.DeploymentConfig, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.DeploymentConfig{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// effectiveKubeContext names the kubeconfig context this invocation will
// operate against: the configured one, otherwise the kubeconfig's current
// context.
func effectiveKubeContext(cfg config.DeploymentConfig) string {
	if cfg.KubeContext != "" {
		return cfg.KubeContext
	}
	current, err := kube.GetCurrentKubeContext()
	if err != nil {
		return "current"
	}
	return current
}

// printStepResults renders one line per attempted step.
func printStepResults(out io.Writer, results []pipeline.Result) {
	for _, r := range results {
		line := fmt.Sprintf("  %-24s %s", r.Name, renderStatus(r))
		if r.Detail != "" {
			line += " (" + r.Detail + ")"
		}
		if r.Err != nil {
			line += ": " + r.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
}

func renderStatus(r pipeline.Result) string {
	if !color.Enabled() {
		return string(r.Status)
	}
	switch r.Status {
	case pipeline.StatusApplied:
		return color.SuccessStyle.Render(string(r.Status))
	case pipeline.StatusSkipped:
		return color.MutedStyle.Render(string(r.Status))
	case pipeline.StatusWarning:
		return color.WarningStyle.Render(string(r.Status))
	case pipeline.StatusFailed:
		return color.ErrorStyle.Render(string(r.Status))
	default:
		return string(r.Status)
	}
}
