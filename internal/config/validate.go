package config

import (
	"fmt"
	"strings"
)

// ValidationError reports every violation found in one pass. The caller
// never sees a single-field error while other fields are also missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Missing, "; "))
}

// Validate checks every field the install sequence requires and collects
// all violations into a single ValidationError. It is side-effect free.
func Validate(cfg DeploymentConfig) error {
	var missing []string

	requireString := func(field, value string) {
		if value == "" {
			missing = append(missing, fmt.Sprintf("%s is required", field))
		}
	}

	requireString("clusterName", cfg.ClusterName)
	requireString("region", cfg.Region)
	requireString("namespace", cfg.Namespace)
	requireString("releaseName", cfg.ReleaseName)
	requireString("chart", cfg.Chart)
	requireString("version", cfg.Version)
	requireString("database.host", cfg.Database.Host)
	requireString("database.name", cfg.Database.Name)
	requireString("database.username", cfg.Database.Username)
	if cfg.Database.Port <= 0 {
		missing = append(missing, "database.port must be a positive integer")
	}

	switch {
	case cfg.Database.SecretName == "" && cfg.Database.SecretValue == "":
		missing = append(missing, "one of database.secretName or database.secretValue is required")
	case cfg.Database.SecretName != "" && cfg.Database.SecretValue != "":
		missing = append(missing, "database.secretName and database.secretValue are mutually exclusive")
	}

	requireString("metadataBucket", cfg.MetadataBucket)
	requireString("userDataBucket", cfg.UserDataBucket)
	requireString("resources.requests.cpu", cfg.Resources.Requests.CPU)
	requireString("resources.requests.memory", cfg.Resources.Requests.Memory)
	requireString("resources.limits.cpu", cfg.Resources.Limits.CPU)
	requireString("resources.limits.memory", cfg.Resources.Limits.Memory)
	if cfg.ReadinessTimeout <= 0 {
		missing = append(missing, "readinessTimeout must be a positive duration")
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ValidateTeardown checks only the fields the teardown path needs.
// Teardown must be able to run without a resolvable secret or bucket
// identifiers; optional cleanup steps skip themselves when their inputs
// are absent.
func ValidateTeardown(cfg DeploymentConfig) error {
	var missing []string

	requireString := func(field, value string) {
		if value == "" {
			missing = append(missing, fmt.Sprintf("%s is required", field))
		}
	}

	requireString("clusterName", cfg.ClusterName)
	requireString("region", cfg.Region)
	requireString("namespace", cfg.Namespace)
	requireString("releaseName", cfg.ReleaseName)

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
