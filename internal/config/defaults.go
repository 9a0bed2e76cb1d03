package config

import "time"

// GetDefaultConfig returns the compiled-in defaults. File values and
// environment overrides are layered on top by Load.
func GetDefaultConfig() DeploymentConfig {
	return DeploymentConfig{
		Namespace:   "flyte",
		ReleaseName: "flyte",
		Database: DatabaseConfig{
			Port: 5432,
		},
		Resources: ResourceConfig{
			Requests: ResourcePair{CPU: "500m", Memory: "1Gi"},
			Limits:   ResourcePair{CPU: "1", Memory: "2Gi"},
		},
		ReadinessTimeout: 10 * time.Minute,
	}
}
