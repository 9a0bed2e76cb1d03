package release

import (
	"stackctl/internal/config"
)

// buildTestConfig returns a fully-populated config shared by the tests in
// this package.
func buildTestConfig() config.DeploymentConfig {
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
	cfg.IAMRoleARN = "arn:aws:iam::123456789012:role/flyte"
	return cfg
}
