package release

import (
	"stackctl/internal/config"
)

// SecretKey is the field name inside the control-plane secret object that
// the chart's configuration contract expects the database password under.
const SecretKey = "db_password"

// SecretObjectName returns the name of the control-plane secret object
// the release mounts its credential from.
func SecretObjectName(releaseName string) string {
	return releaseName + "-db-pass"
}

// BuildValues renders the resolved configuration into the chart's expected
// values schema. The credential is referenced by secret object name and
// key, never embedded as plaintext.
func BuildValues(cfg config.DeploymentConfig) map[string]interface{} {
	values := map[string]interface{}{
		"cluster": map[string]interface{}{
			"name":   cfg.ClusterName,
			"region": cfg.Region,
		},
		"database": map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"dbname":   cfg.Database.Name,
			"username": cfg.Database.Username,
			"passwordSecretRef": map[string]interface{}{
				"name": SecretObjectName(cfg.ReleaseName),
				"key":  SecretKey,
			},
		},
		"storage": map[string]interface{}{
			"metadataBucket": cfg.MetadataBucket,
			"userDataBucket": cfg.UserDataBucket,
		},
		"resources": map[string]interface{}{
			"requests": map[string]interface{}{
				"cpu":    cfg.Resources.Requests.CPU,
				"memory": cfg.Resources.Requests.Memory,
			},
			"limits": map[string]interface{}{
				"cpu":    cfg.Resources.Limits.CPU,
				"memory": cfg.Resources.Limits.Memory,
			},
		},
	}

	if cfg.IAMRoleARN != "" {
		values["serviceAccount"] = map[string]interface{}{
			"annotations": map[string]interface{}{
				"eks.amazonaws.com/role-arn": cfg.IAMRoleARN,
			},
		}
	}

	return values
}
