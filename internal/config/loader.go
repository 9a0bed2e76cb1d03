package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd
var osLookupEnv = os.LookupEnv

const (
	userConfigDir    = ".config/stackctl"
	projectConfigDir = ".stackctl"
	configFileName   = "config.yaml"

	// EnvPrefix is the prefix shared by all environment overrides.
	EnvPrefix = "STACKCTL_"
)

// Load builds the DeploymentConfig by layering compiled-in defaults, the
// user config file, the project (or explicitly given) config file, and
// environment overrides, in that order (later sources win). It does not
// validate; call Validate on the result before handing it to the
// orchestrator.
func Load(explicitPath string) (DeploymentConfig, error) {
	cfg := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional; warn and continue.
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userCfg, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return DeploymentConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			cfg = mergeConfigs(cfg, userCfg)
		}
	}

	if explicitPath != "" {
		explicitCfg, err := loadConfigFromFile(explicitPath)
		if err != nil {
			return DeploymentConfig{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
		cfg = mergeConfigs(cfg, explicitCfg)
	} else {
		projectConfigPath, err := getProjectConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
		} else {
			if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
				projectCfg, err := loadConfigFromFile(projectConfigPath)
				if err != nil {
					return DeploymentConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
				}
				cfg = mergeConfigs(cfg, projectCfg)
			}
		}
	}

	cfg, err = applyEnvOverrides(cfg)
	if err != nil {
		return DeploymentConfig{}, err
	}

	return cfg, nil
}

var getUserConfigPath = func() (string, error) {
	dir, err := GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a DeploymentConfig overlay from a YAML file.
func loadConfigFromFile(filePath string) (DeploymentConfig, error) {
	var cfg DeploymentConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return DeploymentConfig{}, err
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return DeploymentConfig{}, err
	}
	return cfg, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Only fields
// explicitly set in the overlay replace base values.
func mergeConfigs(base, overlay DeploymentConfig) DeploymentConfig {
	merged := base

	if overlay.ClusterName != "" {
		merged.ClusterName = overlay.ClusterName
	}
	if overlay.Region != "" {
		merged.Region = overlay.Region
	}
	if overlay.Namespace != "" {
		merged.Namespace = overlay.Namespace
	}
	if overlay.ReleaseName != "" {
		merged.ReleaseName = overlay.ReleaseName
	}
	if overlay.Chart != "" {
		merged.Chart = overlay.Chart
	}
	if overlay.Version != "" {
		merged.Version = overlay.Version
	}
	if overlay.KubeContext != "" {
		merged.KubeContext = overlay.KubeContext
	}
	if overlay.Database.Host != "" {
		merged.Database.Host = overlay.Database.Host
	}
	if overlay.Database.Port != 0 {
		merged.Database.Port = overlay.Database.Port
	}
	if overlay.Database.Name != "" {
		merged.Database.Name = overlay.Database.Name
	}
	if overlay.Database.Username != "" {
		merged.Database.Username = overlay.Database.Username
	}
	if overlay.Database.SecretName != "" {
		merged.Database.SecretName = overlay.Database.SecretName
	}
	if overlay.Database.SecretValue != "" {
		merged.Database.SecretValue = overlay.Database.SecretValue
	}
	if overlay.MetadataBucket != "" {
		merged.MetadataBucket = overlay.MetadataBucket
	}
	if overlay.UserDataBucket != "" {
		merged.UserDataBucket = overlay.UserDataBucket
	}
	if overlay.IAMRoleARN != "" {
		merged.IAMRoleARN = overlay.IAMRoleARN
	}
	if overlay.Resources.Requests.CPU != "" {
		merged.Resources.Requests.CPU = overlay.Resources.Requests.CPU
	}
	if overlay.Resources.Requests.Memory != "" {
		merged.Resources.Requests.Memory = overlay.Resources.Requests.Memory
	}
	if overlay.Resources.Limits.CPU != "" {
		merged.Resources.Limits.CPU = overlay.Resources.Limits.CPU
	}
	if overlay.Resources.Limits.Memory != "" {
		merged.Resources.Limits.Memory = overlay.Resources.Limits.Memory
	}
	if overlay.ReadinessTimeout != 0 {
		merged.ReadinessTimeout = overlay.ReadinessTimeout
	}

	return merged
}

// applyEnvOverrides layers STACKCTL_* environment variables over cfg.
// Environment is the last source, so it wins over every file.
func applyEnvOverrides(cfg DeploymentConfig) (DeploymentConfig, error) {
	setString := func(key string, dst *string) {
		if v, ok := osLookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	setString("CLUSTER_NAME", &cfg.ClusterName)
	setString("REGION", &cfg.Region)
	setString("NAMESPACE", &cfg.Namespace)
	setString("RELEASE_NAME", &cfg.ReleaseName)
	setString("CHART", &cfg.Chart)
	setString("VERSION", &cfg.Version)
	setString("KUBE_CONTEXT", &cfg.KubeContext)
	setString("DB_HOST", &cfg.Database.Host)
	setString("DB_NAME", &cfg.Database.Name)
	setString("DB_USERNAME", &cfg.Database.Username)
	setString("DB_SECRET_NAME", &cfg.Database.SecretName)
	setString("DB_SECRET_VALUE", &cfg.Database.SecretValue)
	setString("METADATA_BUCKET", &cfg.MetadataBucket)
	setString("USERDATA_BUCKET", &cfg.UserDataBucket)
	setString("IAM_ROLE_ARN", &cfg.IAMRoleARN)

	if v, ok := osLookupEnv(EnvPrefix + "DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return DeploymentConfig{}, fmt.Errorf("invalid %sDB_PORT %q: %w", EnvPrefix, v, err)
		}
		cfg.Database.Port = port
	}
	if v, ok := osLookupEnv(EnvPrefix + "READINESS_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return DeploymentConfig{}, fmt.Errorf("invalid %sREADINESS_TIMEOUT %q: %w", EnvPrefix, v, err)
		}
		cfg.ReadinessTimeout = d
	}

	return cfg, nil
}

// GetUserConfigDir returns the user configuration directory path.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
