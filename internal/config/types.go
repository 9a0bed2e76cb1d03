package config

import (
	"time"
)

// DeploymentConfig is the single immutable configuration record for one
// stackctl run. It is built once by Load, validated, and passed by value
// to every component; nothing mutates it afterwards and nothing persists
// it across runs.
type DeploymentConfig struct {
	ClusterName string `yaml:"clusterName"`
	Region      string `yaml:"region"`
	Namespace   string `yaml:"namespace"`
	ReleaseName string `yaml:"releaseName"`
	Chart       string `yaml:"chart"`
	Version     string `yaml:"version"`

	// KubeContext selects the kubeconfig context to operate against.
	// Empty means the current context.
	KubeContext string `yaml:"kubeContext,omitempty"`

	Database DatabaseConfig `yaml:"database"`

	// Object storage bucket identifiers, opaque to the orchestrator.
	MetadataBucket string `yaml:"metadataBucket"`
	UserDataBucket string `yaml:"userDataBucket"`

	// IAMRoleARN is opaque to the orchestrator; teardown deletes the role
	// only when it is set.
	IAMRoleARN string `yaml:"iamRoleARN,omitempty"`

	Resources ResourceConfig `yaml:"resources"`

	// ReadinessTimeout bounds the post-install readiness wait.
	ReadinessTimeout time.Duration `yaml:"readinessTimeout,omitempty"`
}

// DatabaseConfig describes the relational database the release connects to.
// Exactly one of SecretName and SecretValue must be set: SecretName names
// an entry in the external secret store, SecretValue carries the literal
// credential (no external lookup).
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	Username    string `yaml:"username"`
	SecretName  string `yaml:"secretName,omitempty"`
	SecretValue string `yaml:"secretValue,omitempty"`
}

// ResourceConfig carries the request/limit pairs substituted into the
// release's values document.
type ResourceConfig struct {
	Requests ResourcePair `yaml:"requests"`
	Limits   ResourcePair `yaml:"limits"`
}

// ResourcePair is a cpu/memory quantity pair in Kubernetes quantity
// notation (e.g. "500m", "1Gi").
type ResourcePair struct {
	CPU    string `yaml:"cpu"`
	Memory string `yaml:"memory"`
}
