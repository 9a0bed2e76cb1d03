package secrets

import (
	"context"

	"stackctl/internal/config"
	"stackctl/pkg/logging"
)

// ProvenanceLiteral marks a handle whose value came from configuration.
const ProvenanceLiteral = "literal"

// ResolveSecret produces the deployment credential for one run.
//
// A literal value in the config wins and causes no external call.
// Otherwise exactly one store read is issued for the configured name.
// The resolved value is returned in-memory only; this function never
// writes it anywhere.
func ResolveSecret(ctx context.Context, cfg config.DeploymentConfig, store Store) (SecretHandle, error) {
	if cfg.Database.SecretValue != "" {
		logging.Debug("CredentialBroker", "Using literal credential from configuration")
		return SecretHandle{Value: cfg.Database.SecretValue, Provenance: ProvenanceLiteral}, nil
	}

	name := cfg.Database.SecretName
	logging.Info("CredentialBroker", "Resolving credential from secret store entry %q", name)
	value, err := store.Get(ctx, name)
	if err != nil {
		return SecretHandle{}, err
	}
	if value == "" {
		return SecretHandle{}, &BrokerError{Kind: KindNotFound, Name: name}
	}
	return SecretHandle{Value: value, Provenance: "store:" + name}, nil
}
