package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"stackctl/pkg/logging"
)

// For mocking in tests
var runAWSCommand = func(ctx context.Context, args ...string) (stdout string, stderr string, err error) {
	cmd := exec.CommandContext(ctx, "aws", args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), runErr
}

// AWSStore implements Store against AWS Secrets Manager through the `aws`
// CLI, following the same external-command pattern the rest of the tool
// uses for helm.
type AWSStore struct {
	region string
}

// NewAWSStore returns a store scoped to the given region.
func NewAWSStore(region string) *AWSStore {
	return &AWSStore{region: region}
}

// getSecretValueOutput is the slice of `aws secretsmanager
// get-secret-value` JSON output we care about.
type getSecretValueOutput struct {
	SecretString string `json:"SecretString"`
}

func (s *AWSStore) Get(ctx context.Context, name string) (string, error) {
	stdout, stderr, err := runAWSCommand(ctx,
		"secretsmanager", "get-secret-value",
		"--secret-id", name,
		"--region", s.region,
		"--output", "json",
	)
	if err != nil {
		if isNotFoundStderr(stderr) {
			return "", &BrokerError{Kind: KindNotFound, Name: name, Err: fmt.Errorf("%s", strings.TrimSpace(stderr))}
		}
		return "", &BrokerError{Kind: KindUnavailable, Name: name, Err: fmt.Errorf("aws secretsmanager get-secret-value failed: %w. Stderr: %s", err, strings.TrimSpace(stderr))}
	}

	var out getSecretValueOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		return "", &BrokerError{Kind: KindUnavailable, Name: name, Err: fmt.Errorf("failed to decode secretsmanager output: %w", err)}
	}
	if out.SecretString == "" {
		return "", &BrokerError{Kind: KindNotFound, Name: name}
	}
	return out.SecretString, nil
}

func (s *AWSStore) Delete(ctx context.Context, name string, recoverable bool) error {
	args := []string{
		"secretsmanager", "delete-secret",
		"--secret-id", name,
		"--region", s.region,
	}
	if !recoverable {
		args = append(args, "--force-delete-without-recovery")
	}

	_, stderr, err := runAWSCommand(ctx, args...)
	if err != nil {
		if isNotFoundStderr(stderr) {
			return &BrokerError{Kind: KindNotFound, Name: name, Err: fmt.Errorf("%s", strings.TrimSpace(stderr))}
		}
		return &BrokerError{Kind: KindUnavailable, Name: name, Err: fmt.Errorf("aws secretsmanager delete-secret failed: %w. Stderr: %s", err, strings.TrimSpace(stderr))}
	}
	logging.Info("SecretStore", "Deleted secret store entry %q (recoverable=%t)", name, recoverable)
	return nil
}

func isNotFoundStderr(stderr string) bool {
	return strings.Contains(stderr, "ResourceNotFoundException")
}
