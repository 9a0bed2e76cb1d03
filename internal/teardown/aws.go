package teardown

import (
	"bytes"
	"context"
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

// ObjectStore empties and deletes storage buckets.
type ObjectStore interface {
	EmptyBucket(ctx context.Context, bucket string) error
	DeleteBucket(ctx context.Context, bucket string) error
}

// RoleManager deletes IAM roles.
type RoleManager interface {
	DeleteRole(ctx context.Context, roleARN string) error
}

// AWSCleaner implements ObjectStore and RoleManager through the `aws`
// CLI, mirroring the exec pattern of the secret store.
type AWSCleaner struct {
	region string
}

// NewAWSCleaner returns a cleaner scoped to the given region.
func NewAWSCleaner(region string) *AWSCleaner {
	return &AWSCleaner{region: region}
}

func (c *AWSCleaner) EmptyBucket(ctx context.Context, bucket string) error {
	_, stderr, err := runAWSCommand(ctx,
		"s3", "rm", "s3://"+bucket, "--recursive", "--region", c.region)
	if err != nil {
		return fmt.Errorf("failed to empty bucket %q: %w. Stderr: %s", bucket, err, strings.TrimSpace(stderr))
	}
	logging.Info("ObjectStore", "Emptied bucket %q", bucket)
	return nil
}

func (c *AWSCleaner) DeleteBucket(ctx context.Context, bucket string) error {
	_, stderr, err := runAWSCommand(ctx,
		"s3", "rb", "s3://"+bucket, "--region", c.region)
	if err != nil {
		return fmt.Errorf("failed to delete bucket %q: %w. Stderr: %s", bucket, err, strings.TrimSpace(stderr))
	}
	logging.Info("ObjectStore", "Deleted bucket %q", bucket)
	return nil
}

// DeleteRole removes the role named by the ARN. A role with attached
// dependents makes the CLI fail; the coordinator records that failure and
// moves on.
func (c *AWSCleaner) DeleteRole(ctx context.Context, roleARN string) error {
	roleName := roleNameFromARN(roleARN)
	_, stderr, err := runAWSCommand(ctx,
		"iam", "delete-role", "--role-name", roleName, "--region", c.region)
	if err != nil {
		return fmt.Errorf("failed to delete role %q: %w. Stderr: %s", roleName, err, strings.TrimSpace(stderr))
	}
	logging.Info("RoleManager", "Deleted role %q", roleName)
	return nil
}

// roleNameFromARN extracts the role name from an ARN like
// arn:aws:iam::123456789012:role/path/name. A bare name passes through.
func roleNameFromARN(arn string) string {
	if idx := strings.LastIndex(arn, "/"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}
