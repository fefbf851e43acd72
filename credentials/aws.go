package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// AWS error codes handled explicitly.
const (
	ResourceNotFoundException = "ResourceNotFoundException"
	AccessDeniedException     = "AccessDeniedException"
)

// GetSecretValueAPI is the slice of the Secrets Manager client AWSSecret uses.
type GetSecretValueAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecret reads the token from AWS Secrets Manager. When Key is set the
// secret is a JSON object and the token is the string under Key.
type AWSSecret struct {
	api      GetSecretValueAPI
	secretID string
	key      string
	logger   *zap.Logger
}

// NewAWSSecret creates a resolver on an existing client.
func NewAWSSecret(api GetSecretValueAPI, secretID, key string, logger *zap.Logger) *AWSSecret {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AWSSecret{api: api, secretID: secretID, key: key, logger: logger}
}

// NewAWSSecretFromEnv loads AWS configuration from the default credential chain.
func NewAWSSecretFromEnv(ctx context.Context, region, secretID, key string, logger *zap.Logger) (*AWSSecret, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewAWSSecret(secretsmanager.NewFromConfig(cfg), secretID, key, logger), nil
}

// Resolve implements Resolver. The secret value is never logged.
func (s *AWSSecret) Resolve(ctx context.Context) (string, error) {
	if s.secretID == "" {
		return "", ErrNoToken
	}

	s.logger.Debug("fetching token secret", zap.String("secret_id", s.secretID))
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return "", s.handleError(err)
	}

	value := strings.TrimSpace(aws.ToString(out.SecretString))
	if value == "" {
		return "", fmt.Errorf("secret %s has no string value", s.secretID)
	}

	if s.key == "" {
		return value, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object", s.secretID)
	}
	token, ok := fields[s.key].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("secret %s has no string field %q", s.secretID, s.key)
	}
	return token, nil
}

func (s *AWSSecret) handleError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case ResourceNotFoundException:
			return fmt.Errorf("secret %s not found", s.secretID)
		case AccessDeniedException:
			return fmt.Errorf("access denied to secret %s", s.secretID)
		}
		return fmt.Errorf("get secret %s: %s: %s", s.secretID, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("get secret %s: %w", s.secretID, err)
}
