package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/finreach/trial-balance-api/pkg/config"
)

// ErrSecretUnavailable is returned when no signing secret can be resolved.
// Callers must treat it as fatal: the service cannot serve authenticated
// endpoints without a secret.
var ErrSecretUnavailable = errors.New("signing secret unavailable")

// secretFetcher abstracts the Secrets Manager call for tests.
type secretFetcher interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver resolves the JWT signing secret once and memoizes it process-wide.
// Concurrent first calls are safe: exactly one resolution runs, the rest wait
// and observe the cached value.
type Resolver struct {
	cfg     config.SecretsConfig
	fetcher secretFetcher

	once   sync.Once
	secret string
	err    error
}

// NewResolver builds a resolver from configuration.
func NewResolver(cfg config.SecretsConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// NewResolverWithFetcher injects a custom fetcher; used in tests.
func NewResolverWithFetcher(cfg config.SecretsConfig, fetcher secretFetcher) *Resolver {
	return &Resolver{cfg: cfg, fetcher: fetcher}
}

// SigningSecret returns the memoized signing secret, resolving it on first
// call. Resolution order: AWS Secrets Manager when a secret ID is configured,
// otherwise the JWT_SECRET environment value.
func (r *Resolver) SigningSecret(ctx context.Context) (string, error) {
	r.once.Do(func() {
		r.secret, r.err = r.resolve(ctx)
	})
	return r.secret, r.err
}

func (r *Resolver) resolve(ctx context.Context) (string, error) {
	if r.cfg.SecretID != "" {
		secret, err := r.fetchManaged(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSecretUnavailable, err)
		}
		return secret, nil
	}

	if r.cfg.EnvSecret == "" {
		return "", fmt.Errorf("%w: JWT_SECRET is empty and no secret ID configured", ErrSecretUnavailable)
	}
	return r.cfg.EnvSecret, nil
}

func (r *Resolver) fetchManaged(ctx context.Context) (string, error) {
	fetcher := r.fetcher
	if fetcher == nil {
		awsCfg, err := loadAWSConfig(ctx, r.cfg.AWSRegion)
		if err != nil {
			return "", fmt.Errorf("load aws config: %w", err)
		}
		fetcher = secretsmanager.NewFromConfig(awsCfg)
	}

	out, err := fetcher.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(r.cfg.SecretID),
	})
	if err != nil {
		return "", fmt.Errorf("fetch secret %s: %w", r.cfg.SecretID, err)
	}

	var payload string
	switch {
	case out.SecretString != nil:
		payload = *out.SecretString
	case len(out.SecretBinary) > 0:
		payload = string(out.SecretBinary)
	default:
		return "", fmt.Errorf("secret %s has no payload", r.cfg.SecretID)
	}

	// Managed secrets may be stored either as a bare string or as a JSON
	// object with a jwt_secret key.
	var kv map[string]string
	if err := json.Unmarshal([]byte(payload), &kv); err == nil {
		if v, ok := kv["jwt_secret"]; ok && v != "" {
			return v, nil
		}
		return "", fmt.Errorf("secret %s missing jwt_secret key", r.cfg.SecretID)
	}
	return payload, nil
}

func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	if region != "" {
		return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	}
	return awsconfig.LoadDefaultConfig(ctx)
}
