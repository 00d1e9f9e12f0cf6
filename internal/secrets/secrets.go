// Package secrets retrieves the catalog connection string. Production
// reads it from AWS Secrets Manager; a literal value from configuration
// short-circuits the lookup for local runs.
package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// Source resolves a named secret to its string value.
type Source interface {
	Get(ctx context.Context, name string) (string, error)
}

// smAPI is the subset of the Secrets Manager client used.
type smAPI interface {
	GetSecretValueWithContext(ctx aws.Context, in *secretsmanager.GetSecretValueInput, opts ...request.Option) (*secretsmanager.GetSecretValueOutput, error)
}

// Manager is the Secrets Manager-backed Source.
type Manager struct {
	client smAPI
}

// NewManager builds a Manager from an AWS session.
func NewManager(sess *session.Session) *Manager {
	return &Manager{client: secretsmanager.New(sess)}
}

// Get fetches the secret, preferring the string form and falling back to
// the binary form decoded as UTF-8.
func (m *Manager) Get(ctx context.Context, name string) (string, error) {
	out, err := m.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	return string(out.SecretBinary), nil
}

// Static returns name's mapped value from a fixed map; test helper and
// local-run Source.
type Static map[string]string

func (s Static) Get(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", fmt.Errorf("unknown secret %s", name)
	}
	return v, nil
}
