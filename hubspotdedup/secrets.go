package hubspotdedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretName is the name under which the access token is stored, both as an
// environment variable and as a key inside a JSON secret.
const SecretName = "DedupSecret"

// AccessTokenEnvVars are checked in order when no token is given explicitly.
var AccessTokenEnvVars = []string{"HUBSPOT_ACCESS_TOKEN", SecretName}

// ErrNoAccessToken is returned when no access token source yields a value.
var ErrNoAccessToken = errors.New("no HubSpot access token configured")

// SecretsClient defines the interface for AWS Secrets Manager operations.
type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// TokenResolver finds the HubSpot access token from, in order: an explicit
// value, the environment, and an AWS Secrets Manager secret.
type TokenResolver struct {
	Token    string
	SecretID string
	Getenv   func(string) string
	Secrets  SecretsClient
}

// Resolve returns the first non-empty access token.
func (tr TokenResolver) Resolve(ctx context.Context) (string, error) {
	if t := strings.TrimSpace(tr.Token); t != "" {
		return t, nil
	}

	if tr.Getenv != nil {
		for _, name := range AccessTokenEnvVars {
			if t := strings.TrimSpace(tr.Getenv(name)); t != "" {
				return t, nil
			}
		}
	}

	if tr.SecretID == "" {
		return "", ErrNoAccessToken
	}
	if tr.Secrets == nil {
		return "", fmt.Errorf("secret %s requested but no secrets client configured", tr.SecretID)
	}

	out, err := tr.Secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(tr.SecretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve secret %s: %w", tr.SecretID, err)
	}

	t := tokenFromSecret(aws.ToString(out.SecretString))
	if t == "" {
		return "", fmt.Errorf("secret %s: %w", tr.SecretID, ErrNoAccessToken)
	}
	return t, nil
}

// tokenFromSecret accepts either a plain token or a JSON object holding the
// token under SecretName or "accessToken".
func tokenFromSecret(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return s
	}

	var kv map[string]string
	if err := json.Unmarshal([]byte(s), &kv); err != nil {
		return ""
	}
	for _, key := range []string{SecretName, "accessToken"} {
		if t := strings.TrimSpace(kv[key]); t != "" {
			return t
		}
	}
	return ""
}
