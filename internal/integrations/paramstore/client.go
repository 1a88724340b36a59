// Package paramstore resolves secrets by name, from AWS SSM Parameter Store in
// deployed environments and from a static map for local runs.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Getter returns the raw value stored under name.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ssmAPI is the subset of *ssm.Client used here.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSM reads SecureString parameters with decryption.
type SSM struct {
	api ssmAPI
}

func NewSSM(api ssmAPI) (*SSM, error) {
	if api == nil {
		return nil, errors.New("paramstore: ssm api must not be nil")
	}
	return &SSM{api: api}, nil
}

func (s *SSM) GetParameter(ctx context.Context, name string) (string, error) {
	if s == nil || s.api == nil {
		return "", errors.New("paramstore: ssm getter not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q has no value", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// Join builds "<prefix>/<leaf>" with exactly one separating slash.
func Join(prefix, leaf string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	leaf = strings.TrimLeft(strings.TrimSpace(leaf), "/")
	return prefix + "/" + leaf
}
