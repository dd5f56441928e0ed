package services

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUnlockExpression       = "true"
	DefaultConfigureReviewersPath = "/settings/payroll/reviewers"
)

// Policy holds the pipeline settings that are configuration rather than code.
type Policy struct {
	Version                   int    `yaml:"version"`
	EnforceSequentialApproval bool   `yaml:"enforce_sequential_approval"`
	UnlockExpression          string `yaml:"unlock_expression"`
	ConfigureReviewersPath    string `yaml:"configure_reviewers_path"`
}

func DefaultPolicy() Policy {
	return Policy{
		Version:                1,
		UnlockExpression:       DefaultUnlockExpression,
		ConfigureReviewersPath: DefaultConfigureReviewersPath,
	}
}

func ParsePolicyYAML(b []byte) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Policy{}, err
	}
	if p.Version != 1 {
		return Policy{}, errors.New("pipeline policy: unsupported version")
	}
	p.UnlockExpression = strings.TrimSpace(p.UnlockExpression)
	if p.UnlockExpression == "" {
		p.UnlockExpression = DefaultUnlockExpression
	}
	p.ConfigureReviewersPath = strings.TrimSpace(p.ConfigureReviewersPath)
	if p.ConfigureReviewersPath == "" {
		p.ConfigureReviewersPath = DefaultConfigureReviewersPath
	}
	return p, nil
}

// LoadPolicy reads the policy file at path. An empty path yields the defaults.
func LoadPolicy(path string) (Policy, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPolicy(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	return ParsePolicyYAML(b)
}
