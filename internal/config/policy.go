package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"feedmail/internal/domain/entity"
	"feedmail/internal/infra/feed"
	"feedmail/internal/infra/httpclient"
	"feedmail/internal/resilience/retry"
	"feedmail/internal/usecase/dispatch"
	pkgconfig "feedmail/pkg/config"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunables that rarely change between deployments.
type Policy struct {
	MaxArticles   int           `yaml:"max_articles"`
	FailThreshold int           `yaml:"fail_threshold"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`

	ResourceFetch retry.Config `yaml:"resource_fetch"`
	TextFetch     retry.Config `yaml:"text_fetch"`
	FeedParse     retry.Config `yaml:"feed_parse"`
	MailSend      retry.Config `yaml:"mail_send"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxArticles:   feed.DefaultMaxCount,
		FailThreshold: dispatch.DefaultFailThreshold,
		HTTPTimeout:   httpclient.DefaultTimeout,
		ResourceFetch: retry.ResourceFetchConfig(),
		TextFetch:     retry.TextFetchConfig(),
		FeedParse:     retry.FeedParseConfig(),
		MailSend:      retry.MailSendConfig(),
	}
}

// LoadPolicy reads a YAML policy file over DefaultPolicy. Keys absent from the
// file keep their defaults and ${VAR} references are expanded from the
// environment. An empty path returns the defaults.
//
// Example file:
//
//	max_articles: 10
//	fail_threshold: 5
//	http_timeout: 15s
//	mail_send:
//	  attempts: 5
//	  delay: 10s
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, &entity.ValidationError{Field: EnvPolicyFile, Message: err.Error()}
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, &entity.ValidationError{Field: EnvPolicyFile, Message: fmt.Sprintf("parse %s: %v", path, err)}
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate checks every field of the policy.
func (p Policy) Validate() error {
	var errs []error
	if p.MaxArticles < 1 {
		errs = append(errs, &entity.ValidationError{Field: "max_articles", Message: "must be at least 1"})
	}
	if p.FailThreshold < 1 {
		errs = append(errs, &entity.ValidationError{Field: "fail_threshold", Message: "must be at least 1"})
	}
	if err := pkgconfig.ValidateDurationRange(p.HTTPTimeout, time.Second, 5*time.Minute); err != nil {
		errs = append(errs, &entity.ValidationError{Field: "http_timeout", Message: err.Error()})
	}
	for name, rc := range map[string]retry.Config{
		"resource_fetch": p.ResourceFetch,
		"text_fetch":     p.TextFetch,
		"feed_parse":     p.FeedParse,
		"mail_send":      p.MailSend,
	} {
		if err := rc.Validate(); err != nil {
			errs = append(errs, &entity.ValidationError{Field: name, Message: err.Error()})
		}
	}
	return errors.Join(errs...)
}
