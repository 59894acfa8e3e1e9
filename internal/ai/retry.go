package ai

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy configures Retrying. MaxRetries <= 0 disables retries.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retrying repeats transient failures of the wrapped generator. It is an
// outer policy; the evaluation pipeline itself never retries.
type Retrying struct {
	next   Generator
	policy RetryPolicy
	logger *zap.Logger
}

// WithRetry wraps next with policy. When retries are disabled next is returned as is.
func WithRetry(next Generator, policy RetryPolicy, logger *zap.Logger) Generator {
	if policy.MaxRetries <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{next: next, policy: policy, logger: logger}
}

func (r *Retrying) Provider() string { return r.next.Provider() }

func (r *Retrying) Generate(ctx context.Context, prompt string, params GenerationParameters) (string, error) {
	var (
		output  string
		attempt int
	)

	op := func() error {
		attempt++
		text, err := r.next.Generate(ctx, prompt, params)
		if err == nil {
			output = text
			return nil
		}
		if !Transient(err) {
			return backoff.Permanent(err)
		}
		r.logger.Warn("transient generation failure",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", r.policy.MaxRetries),
			zap.Error(err),
		)
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(r.backOff(), uint64(r.policy.MaxRetries)), ctx)); err != nil {
		return "", err
	}

	return output, nil
}

func (r *Retrying) backOff() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		expo.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		expo.MaxInterval = r.policy.MaxInterval
	}
	expo.Reset()
	return expo
}
