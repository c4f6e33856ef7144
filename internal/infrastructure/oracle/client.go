// Package oracle implements the oracle client: a retry and timeout policy
// around a single-call provider, plus the shared response format.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
)

// Outcome labels recorded in metrics.
const (
	outcomeOK          = "ok"
	outcomeUnavailable = "unavailable"
	outcomeMalformed   = "malformed"
	outcomeError       = "error"
)

// Client implements ports.Oracle on top of a provider.
//
// Each attempt runs under its own timeout. Transient and malformed failures
// are retried with exponential backoff until the attempt budget is spent,
// after which the result is tagged instead of returned as an error.
type Client struct {
	provider       ports.Provider
	timeout        time.Duration
	maxAttempts    int
	initialBackoff time.Duration
	metrics        ports.SyncMetrics
	logger         *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every FetchFinding call.
func WithMetrics(m ports.SyncMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient wraps provider with the retry policy from cfg. Zero values fall
// back to a 30s timeout, 3 attempts and a 500ms initial backoff.
func NewClient(provider ports.Provider, cfg config.OracleConfig, opts ...Option) *Client {
	c := &Client{
		provider:       provider,
		timeout:        cfg.Timeout,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		logger:         zap.NewNop(),
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = defaultInitialBackoff
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchFinding asks the provider about one entity.
//
// Oracle failures are reported in the result as OracleErrUnavailable or
// OracleErrMalformed. An error is returned only for permanent provider
// errors and for cancellation of ctx.
func (c *Client) FetchFinding(ctx context.Context, req entities.VerificationRequest) (entities.OracleResult, error) {
	start := time.Now()
	attempts := 0
	var (
		finding entities.OracleFinding
		lastErr error
	)

	op := func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		f, err := c.provider.Call(callCtx, req)
		if err == nil {
			finding = f
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		lastErr = err
		if KindOf(err) == KindPermanent {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Debug("oracle attempt failed",
			zap.String("provider", c.provider.Name()),
			zap.String("entity", req.EntityType+"/"+req.EntityID),
			zap.Int("attempt", attempts),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}

	err := backoff.RetryNotify(op, c.policy(ctx), notify)
	switch {
	case err == nil:
		c.observe(outcomeOK, attempts, start)
		return entities.FindingResult(finding, attempts), nil

	case ctx.Err() != nil:
		return entities.OracleResult{}, ctx.Err()

	case lastErr != nil && KindOf(lastErr) == KindPermanent:
		c.observe(outcomeError, attempts, start)
		return entities.OracleResult{}, fmt.Errorf("calling oracle %s: %w", c.provider.Name(), lastErr)

	case lastErr != nil && KindOf(lastErr) == KindMalformed:
		c.observe(outcomeMalformed, attempts, start)
		return entities.FailedResult(entities.OracleErrMalformed,
			fmt.Errorf("%w after %d attempts: %w", entities.ErrMalformedOracleResponse, attempts, lastErr), attempts), nil

	default:
		if lastErr == nil {
			lastErr = err
		}
		c.observe(outcomeUnavailable, attempts, start)
		return entities.FailedResult(entities.OracleErrUnavailable,
			fmt.Errorf("%w after %d attempts: %w", entities.ErrOracleUnavailable, attempts, lastErr), attempts), nil
	}
}

// policy builds a fresh backoff for one FetchFinding call.
func (c *Client) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)
}

func (c *Client) observe(outcome string, attempts int, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveOracleCall(c.provider.Name(), outcome, attempts, time.Since(start))
}
