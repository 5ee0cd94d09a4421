// Package llm is the completion gateway used by the promptstorm core. It
// wraps a provider with timeouts, client-side rate limiting, bounded
// retries for transport failures and typed errors.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/providers"
	"github.com/teilomillet/promptstorm/utils"
)

// Completer is the single operation the core needs from the gateway.
// providers.Provider satisfies it, so tests can pass a provider directly.
type Completer interface {
	Complete(ctx context.Context, req *providers.Request) (string, error)
}

// Client is the production Completer.
type Client struct {
	Provider    providers.Provider
	logger      utils.Logger
	timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	rateLimiter *rate.Limiter
	tokens      *TokenCounter
}

type ClientOption func(*Client)

// WithRateLimit limits outgoing calls to rpm requests per minute.
func WithRateLimit(rpm int) ClientOption {
	return func(c *Client) {
		if rpm <= 0 {
			c.rateLimiter = nil
			return
		}
		c.rateLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// WithTokenEstimation logs an estimated prompt size for every call.
func WithTokenEstimation(tc *TokenCounter) ClientOption {
	return func(c *Client) {
		c.tokens = tc
	}
}

func WithRetries(maxRetries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient wraps provider.
func NewClient(provider providers.Provider, logger utils.Logger, opts ...ClientOption) *Client {
	c := &Client{
		Provider: provider,
		logger:   utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig resolves the configured provider through registry
// and applies the gateway settings of cfg.
func NewClientFromConfig(cfg *config.Config, logger utils.Logger, registry *providers.ProviderRegistry) (*Client, error) {
	provider, err := registry.Get(cfg.Provider, cfg.APIKey(), cfg.Endpoint)
	if err != nil {
		return nil, NewLLMError(ErrorTypeProvider, "failed to create provider", err)
	}
	if l, ok := provider.(interface{ SetLogger(utils.Logger) }); ok {
		l.SetLogger(utils.OrNop(logger))
	}

	opts := []ClientOption{
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.MaxRetries, cfg.RetryDelay),
		WithRateLimit(cfg.RequestsPerMinute),
	}
	if cfg.EstimateTokens {
		opts = append(opts, WithTokenEstimation(NewTokenCounter()))
	}
	return NewClient(provider, logger, opts...), nil
}

// Complete sends req, retrying transport failures up to MaxRetries times.
// Throttling errors and caller cancellation are returned immediately.
func (c *Client) Complete(ctx context.Context, req *providers.Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	if c.tokens != nil {
		c.logger.Debug("Estimated prompt size", "provider", c.Provider.Name(),
			"prompt_tokens", c.tokens.CountMessages(req.Messages), "max_tokens", req.MaxTokens)
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		c.logger.Debug("Requesting completion", "provider", c.Provider.Name(), "model", req.Model, "attempt", attempt+1)

		result, err := c.attempt(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", NewLLMError(ErrorTypeTransport, "request cancelled", ctx.Err())
		}
		if IsRateLimit(err) {
			c.logger.Warn("Completion throttled", "provider", c.Provider.Name(), "error", err)
			return "", NewLLMError(ErrorTypeRateLimit, "rate limit exceeded", err)
		}

		var llmErr *LLMError
		if errors.As(err, &llmErr) && llmErr.Type == ErrorTypeResponse {
			return "", err
		}

		c.logger.Warn("Completion attempt failed", "provider", c.Provider.Name(), "error", err, "attempt", attempt+1)
		if attempt < c.MaxRetries {
			if err := c.wait(ctx); err != nil {
				return "", NewLLMError(ErrorTypeTransport, "request cancelled", err)
			}
		}
	}

	return "", NewLLMError(ErrorTypeTransport,
		fmt.Sprintf("failed to complete after %d attempts", c.MaxRetries+1), lastErr)
}

func (c *Client) attempt(ctx context.Context, req *providers.Request) (string, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.Provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", NewLLMError(ErrorTypeResponse, "empty completion", nil)
	}
	return out, nil
}

func (c *Client) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.RetryDelay):
		return nil
	}
}

func validateRequest(req *providers.Request) error {
	switch {
	case req == nil:
		return NewLLMError(ErrorTypeInvalidInput, "nil request", nil)
	case req.Model == "":
		return NewLLMError(ErrorTypeInvalidInput, "model is required", nil)
	case len(req.Messages) == 0:
		return NewLLMError(ErrorTypeInvalidInput, "at least one message is required", nil)
	case req.MaxTokens < 1:
		return NewLLMError(ErrorTypeInvalidInput, "max_tokens must be positive", nil)
	case req.Temperature < 0 || req.Temperature > 2 || math.IsNaN(req.Temperature):
		return NewLLMError(ErrorTypeInvalidInput, "temperature out of range", nil)
	}
	return nil
}
