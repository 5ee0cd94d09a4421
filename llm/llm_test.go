package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/providers"
	"github.com/teilomillet/promptstorm/utils"
)

func testRequest() *providers.Request {
	return &providers.Request{
		Model:       "test-model",
		Messages:    []providers.Message{{Role: providers.RoleUser, Content: "hello"}},
		Temperature: 0.5,
		MaxTokens:   100,
	}
}

func TestClientComplete(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetMockResponse("hi there")

	client := NewClient(mp, nil)
	out, err := client.Complete(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
	assert.Equal(t, 1, mp.CallCount())
}

func TestClientRetriesTransportErrors(t *testing.T) {
	mp := providers.NewMockProvider()
	calls := 0
	mp.SetHandler(func(*providers.Request) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "recovered", nil
	})

	logger := (&utils.MockLogger{}).AllowAll()
	client := NewClient(mp, logger, WithRetries(2, time.Millisecond))
	out, err := client.Complete(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 3, mp.CallCount())
	assert.Equal(t, 2, logger.WarnCallCount)
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetMockError(errors.New("connection refused"))

	client := NewClient(mp, nil, WithRetries(1, time.Millisecond))
	_, err := client.Complete(context.Background(), testRequest())

	require.Error(t, err)
	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeTransport, llmErr.Type)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 2, mp.CallCount())
}

func TestClientDoesNotRetryRateLimit(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetMockError(errors.New("Rate limit exceeded"))

	client := NewClient(mp, nil, WithRetries(3, time.Millisecond))
	_, err := client.Complete(context.Background(), testRequest())

	require.Error(t, err)
	assert.True(t, IsRateLimit(err))
	assert.Equal(t, 1, mp.CallCount())
}

func TestClientEmptyCompletion(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetMockResponse("   \n")

	client := NewClient(mp, nil, WithRetries(2, time.Millisecond))
	_, err := client.Complete(context.Background(), testRequest())

	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeResponse, llmErr.Type)
	assert.Equal(t, 1, mp.CallCount())
}

func TestClientRejectsInvalidRequests(t *testing.T) {
	client := NewClient(providers.NewMockProvider(), nil)

	tests := []struct {
		name   string
		mutate func(*providers.Request)
	}{
		{"no model", func(r *providers.Request) { r.Model = "" }},
		{"no messages", func(r *providers.Request) { r.Messages = nil }},
		{"zero max tokens", func(r *providers.Request) { r.MaxTokens = 0 }},
		{"negative temperature", func(r *providers.Request) { r.Temperature = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(req)
			_, err := client.Complete(context.Background(), req)

			var llmErr *LLMError
			require.ErrorAs(t, err, &llmErr)
			assert.Equal(t, ErrorTypeInvalidInput, llmErr.Type)
		})
	}
}

func TestClientCancelledContext(t *testing.T) {
	mp := providers.NewMockProvider()
	client := NewClient(mp, nil, WithRetries(2, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Complete(ctx, testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mp.CallCount())
}

func TestClientTimeout(t *testing.T) {
	mp := providers.NewMockProvider()
	mp.SetHandler(func(*providers.Request) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "late", nil
	})

	client := NewClient(mp, nil, WithTimeout(time.Second))
	out, err := client.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "late", out)
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Provider = "mock"
	cfg.RequestsPerMinute = 600
	cfg.EstimateTokens = true

	client, err := NewClientFromConfig(cfg, nil, providers.NewProviderRegistry())
	require.NoError(t, err)
	assert.Equal(t, "mock", client.Provider.Name())
	assert.Equal(t, cfg.MaxRetries, client.MaxRetries)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.tokens)

	out, err := client.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "This is a mock response", out)
}

func TestNewClientFromConfigUnknownProvider(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Provider = "nope"

	_, err := NewClientFromConfig(cfg, nil, providers.NewProviderRegistry())
	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeProvider, llmErr.Type)
}

func TestTokenCounter(t *testing.T) {
	tc := NewTokenCounter()
	assert.Greater(t, tc.Count("the quick brown fox"), 0)
	assert.Equal(t, 0, tc.Count(""))

	msgs := []providers.Message{{Role: providers.RoleUser, Content: ""}, {Role: providers.RoleUser, Content: ""}}
	assert.Equal(t, 2*tokensPerMessage, tc.CountMessages(msgs))
}
