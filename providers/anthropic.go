package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/teilomillet/promptstorm/utils"
)

// AnthropicProvider uses the Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	logger utils.Logger
}

func NewAnthropicProvider(apiKey string, cfg ProviderConfig) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: missing API key")
	}
	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey, opts...),
		logger: utils.NewNopLogger(),
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) SetLogger(logger utils.Logger) { p.logger = utils.OrNop(logger) }

func (p *AnthropicProvider) Complete(ctx context.Context, req *Request) (string, error) {
	temperature := float32(req.Temperature)
	msgReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		System:      req.SystemPrompt(),
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	}
	for _, m := range req.Conversation() {
		if m.Role == RoleAssistant {
			msgReq.Messages = append(msgReq.Messages, anthropic.NewAssistantTextMessage(m.Content))
			continue
		}
		msgReq.Messages = append(msgReq.Messages, anthropic.NewUserTextMessage(m.Content))
	}
	if v, ok := extraFloat(req.Extra, "top_p"); ok {
		topP := float32(v)
		msgReq.TopP = &topP
	}
	if v, ok := extraStrings(req.Extra, "stop"); ok {
		msgReq.StopSequences = v
	}

	resp, err := p.client.CreateMessages(ctx, msgReq)
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) && apiErr.IsRateLimitErr() {
			return "", fmt.Errorf("anthropic: rate limit: %w", err)
		}
		return "", fmt.Errorf("anthropic: %w", err)
	}
	p.logger.Debug("Completion received", "provider", "anthropic",
		"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)
	return resp.GetFirstContentText(), nil
}
