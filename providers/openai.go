package providers

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teilomillet/promptstorm/utils"
)

// OpenAIProvider talks to OpenAI and to every server exposing the OpenAI
// chat completions API (groq, deepseek, mistral, openrouter, ollama).
type OpenAIProvider struct {
	name   string
	client *openai.Client
	logger utils.Logger
}

// NewOpenAIProvider creates a provider for the given config. An empty
// Endpoint uses the official API.
func NewOpenAIProvider(apiKey string, cfg ProviderConfig) (Provider, error) {
	if cfg.RequiresAPIKey && apiKey == "" {
		return nil, fmt.Errorf("%s: missing API key", cfg.Name)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	return &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(clientCfg),
		logger: utils.NewNopLogger(),
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) SetLogger(logger utils.Logger) { p.logger = utils.OrNop(logger) }

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	for _, m := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}
	p.applyExtra(&chatReq, req.Extra)

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", fmt.Errorf("%s: rate limit: %w", p.name, err)
		}
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", p.name)
	}
	p.logger.Debug("Completion received", "provider", p.name, "model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) applyExtra(chatReq *openai.ChatCompletionRequest, extra map[string]any) {
	for key := range extra {
		switch key {
		case "top_p":
			if v, ok := extraFloat(extra, key); ok {
				chatReq.TopP = float32(v)
			}
		case "presence_penalty":
			if v, ok := extraFloat(extra, key); ok {
				chatReq.PresencePenalty = float32(v)
			}
		case "frequency_penalty":
			if v, ok := extraFloat(extra, key); ok {
				chatReq.FrequencyPenalty = float32(v)
			}
		case "seed":
			if v, ok := extraInt(extra, key); ok {
				chatReq.Seed = &v
			}
		case "stop":
			if v, ok := extraStrings(extra, key); ok {
				chatReq.Stop = v
			}
		default:
			p.logger.Debug("Ignoring unsupported option", "provider", p.name, "key", key)
		}
	}
}

func openAIRole(role string) string {
	switch role {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
