package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/teilomillet/promptstorm/utils"
)

// GeminiProvider uses the Gemini API through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	logger utils.Logger
}

func NewGeminiProvider(apiKey string, cfg ProviderConfig) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiProvider{client: client, logger: utils.NewNopLogger()}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) SetLogger(logger utils.Logger) { p.logger = utils.OrNop(logger) }

func (p *GeminiProvider) Complete(ctx context.Context, req *Request) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if system := req.SystemPrompt(); system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if v, ok := extraFloat(req.Extra, "top_p"); ok {
		genCfg.TopP = genai.Ptr(float32(v))
	}
	if v, ok := extraStrings(req.Extra, "stop"); ok {
		genCfg.StopSequences = v
	}

	var contents []*genai.Content
	for _, m := range req.Conversation() {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, genCfg)
	if err != nil {
		if strings.Contains(err.Error(), "429") {
			return "", fmt.Errorf("gemini: resource exhausted: %w", err)
		}
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := resp.Text()
	p.logger.Debug("Completion received", "provider", "gemini", "length", len(text))
	return text, nil
}
