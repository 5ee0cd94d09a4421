// Package providers implements the completion backends promptstorm can talk
// to. Every backend reduces a role-tagged message list plus generation
// parameters to a single text completion.
package providers

import (
	"context"
	"strings"
)

// Provider is a completion backend.
type Provider interface {
	// Name returns the registry name of the provider.
	Name() string

	// Complete sends req and returns the generated text.
	Complete(ctx context.Context, req *Request) (string, error)
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the provider-agnostic completion request.
type Request struct {
	Model       string         `json:"model"`
	Messages    []Message      `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// SystemPrompt joins the content of all system messages.
func (r *Request) SystemPrompt() string {
	var parts []string
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Conversation returns the non-system messages in order.
func (r *Request) Conversation() []Message {
	out := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

// ProviderConfig holds the static description of a provider.
type ProviderConfig struct {
	// Name is the provider identifier
	Name string

	// Endpoint is the API base URL; empty means the SDK default
	Endpoint string

	// RequiresAPIKey is false for local servers such as ollama
	RequiresAPIKey bool
}

// ProviderConstructor builds a provider from an API key and a config whose
// Endpoint may have been overridden by the user.
type ProviderConstructor func(apiKey string, cfg ProviderConfig) (Provider, error)

func extraFloat(extra map[string]any, key string) (float64, bool) {
	switch v := extra[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func extraInt(extra map[string]any, key string) (int, bool) {
	switch v := extra[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func extraStrings(extra map[string]any, key string) ([]string, bool) {
	switch v := extra[key].(type) {
	case []string:
		return v, true
	case string:
		return []string{v}, true
	default:
		return nil, false
	}
}
