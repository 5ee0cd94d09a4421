package optimizer

import (
	"maps"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/providers"
)

// CallOption overrides configuration for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	model       string
	temperature *float64
	maxTokens   int
	extra       map[string]any
}

func WithModel(model string) CallOption {
	return func(o *callOptions) {
		o.model = model
	}
}

func WithTemperature(temperature float64) CallOption {
	return func(o *callOptions) {
		o.temperature = &temperature
	}
}

func WithMaxTokens(maxTokens int) CallOption {
	return func(o *callOptions) {
		o.maxTokens = maxTokens
	}
}

// WithExtra passes a provider-specific parameter such as top_p or seed
// through to the gateway.
func WithExtra(key string, value any) CallOption {
	return func(o *callOptions) {
		if o.extra == nil {
			o.extra = make(map[string]any)
		}
		o.extra[key] = value
	}
}

func collectOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// newRequest merges the call overrides over cfg.
func newRequest(cfg config.OptimizationConfig, opts []CallOption, messages ...providers.Message) *providers.Request {
	o := collectOptions(opts)
	req := &providers.Request{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	if o.model != "" {
		req.Model = o.model
	}
	if o.temperature != nil {
		req.Temperature = *o.temperature
	}
	if o.maxTokens > 0 {
		req.MaxTokens = o.maxTokens
	}
	if len(o.extra) > 0 {
		req.Extra = maps.Clone(o.extra)
	}
	return req
}

func systemMessage(content string) providers.Message {
	return providers.Message{Role: providers.RoleSystem, Content: content}
}

func userMessage(content string) providers.Message {
	return providers.Message{Role: providers.RoleUser, Content: content}
}
