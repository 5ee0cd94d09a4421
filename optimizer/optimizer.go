// Package optimizer improves free-text prompts and converts them into
// validated YAML documents with a single automated repair attempt.
package optimizer

import (
	"context"
	"fmt"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/document"
	"github.com/teilomillet/promptstorm/llm"
	"github.com/teilomillet/promptstorm/utils"
)

// Optimizer rewrites prompts with one gateway round trip.
type Optimizer struct {
	client llm.Completer
	cfg    config.OptimizationConfig
	logger utils.Logger
}

// NewOptimizer validates cfg and returns an Optimizer that sends its
// requests through client.
func NewOptimizer(client llm.Completer, cfg config.OptimizationConfig, logger utils.Logger) (*Optimizer, error) {
	if client == nil {
		return nil, fmt.Errorf("optimizer: nil completer")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{client: client, cfg: cfg, logger: utils.OrNop(logger)}, nil
}

// Config returns the optimizer's configuration.
func (o *Optimizer) Config() config.OptimizationConfig {
	return o.cfg
}

// Optimize returns an improved version of prompt.
func (o *Optimizer) Optimize(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	req := newRequest(o.cfg, opts, userMessage(renderOptimization(o.cfg.Template, prompt)))

	o.logger.Debug("Optimizing prompt", "model", req.Model, "prompt_length", len(prompt))
	raw, err := o.client.Complete(ctx, req)
	if err != nil {
		o.logger.Error("Prompt optimization failed", "error", err)
		return "", classifyError("optimization", err)
	}

	optimized := document.Normalize(raw)
	if optimized == "" {
		return "", &Error{Type: ErrorTypeCompletionFailed, Message: "model returned an empty prompt"}
	}
	return optimized, nil
}
