package optimizer

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/document"
	"github.com/teilomillet/promptstorm/llm"
	"github.com/teilomillet/promptstorm/utils"
)

// DefaultFormatConcurrency bounds FormatAll when no limit is given.
const DefaultFormatConcurrency = 4

// Formatter converts prompts into validated YAML documents.
type Formatter struct {
	client    llm.Completer
	cfg       config.OptimizationConfig
	validator *document.Validator
	repairer  *Repairer
	logger    utils.Logger

	// example holds the translated example document once known.
	example atomic.Pointer[string]
}

type FormatterOption func(*Formatter)

// WithRequiredFields sets the keys a document must carry.
func WithRequiredFields(fields ...string) FormatterOption {
	return func(f *Formatter) {
		f.validator = document.NewValidator(fields...)
	}
}

// NewFormatter validates cfg and returns a Formatter. The example document
// is translated lazily on first use when cfg.Language is not English.
func NewFormatter(client llm.Completer, cfg config.OptimizationConfig, logger utils.Logger, opts ...FormatterOption) (*Formatter, error) {
	if client == nil {
		return nil, fmt.Errorf("formatter: nil completer")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Formatter{
		client:    client,
		cfg:       cfg,
		validator: document.NewValidator(),
		logger:    utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.repairer = NewRepairer(client, cfg, f.validator, f.logger)
	if cfg.IsDefaultLanguage() {
		example := ExampleDocument
		f.example.Store(&example)
	}
	return f, nil
}

// Validator returns the validator used for generated documents.
func (f *Formatter) Validator() *document.Validator {
	return f.validator
}

// Format converts prompt into a YAML document. An invalid first answer is
// repaired once.
func (f *Formatter) Format(ctx context.Context, prompt string, opts ...CallOption) (string, error) {
	user := render(FormatTemplate,
		config.PromptPlaceholder, prompt,
		LanguagePlaceholder, f.cfg.Language,
		ExamplePlaceholder, f.exampleDocument(ctx),
	)
	req := newRequest(f.cfg, opts, systemMessage(formatSystemPrompt(f.cfg.Language)), userMessage(user))

	f.logger.Debug("Formatting prompt", "model", req.Model, "language", f.cfg.Language)
	raw, err := f.client.Complete(ctx, req)
	if err != nil {
		f.logger.Error("Document generation failed", "error", err)
		return "", classifyError("YAML", err)
	}

	text := document.Normalize(raw)
	errs := f.validator.Validate(text)
	if len(errs) == 0 {
		return text, nil
	}

	f.logger.Warn("Generated document is invalid", "errors", document.FormatErrors(errs))
	return f.repairer.Repair(ctx, text, errs, opts...)
}

// FormatAll formats independent prompts concurrently, at most limit at a
// time, and returns the documents in input order. The first failure
// cancels the remaining calls.
func (f *Formatter) FormatAll(ctx context.Context, prompts []string, limit int, opts ...CallOption) ([]string, error) {
	if limit <= 0 {
		limit = DefaultFormatConcurrency
	}
	// Translate up front so the workers share one example.
	f.exampleDocument(ctx)

	results := make([]string, len(prompts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, prompt := range prompts {
		g.Go(func() error {
			out, err := f.Format(gctx, prompt, opts...)
			if err != nil {
				return fmt.Errorf("prompt %d: %w", i+1, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// exampleDocument returns the example in the configured language. A
// failed translation falls back to the English example without caching it,
// so the next call tries again.
func (f *Formatter) exampleDocument(ctx context.Context) string {
	if cached := f.example.Load(); cached != nil {
		return *cached
	}

	translated, err := f.translateExample(ctx)
	if err != nil {
		f.logger.Warn("Failed to translate example document, using English",
			"language", f.cfg.Language, "error", err)
		return ExampleDocument
	}
	f.example.Store(&translated)
	return translated
}

func (f *Formatter) translateExample(ctx context.Context) (string, error) {
	user := render(translateTemplate,
		LanguagePlaceholder, f.cfg.Language,
		ExamplePlaceholder, ExampleDocument,
	)
	req := newRequest(f.cfg, nil, userMessage(user))

	raw, err := f.client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	translated := document.Normalize(raw)
	if errs := document.NewValidator().Validate(translated); len(errs) > 0 {
		return "", fmt.Errorf("translated example is invalid: %s", document.FormatErrors(errs))
	}
	return translated, nil
}
