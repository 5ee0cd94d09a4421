// Package batch runs the optimize, categorize, format and persist pipeline
// over a list of prompts and records one outcome per prompt.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/teilomillet/promptstorm/optimizer"
	"github.com/teilomillet/promptstorm/utils"
)

// PromptOptimizer is satisfied by *optimizer.Optimizer.
type PromptOptimizer interface {
	Optimize(ctx context.Context, prompt string, opts ...optimizer.CallOption) (string, error)
}

// DocumentFormatter is satisfied by *optimizer.Formatter.
type DocumentFormatter interface {
	Format(ctx context.Context, prompt string, opts ...optimizer.CallOption) (string, error)
}

// Progress is reported once per finished prompt.
type Progress struct {
	RunID   string
	Index   int // 1-based
	Total   int
	Prompt  string
	Outcome string
	Err     error
}

type ProgressFunc func(Progress)

type RunOption func(*runOptions)

type runOptions struct {
	overrides []optimizer.CallOption
	progress  ProgressFunc
}

// WithOverrides applies call overrides to every optimize and format call
// of the run.
func WithOverrides(opts ...optimizer.CallOption) RunOption {
	return func(o *runOptions) {
		o.overrides = append(o.overrides, opts...)
	}
}

func WithProgress(fn ProgressFunc) RunOption {
	return func(o *runOptions) {
		o.progress = fn
	}
}

// Orchestrator processes prompts one at a time.
type Orchestrator struct {
	optimizer   PromptOptimizer
	formatter   DocumentFormatter
	categorizer optimizer.Categorizer
	logger      utils.Logger
}

func NewOrchestrator(opt PromptOptimizer, formatter DocumentFormatter, categorizer optimizer.Categorizer, logger utils.Logger) *Orchestrator {
	return &Orchestrator{
		optimizer:   opt,
		formatter:   formatter,
		categorizer: categorizer,
		logger:      utils.OrNop(logger),
	}
}

// RunCSV reads the prompts of column from csvPath and runs them.
func (o *Orchestrator) RunCSV(ctx context.Context, csvPath, column, outputDir string, opts ...RunOption) (*Result, error) {
	prompts, err := ReadPrompts(csvPath, column)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Read prompts", "source", csvPath, "column", column, "count", len(prompts))
	return o.Run(ctx, prompts, outputDir, opts...)
}

// Run optimizes, categorizes, formats and stores each prompt in order. A
// failing prompt is recorded as an ErrorPrefix outcome and the run goes
// on. Cancellation is checked between prompts only; the prompts finished so
// far are returned along with the context error.
func (o *Orchestrator) Run(ctx context.Context, prompts []string, outputDir string, opts ...RunOption) (*Result, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.NewString()
	start := time.Now()
	o.logger.Info("Starting batch", "run_id", runID, "prompts", len(prompts), "output_dir", outputDir)

	result := NewResult()
	for i, prompt := range prompts {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("Batch cancelled", "run_id", runID, "processed", i, "total", len(prompts))
			return result, err
		}

		o.logger.Debug("Processing prompt", "run_id", runID, "index", i+1, "total", len(prompts))
		path, err := o.process(context.WithoutCancel(ctx), prompt, outputDir, ro.overrides)
		if err != nil {
			o.logger.Error("Prompt failed", "run_id", runID, "index", i+1, "error", err)
			result.setError(prompt, err)
		} else {
			o.logger.Debug("Prompt stored", "run_id", runID, "index", i+1, "path", path)
			result.set(prompt, path)
		}

		if ro.progress != nil {
			outcome, _ := result.Get(prompt)
			ro.progress(Progress{
				RunID:   runID,
				Index:   i + 1,
				Total:   len(prompts),
				Prompt:  prompt,
				Outcome: outcome,
				Err:     err,
			})
		}
	}

	o.logger.Info("Batch finished", "run_id", runID,
		"succeeded", result.Succeeded(), "total", result.Len(), "duration", time.Since(start))
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, prompt, outputDir string, overrides []optimizer.CallOption) (string, error) {
	optimized, err := o.optimizer.Optimize(ctx, prompt, overrides...)
	if err != nil {
		return "", err
	}

	cat := o.categorizer.Categorize(ctx, prompt).Sanitized()

	doc, err := o.formatter.Format(ctx, optimized, overrides...)
	if err != nil {
		return "", err
	}

	return writeDocument(outputDir, cat.Category, cat.Name, doc)
}
