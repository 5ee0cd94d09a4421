package optimizer

import (
	"context"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/document"
	"github.com/teilomillet/promptstorm/llm"
	"github.com/teilomillet/promptstorm/utils"
)

// RepairTemperature is used for every repair call regardless of the
// configured temperature.
const RepairTemperature = 0.1

// Repairer asks the model to fix an invalid document once.
type Repairer struct {
	client    llm.Completer
	cfg       config.OptimizationConfig
	validator *document.Validator
	logger    utils.Logger
}

func NewRepairer(client llm.Completer, cfg config.OptimizationConfig, validator *document.Validator, logger utils.Logger) *Repairer {
	if validator == nil {
		validator = document.NewValidator()
	}
	return &Repairer{client: client, cfg: cfg, validator: validator, logger: utils.OrNop(logger)}
}

// Repair sends text and errs to the model and re-validates the answer. It
// makes exactly one gateway call and returns an ErrorTypeRepairFailed
// error carrying the remaining problems when the answer is still invalid.
func (r *Repairer) Repair(ctx context.Context, text string, errs []document.ValidationError, opts ...CallOption) (string, error) {
	user := render(repairTemplate,
		"{document}", text,
		"{errors}", document.FormatErrors(errs),
	)
	opts = append(opts[:len(opts):len(opts)], WithTemperature(RepairTemperature))
	req := newRequest(r.cfg, opts, systemMessage(repairSystemPrompt), userMessage(user))

	r.logger.Info("Repairing document", "errors", len(errs))
	raw, err := r.client.Complete(ctx, req)
	if err != nil {
		return "", classifyError("repair", err)
	}

	fixed := document.Normalize(raw)
	if remaining := r.validator.Validate(fixed); len(remaining) > 0 {
		r.logger.Warn("Repaired document is still invalid", "errors", document.FormatErrors(remaining))
		return "", &Error{
			Type:      ErrorTypeRepairFailed,
			Message:   "failed to fix YAML content",
			Remaining: remaining,
		}
	}
	return fixed, nil
}
