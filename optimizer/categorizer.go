package optimizer

import (
	"context"
	"regexp"
	"strings"

	"github.com/teilomillet/promptstorm/config"
	"github.com/teilomillet/promptstorm/document"
	"github.com/teilomillet/promptstorm/llm"
	"github.com/teilomillet/promptstorm/utils"
)

// Category is the label pair used to place a document on disk.
type Category struct {
	Category string
	Name     string
}

// Sanitized returns c with both labels safe as single path elements.
func (c Category) Sanitized() Category {
	return Category{
		Category: sanitizeLabel(c.Category, DefaultCategory.Category),
		Name:     sanitizeLabel(c.Name, DefaultCategory.Name),
	}
}

// DefaultCategory is used whenever categorization fails.
var DefaultCategory = Category{Category: "general", Name: "unnamed-prompt"}

// Categorizer infers a Category for a prompt. Implementations never fail;
// they degrade to DefaultCategory.
type Categorizer interface {
	Categorize(ctx context.Context, prompt string) Category
}

// categorizeMaxTokens caps the two-line answer.
const categorizeMaxTokens = 50

// DirectCategorizer asks the model for the two labels.
type DirectCategorizer struct {
	client llm.Completer
	cfg    config.OptimizationConfig
	logger utils.Logger
}

func NewDirectCategorizer(client llm.Completer, cfg config.OptimizationConfig, logger utils.Logger) *DirectCategorizer {
	return &DirectCategorizer{client: client, cfg: cfg, logger: utils.OrNop(logger)}
}

func (c *DirectCategorizer) Categorize(ctx context.Context, prompt string) Category {
	req := newRequest(c.cfg,
		[]CallOption{WithTemperature(0), WithMaxTokens(categorizeMaxTokens)},
		userMessage(render(categorizeTemplate, config.PromptPlaceholder, prompt)),
	)
	raw, err := c.client.Complete(ctx, req)
	if err != nil {
		c.logger.Warn("Categorization failed, using defaults", "error", err)
		return DefaultCategory
	}

	cat, ok := parseCategoryLines(raw)
	if !ok {
		c.logger.Warn("Unexpected categorization answer, using defaults", "answer", raw)
		return DefaultCategory
	}
	return cat
}

// DerivedCategorizer formats the prompt and reads the first category and
// the name of the resulting document.
type DerivedCategorizer struct {
	formatter *Formatter
	logger    utils.Logger
}

func NewDerivedCategorizer(formatter *Formatter, logger utils.Logger) *DerivedCategorizer {
	return &DerivedCategorizer{formatter: formatter, logger: utils.OrNop(logger)}
}

func (c *DerivedCategorizer) Categorize(ctx context.Context, prompt string) Category {
	text, err := c.formatter.Format(ctx, prompt)
	if err != nil {
		c.logger.Warn("Error inferring category from document", "error", err)
		return DefaultCategory
	}
	doc, err := document.Parse(text)
	if err != nil {
		c.logger.Warn("Error inferring category from document", "error", err)
		return DefaultCategory
	}
	return Category{
		Category: sanitizeLabel(doc.FirstCategory(), DefaultCategory.Category),
		Name:     sanitizeLabel(doc.Name, DefaultCategory.Name),
	}
}

var (
	listMarkerRe = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
	labelRe      = regexp.MustCompile(`(?i)^(?:category|name)\s*:\s*`)
	unsafeRe     = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// parseCategoryLines expects exactly two non-blank lines.
func parseCategoryLines(raw string) (Category, bool) {
	var lines []string
	for _, line := range strings.Split(document.Normalize(raw), "\n") {
		line = strings.TrimSpace(line)
		line = listMarkerRe.ReplaceAllString(line, "")
		line = labelRe.ReplaceAllString(line, "")
		line = strings.Trim(line, "`*\"' ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 2 {
		return Category{}, false
	}
	return Category{
		Category: sanitizeLabel(lines[0], DefaultCategory.Category),
		Name:     sanitizeLabel(lines[1], DefaultCategory.Name),
	}, true
}

// sanitizeLabel makes s safe as a single path element.
func sanitizeLabel(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "-")
	s = unsafeRe.ReplaceAllString(s, "")
	s = strings.Trim(s, "-_")
	if s == "" {
		return fallback
	}
	return s
}
