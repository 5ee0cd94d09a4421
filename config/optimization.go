package config

import (
	"fmt"
	"strings"
)

// PromptPlaceholder is substituted with the raw prompt in Template.
const PromptPlaceholder = "{prompt}"

// DefaultOptimizationTemplate drives the single optimization round trip.
// Literal double braces are part of the instruction text, only {prompt}
// is substituted.
const DefaultOptimizationTemplate = "As an expert Prompt Engineer, enhance the following prompt:\n\n" +
	"```\n{prompt}\n```\n\n" +
	"Optimization Guidelines:\n" +
	"1. Improve clarity, conciseness, and effectiveness\n" +
	"2. Use variables (e.g., {{variable_name}}) for customization, variable in snake_case\n" +
	"3. Apply appropriate formatting for better structure\n" +
	"4. Add context or specific instructions where needed\n" +
	"5. Ensure the prompt elicits precise, relevant responses\n" +
	"6. Address potential biases and ethical concerns\n" +
	"7. Tailor for the intended model and use case\n" +
	"8. Consider edge cases and possible misinterpretations\n" +
	"9. Balance human readability with AI comprehension\n" +
	"10. Incorporate a suitable persona if beneficial\n" +
	"11. Use clear, unambiguous language\n" +
	"12. Include examples or demonstrations if helpful\n" +
	"13. Induce CoT, Chain of Thought if applicable, to reason step by step\n\n" +
	"Provide only the optimized prompt. No explanations or comments."

// OptimizationConfig is the per-invocation value object. It is passed by
// value; the With* helpers return modified copies.
type OptimizationConfig struct {
	Model       string  `validate:"required"`
	Temperature float64 `validate:"gte=0,lte=1"`
	MaxTokens   int     `validate:"min=1"`
	Language    string  `validate:"required"`
	Template    string  `validate:"required,contains={prompt}"`
}

// DefaultOptimizationConfig mirrors NewConfig.
func DefaultOptimizationConfig() OptimizationConfig {
	return NewConfig().Optimization()
}

func (o OptimizationConfig) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid optimization config: %w", err)
	}
	return nil
}

func (o OptimizationConfig) WithModel(model string) OptimizationConfig {
	o.Model = model
	return o
}

func (o OptimizationConfig) WithTemperature(temperature float64) OptimizationConfig {
	o.Temperature = temperature
	return o
}

func (o OptimizationConfig) WithMaxTokens(maxTokens int) OptimizationConfig {
	o.MaxTokens = maxTokens
	return o
}

func (o OptimizationConfig) WithLanguage(language string) OptimizationConfig {
	o.Language = language
	return o
}

func (o OptimizationConfig) WithTemplate(template string) OptimizationConfig {
	o.Template = template
	return o
}

// IsDefaultLanguage reports whether documents are produced in English.
func (o OptimizationConfig) IsDefaultLanguage() bool {
	lang := strings.ToLower(strings.TrimSpace(o.Language))
	return lang == "" || lang == DefaultLanguage || lang == "en"
}
