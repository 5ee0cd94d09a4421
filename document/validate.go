package document

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRequiredFields is the key set every structured document carries.
var DefaultRequiredFields = []string{"name", "version", "description", "content"}

// ValidationError describes one problem found in a document. Line and
// Column are 1-based; zero means unknown. A Column is only set together
// with a Line.
type ValidationError struct {
	Message string
	Line    int
	Column  int
}

func (e ValidationError) HasLocation() bool {
	return e.Line > 0
}

func (e ValidationError) String() string {
	switch {
	case !e.HasLocation():
		return e.Message
	case e.Column < 1:
		return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
	default:
		return fmt.Sprintf("Line %d, Column %d: %s", e.Line, e.Column, e.Message)
	}
}

// Validator checks that a text parses as a YAML mapping containing the
// required keys.
type Validator struct {
	Required []string
}

// NewValidator returns a Validator for required, or for
// DefaultRequiredFields when none are given.
func NewValidator(required ...string) *Validator {
	if len(required) == 0 {
		required = DefaultRequiredFields
	}
	return &Validator{Required: slices.Clone(required)}
}

// Validate returns nil when text is a valid document, otherwise the
// problems found in order.
func (v *Validator) Validate(text string) []ValidationError {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return []ValidationError{parseError(err)}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return []ValidationError{{Message: "document must be a mapping"}}
	}

	present := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		present[root.Content[i].Value] = true
	}

	var missing []string
	for _, field := range v.Required {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	missing = slices.Compact(missing)
	return []ValidationError{{
		Message: "missing required fields: " + strings.Join(missing, ", "),
	}}
}

// Valid reports whether text passes Validate.
func (v *Validator) Valid(text string) bool {
	return len(v.Validate(text)) == 0
}

// FormatErrors renders errs one per line.
func FormatErrors(errs []ValidationError) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

var yamlLineRe = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// parseError converts a yaml.v3 error. yaml.v3 reports a line for most
// syntax errors but never a column, and omits the line entirely for some
// errors; those stay unlocated.
func parseError(err error) ValidationError {
	msg := err.Error()
	m := yamlLineRe.FindStringSubmatch(msg)
	if m == nil {
		return ValidationError{Message: strings.TrimPrefix(msg, "yaml: ")}
	}
	line, convErr := strconv.Atoi(m[1])
	if convErr != nil || line < 1 {
		line = 0
	}
	return ValidationError{Message: m[2], Line: line}
}
