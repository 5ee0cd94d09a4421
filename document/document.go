// Package document turns raw model completions into validated YAML
// prompt documents.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Document is the structured form of a prompt.
type Document struct {
	Name           string                   `yaml:"name" json:"name" jsonschema:"description=Short snake_case identifier of the prompt"`
	Version        string                   `yaml:"version" json:"version" jsonschema:"example=1.0"`
	Description    string                   `yaml:"description" json:"description"`
	Author         string                   `yaml:"author,omitempty" json:"author,omitempty"`
	InputVariables map[string]InputVariable `yaml:"input_variables,omitempty" json:"input_variables,omitempty"`
	Tags           []string                 `yaml:"tags,omitempty" json:"tags,omitempty"`
	Categories     []string                 `yaml:"categories,omitempty" json:"categories,omitempty"`
	Content        string                   `yaml:"content" json:"content" jsonschema:"description=The prompt text with {{variable}} placeholders"`
}

// InputVariable describes one placeholder of the prompt content.
type InputVariable struct {
	Type        string   `yaml:"type" json:"type" jsonschema:"default=string"`
	Description string   `yaml:"description" json:"description"`
	PlaceHolder string   `yaml:"place_holder,omitempty" json:"place_holder,omitempty"`
	Examples    []string `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// Parse decodes text into a Document. It does not check required fields;
// use a Validator first.
func Parse(text string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &doc, nil
}

// FirstCategory returns the first entry of Categories, or "".
func (d *Document) FirstCategory() string {
	if len(d.Categories) == 0 {
		return ""
	}
	return d.Categories[0]
}

// Schema returns the JSON Schema of Document.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := r.Reflect(&Document{})
	s.Title = "promptstorm document"
	return s
}

// SchemaJSON returns Schema rendered as indented JSON.
func SchemaJSON() ([]byte, error) {
	out, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
