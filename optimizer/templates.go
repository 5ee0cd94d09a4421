package optimizer

import (
	"strings"

	"github.com/teilomillet/promptstorm/config"
)

// Placeholders of FormatTemplate.
const (
	LanguagePlaceholder = "{language}"
	ExamplePlaceholder  = "{yaml_example}"
)

// FormatTemplate is the user instruction of a formatting call.
const FormatTemplate = "You are prompt_storm (author) and you are an expert at converting prompts into " +
	"well-structured YAML format. Convert the following prompt into a well-structured " +
	"YAML format following this structure:\n" +
	"- Include metadata (name, version, description, author) in {language}\n" +
	"- Extract input variables with type, description, and examples in {language}\n" +
	"- Add relevant tags and categories\n" +
	"- Include the original content in {language}\n\n" +
	"Prompt to convert:\n```\n{prompt}\n```\n\n" +
	"Very important: name, description, tags, categories, and content MUST all be in {language}.\n" +
	"Return only valid YAML. Follow this example structure:\n" +
	"```yaml\n{yaml_example}\n```\n"

// ExampleDocument shows the model the expected document shape.
const ExampleDocument = `name: "prompt_name"
version: '1.0'
description: >-
  A clear description of the prompt's purpose
author: promptstorm
input_variables:
  variable_name:
    type: string
    description: >-
      A description of the variable
    examples:
      - "Example 1"
      - "Example 2"
tags:
  - "relevant_tag1"
  - "relevant_tag2"
categories:
  - "category1"
content: >-
  Original prompt content`

const repairSystemPrompt = "You are an expert at fixing YAML syntax issues."

const repairTemplate = "Fix the following invalid YAML content. Return only the fixed YAML, no explanations:\n\n" +
	"```yaml\n{document}\n```\n\n" +
	"Errors found:\n{errors}"

const translateTemplate = "Create the same YAML file with values translated to {language}. " +
	"Keep every key unchanged.\n" +
	"Format as markdown, only the YAML code block is needed.\n\n" +
	"```yaml\n{yaml_example}\n```"

const categorizeTemplate = "Classify the following prompt.\n\n" +
	"```\n{prompt}\n```\n\n" +
	"Answer with exactly two lines and nothing else:\n" +
	"1. a single lowercase word naming the category (for example: programming, marketing, writing)\n" +
	"2. a short lowercase hyphenated name for the prompt (for example: fibonacci-calculator)"

func formatSystemPrompt(language string) string {
	return "You are prompt_storm (author) and you are an expert at converting prompts into well-structured YAML format. " +
		"You will be given a prompt and your task is to convert it into a valid YAML format. " +
		"The YAML format should be well-structured and contain all the necessary information to be used effectively. " +
		"Use language: " + language + " for prompt content, and the description will be in " + language + "."
}

// render substitutes placeholders in a single pass, so braces inside the
// substituted values are never expanded.
func render(template string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(template)
}

func renderOptimization(template, prompt string) string {
	return render(template, config.PromptPlaceholder, prompt)
}
