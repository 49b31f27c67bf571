// Package template renders user-facing replies and generation prompts from text templates.
package template

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"text/template"
)

var ErrUnknownTemplate = errors.New("unknown template")

// Kind names one reply or prompt template.
type Kind string

const (
	Instruction      Kind = "instruction"
	Completion       Kind = "completion"
	Guidance         Kind = "guidance"
	Unrecognized     Kind = "unrecognized"
	Fallback         Kind = "fallback"
	DigressionPrompt Kind = "digression_prompt"
	Apology          Kind = "apology"
)

// Data is the view every template renders against. StepNumber is 1-based.
type Data struct {
	TaskName   string
	StepNumber int
	TotalSteps int
	StepText   string
	Steps      []string
	UserText   string
}

// DefaultTexts returns the built-in template sources.
func DefaultTexts() map[Kind]string {
	return map[Kind]string{
		Instruction: "Step {{ .StepNumber }} of {{ .TotalSteps }}: {{ .StepText }}\n\n" +
			"Let me know when you've completed this step by saying 'done' or 'next'.",
		Completion: "🎉 Excellent! You've completed all the steps successfully! " +
			"Your Swiggy order should be on its way. Is there anything else I can help you with?",
		Guidance: "I can help you order food from Swiggy! " +
			"Just say 'I want to order food from Swiggy' to get started.",
		Unrecognized: "I'm here to help you with your Swiggy order. " +
			"Say 'done' when you complete a step, or ask me any questions!",
		Fallback: "I understand you have a question about: '{{ .UserText }}'\n\n" +
			"You're currently on Step {{ .StepNumber }}: {{ .StepText }}\n\n" +
			"I'm here to help! What would you like to know about this step?",
		DigressionPrompt: `You are a helpful assistant guiding a user through {{ .TaskName }}. The user is currently on step {{ .StepNumber }} of {{ .TotalSteps }}.

Current Step: {{ .StepText }}

Complete Workflow:
{{ range $i, $step := .Steps }}{{ inc $i }}. {{ $step }}
{{ end }}
User's Question: "{{ .UserText }}"

Please provide a helpful, specific answer to their question in the context of the current step. Keep your response concise (2-3 sentences) and actionable.

Response:`,
		Apology: "I'm sorry, I encountered an error. Please try again in a moment.",
	}
}

// Set holds parsed templates keyed by kind.
type Set struct {
	templates map[Kind]*template.Template
}

// NewSet parses the default templates with overrides applied on top.
func NewSet(overrides map[Kind]string) (*Set, error) {
	texts := DefaultTexts()
	maps.Copy(texts, overrides)

	set := &Set{templates: make(map[Kind]*template.Template, len(texts))}

	for kind, text := range texts {
		tmpl, err := parse(string(kind), text)
		if err != nil {
			return nil, err
		}

		set.templates[kind] = tmpl
	}

	return set, nil
}

// Default returns the built-in set. It panics only if a built-in template is malformed.
func Default() *Set {
	set, err := NewSet(nil)
	if err != nil {
		panic(err)
	}

	return set
}

func (s *Set) Render(kind Kind, data Data) (string, error) {
	tmpl, ok := s.templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}

	return execute(tmpl, data)
}

func parse(name, text string) (*template.Template, error) {
	tmpl, err := template.
		New(name).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"inc": func(i int) int {
				return i + 1
			},
		}).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
	}

	return tmpl, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder

	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", tmpl.Name(), err)
	}

	return strings.TrimSpace(buf.String()), nil
}
