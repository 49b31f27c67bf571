// Package catalog holds the ordered step lists for every guided workflow type.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/safehands/guide/pkg/models"
)

var (
	// ErrUnknownWorkflowType indicates no definition is registered for the requested type.
	ErrUnknownWorkflowType = errors.New("unknown workflow type")

	// ErrInvalidDefinition indicates a definition that cannot be registered.
	ErrInvalidDefinition = errors.New("invalid workflow definition")
)

// Definition describes one workflow type.
type Definition struct {
	Type           string                  `json:"type"            yaml:"type"`
	Name           string                  `json:"name"            yaml:"name"`
	TriggerPhrases []string                `json:"trigger_phrases" yaml:"trigger_phrases"`
	Steps          []models.StepDescriptor `json:"steps"           yaml:"steps"`
}

func (d Definition) validate() error {
	if strings.TrimSpace(d.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidDefinition)
	}

	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: %s has no steps", ErrInvalidDefinition, d.Type)
	}

	for i, step := range d.Steps {
		if strings.TrimSpace(step.Text) == "" {
			return fmt.Errorf("%w: %s step %d has no text", ErrInvalidDefinition, d.Type, i+1)
		}
	}

	return nil
}

// Catalog is the registry of workflow definitions. Lookups return copies, so
// sessions that snapshot steps are never affected by later registrations.
type Catalog struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// New creates a catalog from definitions.
func New(definitions ...Definition) (*Catalog, error) {
	c := &Catalog{definitions: make(map[string]Definition, len(definitions))}

	for _, definition := range definitions {
		if err := c.Register(definition); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Register adds or replaces a definition.
func (c *Catalog) Register(definition Definition) error {
	if err := definition.validate(); err != nil {
		return err
	}

	stored := Definition{
		Type:           definition.Type,
		Name:           definition.Name,
		TriggerPhrases: normalizePhrases(definition.TriggerPhrases),
		Steps:          models.CloneSteps(definition.Steps),
	}

	c.mu.Lock()
	c.definitions[definition.Type] = stored
	c.mu.Unlock()

	return nil
}

// Steps returns a private copy of the ordered steps for workflowType.
func (c *Catalog) Steps(workflowType string) ([]models.StepDescriptor, error) {
	c.mu.RLock()
	definition, ok := c.definitions[workflowType]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflowType, workflowType)
	}

	return models.CloneSteps(definition.Steps), nil
}

// Definition returns a copy of the definition registered for workflowType.
func (c *Catalog) Definition(workflowType string) (Definition, error) {
	c.mu.RLock()
	definition, ok := c.definitions[workflowType]
	c.mu.RUnlock()

	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownWorkflowType, workflowType)
	}

	definition.TriggerPhrases = append([]string(nil), definition.TriggerPhrases...)
	definition.Steps = models.CloneSteps(definition.Steps)

	return definition, nil
}

// Types lists registered workflow types in lexical order.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types := make([]string, 0, len(c.definitions))
	for workflowType := range c.definitions {
		types = append(types, workflowType)
	}

	sort.Strings(types)

	return types
}

// MatchTrigger returns the workflow type whose trigger phrase appears in text.
// Types are checked in lexical order so the result is deterministic.
func (c *Catalog) MatchTrigger(text string) (string, bool) {
	normalized := strings.ToLower(text)

	c.mu.RLock()
	defer c.mu.RUnlock()

	types := make([]string, 0, len(c.definitions))
	for workflowType := range c.definitions {
		types = append(types, workflowType)
	}

	sort.Strings(types)

	for _, workflowType := range types {
		for _, phrase := range c.definitions[workflowType].TriggerPhrases {
			if strings.Contains(normalized, phrase) {
				return workflowType, true
			}
		}
	}

	return "", false
}

// IsUnknownWorkflowType checks if an error indicates a missing catalog entry.
func IsUnknownWorkflowType(err error) bool {
	return errors.Is(err, ErrUnknownWorkflowType)
}

func normalizePhrases(phrases []string) []string {
	normalized := make([]string, 0, len(phrases))

	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p != "" {
			normalized = append(normalized, p)
		}
	}

	return normalized
}
