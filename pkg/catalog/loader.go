package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var catalogSchema string

type catalogFile struct {
	Workflows []Definition `yaml:"workflows"`
}

// LoadFile reads a YAML catalog from path and validates it against the catalog schema.
// Definitions in the file are added on top of the built-in ones and may replace them.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	return Parse(data)
}

// Parse validates and decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	if err := validateDocument(document); err != nil {
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	c := Default()

	for _, definition := range file.Workflows {
		if err := c.Register(definition); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func validateDocument(document any) error {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	if !result.Valid() {
		var problems []string
		for _, resultError := range result.Errors() {
			problems = append(problems, resultError.String())
		}

		return fmt.Errorf("%w: schema validation failed: %s", ErrInvalidDefinition, strings.Join(problems, "; "))
	}

	return nil
}
