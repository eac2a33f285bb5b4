package handlebars

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseModel decodes a YAML or JSON document into a model made of maps,
// slices and scalars.
func ParseModel(data []byte) (any, error) {
	var model any
	if err := yaml.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// LoadModelFile reads a YAML or JSON model from path.
func LoadModelFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return ParseModel(data)
}
