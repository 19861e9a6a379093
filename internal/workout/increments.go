package workout

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed increments.yaml
var defaultIncrementsYAML []byte

// IncrementTable maps equipment classes to the smallest valid weight step.
// It is plain configuration so new classes need no code change.
type IncrementTable struct {
	DefaultKg float64                    `yaml:"default_kg"`
	Classes   map[EquipmentClass]float64 `yaml:"classes"`
}

// For returns the increment of the class, or the table default for unknown
// classes.
func (t IncrementTable) For(class EquipmentClass) float64 {
	if increment, ok := t.Classes[class]; ok {
		return increment
	}
	return t.DefaultKg
}

// DefaultIncrements parses the embedded increment table.
func DefaultIncrements() IncrementTable {
	table, err := parseIncrements(defaultIncrementsYAML)
	if err != nil {
		// The embedded table is validated by tests.
		panic(fmt.Sprintf("parse embedded increment table: %v", err))
	}
	return table
}

// LoadIncrements reads an increment table from a YAML file. An empty path
// falls back to the embedded defaults.
func LoadIncrements(path string) (IncrementTable, error) {
	if path == "" {
		return DefaultIncrements(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return IncrementTable{}, fmt.Errorf("read increment table: %w", err)
	}
	table, err := parseIncrements(raw)
	if err != nil {
		return IncrementTable{}, fmt.Errorf("parse increment table %s: %w", path, err)
	}
	return table, nil
}

func parseIncrements(raw []byte) (IncrementTable, error) {
	var table IncrementTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return IncrementTable{}, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if table.DefaultKg <= 0 {
		return IncrementTable{}, fmt.Errorf("default_kg must be positive, got %v", table.DefaultKg)
	}
	for class, increment := range table.Classes {
		if increment <= 0 {
			return IncrementTable{}, fmt.Errorf("increment for %s must be positive, got %v", class, increment)
		}
	}
	return table, nil
}
