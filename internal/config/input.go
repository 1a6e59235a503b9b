package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rgehrsitz/bufferplan/internal/domain"
	"gopkg.in/yaml.v3"
)

// NamedPlan is one plan inside a plan file.
type NamedPlan struct {
	Name               string `yaml:"name"`
	Description        string `yaml:"description,omitempty"`
	domain.PlanRequest `yaml:",inline"`
}

// PlanFile is the on-disk plan document.
type PlanFile struct {
	Plans []NamedPlan `yaml:"plans"`
}

// Find returns the named plan, or the first plan when name is empty.
func (pf *PlanFile) Find(name string) (*NamedPlan, error) {
	if len(pf.Plans) == 0 {
		return nil, fmt.Errorf("plan file contains no plans")
	}
	if name == "" {
		return &pf.Plans[0], nil
	}
	for i := range pf.Plans {
		if pf.Plans[i].Name == name {
			return &pf.Plans[i], nil
		}
	}
	names := make([]string, len(pf.Plans))
	for i, p := range pf.Plans {
		names[i] = p.Name
	}
	return nil, fmt.Errorf("plan %q not found (available: %s)", name, strings.Join(names, ", "))
}

// InputParser handles parsing of plan files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads and validates a YAML plan file
func (ip *InputParser) LoadFromFile(filename string) (*PlanFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates plan file contents
func (ip *InputParser) Parse(data []byte) (*PlanFile, error) {
	var pf PlanFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := ip.ValidatePlanFile(&pf); err != nil {
		return nil, fmt.Errorf("plan file validation failed: %w", err)
	}
	return &pf, nil
}

// ValidatePlanFile checks every plan and the uniqueness of plan names
func (ip *InputParser) ValidatePlanFile(pf *PlanFile) error {
	if len(pf.Plans) == 0 {
		return fmt.Errorf("at least one plan is required")
	}
	seen := make(map[string]bool, len(pf.Plans))
	for i, p := range pf.Plans {
		if p.Name == "" {
			return fmt.Errorf("plan %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("plan %d: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if err := p.Validate(); err != nil {
			return fmt.Errorf("plan %d (%s): %w", i, p.Name, err)
		}
	}
	return nil
}

// SaveToFile writes a plan file as YAML
func (ip *InputParser) SaveToFile(pf *PlanFile, filename string) error {
	data, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}
