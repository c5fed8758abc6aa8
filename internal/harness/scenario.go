package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/xlnarrate/internal/formula"
	"github.com/roach88/xlnarrate/internal/ir"
	"github.com/roach88/xlnarrate/internal/lookup"
)

// Scenario is one narration test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario covers.
	Description string `yaml:"description"`

	// Files is the table metadata visible to the narrators, keyed by file id.
	Files map[string]FileSpec `yaml:"files,omitempty"`

	// Formula overrides the formula rendering options.
	Formula *FormulaSpec `yaml:"formula,omitempty"`

	// Operations is the operation list, written in YAML with the same shape
	// as the JSON wire form.
	Operations []map[string]any `yaml:"operations"`

	// Assertions validate the rendered documents.
	Assertions []Assertion `yaml:"assertions"`
}

// FileSpec describes one file and the header row of each of its tables.
type FileSpec struct {
	Filename string              `yaml:"filename"`
	Tables   map[string][]string `yaml:"tables"`
}

// FormulaSpec mirrors formula.Options. Unset fields keep the defaults.
type FormulaSpec struct {
	FullRange  string `yaml:"full_range,omitempty"`
	FitToTable bool   `yaml:"fit_to_table,omitempty"`
	SampleRow  int    `yaml:"sample_row,omitempty"`
}

// Assertion validates part of a scenario result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "strategy_contains": the strategy text contains Text
	// - "manual_contains": the manual-steps text contains Text
	// - "not_contains": neither document contains Text
	// - "formula": the appendix formula of Step equals Equals
	// - "formula_count": the appendix has Count formulas
	// - "step_count": both documents report Count steps
	// - "validation": validation reports an issue with Code (at Step, if set)
	// - "valid": validation reports no issues
	Type string `yaml:"type"`

	Text   string `yaml:"text,omitempty"`
	Step   int    `yaml:"step,omitempty"`
	Equals string `yaml:"equals,omitempty"`
	Count  int    `yaml:"count,omitempty"`
	Code   string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertStrategyContains = "strategy_contains"
	AssertManualContains   = "manual_contains"
	AssertNotContains      = "not_contains"
	AssertFormula          = "formula"
	AssertFormulaCount     = "formula_count"
	AssertStepCount        = "step_count"
	AssertValidation       = "validation"
	AssertValid            = "valid"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Operations == nil {
		return fmt.Errorf("operations list is required (use [] for none)")
	}

	for i, op := range s.Operations {
		if _, ok := op["type"]; !ok {
			return fmt.Errorf("operations[%d]: type is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStrategyContains, AssertManualContains, AssertNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertFormula:
		if a.Step <= 0 {
			return fmt.Errorf("assertions[%d]: step is required for formula", index)
		}
	case AssertFormulaCount, AssertStepCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertValidation:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for validation", index)
		}
	case AssertValid:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// DecodeOperations converts the YAML operation list to IR through its JSON
// wire form.
func (s *Scenario) DecodeOperations() ([]ir.Operation, error) {
	data, err := json.Marshal(s.Operations)
	if err != nil {
		return nil, fmt.Errorf("encode operations: %w", err)
	}
	return ir.UnmarshalOperations(data)
}

// FileCollection returns the scenario's table metadata.
func (s *Scenario) FileCollection() lookup.FileCollection {
	files := lookup.FileCollection{}
	for id, f := range s.Files {
		entry := lookup.FileEntry{Filename: f.Filename, Tables: map[string]lookup.Table{}}
		for name, cols := range f.Tables {
			entry.Tables[name] = lookup.Table{Columns: cols}
		}
		files[id] = entry
	}
	return files
}

// FormulaOptions returns the formula options with scenario overrides.
func (s *Scenario) FormulaOptions() formula.Options {
	opts := formula.DefaultOptions()
	if s.Formula == nil {
		return opts
	}
	if s.Formula.FullRange != "" {
		opts.FullRange = s.Formula.FullRange
	}
	opts.FitToTable = s.Formula.FitToTable
	if s.Formula.SampleRow > 0 {
		opts.SampleRow = s.Formula.SampleRow
	}
	return opts
}
