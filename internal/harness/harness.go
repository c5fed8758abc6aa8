package harness

import (
	"fmt"

	"github.com/roach88/xlnarrate/internal/ir"
	"github.com/roach88/xlnarrate/internal/logging"
	"github.com/roach88/xlnarrate/internal/narrate"
)

// Run renders a scenario and evaluates its assertions.
//
// Returns an error only when the operation list cannot be decoded; failed
// assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ops, err := scenario.DecodeOperations()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	n := narrate.New(scenario.FileCollection(),
		narrate.WithFormulaOptions(scenario.FormulaOptions()),
		narrate.WithLogger(logging.Discard()),
	)
	out := n.Narrate(ops)

	result := NewResult()
	result.Strategy = out.Strategy
	result.Manual = out.Manual
	result.Issues = ir.Validate(ops)

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}
