package harness

import (
	"github.com/roach88/xlnarrate/internal/ir"
	"github.com/roach88/xlnarrate/internal/narrate"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	Strategy narrate.Document       `json:"strategy"`
	Manual   narrate.ManualDocument `json:"manual"`

	// Issues are the validation findings for the operation list. They never
	// fail a scenario on their own.
	Issues []ir.ValidationIssue `json:"issues,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
