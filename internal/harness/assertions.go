package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluate checks one assertion against a result.
func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertStrategyContains:
		return assertContains(a.Type, r.Strategy.Text, a.Text)
	case AssertManualContains:
		return assertContains(a.Type, r.Manual.Text, a.Text)
	case AssertNotContains:
		for _, text := range []string{r.Strategy.Text, r.Manual.Text} {
			if strings.Contains(text, a.Text) {
				return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("no %q", a.Text), Actual: "found"}
			}
		}
		return nil
	case AssertFormula:
		return assertFormula(r, a)
	case AssertFormulaCount:
		if got := len(r.Manual.Formulas); got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Count), Actual: fmt.Sprint(got)}
		}
		return nil
	case AssertStepCount:
		if r.Strategy.Steps != a.Count || r.Manual.Steps != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprint(a.Count),
				Actual:   fmt.Sprintf("strategy %d, manual %d", r.Strategy.Steps, r.Manual.Steps),
			}
		}
		return nil
	case AssertValidation:
		return assertValidation(r, a)
	case AssertValid:
		if len(r.Issues) > 0 {
			return &AssertionError{Type: a.Type, Expected: "no issues", Actual: r.Issues[0].Error()}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertContains(kind, text, want string) error {
	if strings.Contains(text, want) {
		return nil
	}
	return &AssertionError{Type: kind, Expected: fmt.Sprintf("%q", want), Actual: "not found"}
}

func assertFormula(r *Result, a Assertion) error {
	for _, f := range r.Manual.Formulas {
		if f.Step != a.Step {
			continue
		}
		if f.Formula != a.Equals {
			return &AssertionError{Type: a.Type, Expected: a.Equals, Actual: f.Formula}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("formula for step %d", a.Step), Actual: "none"}
}

func assertValidation(r *Result, a Assertion) error {
	for _, issue := range r.Issues {
		if issue.Code == a.Code && (a.Step == 0 || issue.Step == a.Step) {
			return nil
		}
	}
	want := a.Code
	if a.Step > 0 {
		want = fmt.Sprintf("%s at step %d", a.Code, a.Step)
	}
	return &AssertionError{Type: a.Type, Expected: want, Actual: fmt.Sprintf("%d other issue(s)", len(r.Issues))}
}
