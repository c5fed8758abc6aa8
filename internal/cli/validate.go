package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/xlnarrate/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Ops string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                 `json:"valid"`
	Steps  int                  `json:"steps"`
	Issues []ir.ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint an operation list",
		Long: `Lint an operation list without rendering it.

Reports unknown kinds, missing tables and expressions, unresolved
variables and similar problems. Narration tolerates all of them; this
command exists to catch them before a plan is shown to a user.

Exit codes:
  0 - No issues
  1 - One or more issues
  2 - Command error (unreadable or undecodable input)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ops, "ops", "", "operation list JSON file (- for stdin)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ops, err := LoadOperations(opts.Ops, cmd.InOrStdin())
	if err != nil {
		return reportLoadError(e.formatter, err)
	}
	e.formatter.VerboseLog("Validating %d operation(s)", len(ops))

	issues := ir.Validate(ops)
	if len(issues) > 0 {
		return outputValidationIssues(e.formatter, len(ops), issues)
	}
	return outputValidateSuccess(e.formatter, len(ops))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, steps int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Steps: steps})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d operation(s) valid\n", steps)
	return nil
}

// outputValidationIssues outputs every issue and fails with exit code 1.
func outputValidationIssues(formatter *OutputFormatter, steps int, issues []ir.ValidationIssue) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Steps: steps, Issues: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "step %d (%s)\n", issue.Step, issue.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return failure
}
