package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xlnarrate/internal/ir"
	"github.com/roach88/xlnarrate/internal/narrate"
)

// NarrateOptions holds flags for the strategy, manual and narrate commands.
type NarrateOptions struct {
	*RootOptions
	Ops       string   // operation list JSON, "-" for stdin
	Files     string   // file collection JSON
	Workbooks []string // ID=PATH pairs read with excelize
}

type narration int

const (
	narrateStrategy narration = iota
	narrateManual
	narrateBoth
)

// NewStrategyCommand creates the strategy command.
func NewStrategyCommand(rootOpts *RootOptions) *cobra.Command {
	return newNarrationCommand(rootOpts, narrateStrategy, "strategy",
		"Render the strategy overview",
		"Render one box-drawn block per step plus the final outcome summary.")
}

// NewManualCommand creates the manual command.
func NewManualCommand(rootOpts *RootOptions) *cobra.Command {
	return newNarrationCommand(rootOpts, narrateManual, "manual",
		"Render manual GUI steps",
		`Render a numbered GUI script per step. Steps with a spreadsheet-365
equivalent are collected into a formula appendix.`)
}

// NewNarrateCommand creates the narrate command.
func NewNarrateCommand(rootOpts *RootOptions) *cobra.Command {
	return newNarrationCommand(rootOpts, narrateBoth, "narrate",
		"Render both documents",
		"Render the strategy overview followed by the manual steps.")
}

func newNarrationCommand(rootOpts *RootOptions, mode narration, use, short, long string) *cobra.Command {
	opts := &NarrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: long + `

Table metadata comes from --files (JSON) and/or --workbook ID=PATH, which
reads the header row of every sheet of an .xlsx file. Operations that
reference unknown files or tables still render, with fallback names.

Examples:
  xlnarrate ` + use + ` --ops plan.json --files files.json
  xlnarrate ` + use + ` --ops plan.json --workbook f1=sales.xlsx
  cat plan.json | xlnarrate ` + use + ` --ops - --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNarration(opts, mode, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ops, "ops", "", "operation list JSON file (- for stdin)")
	cmd.Flags().StringVar(&opts.Files, "files", "", "file collection JSON file")
	cmd.Flags().StringArrayVar(&opts.Workbooks, "workbook", nil, "workbook as ID=PATH (repeatable)")

	return cmd
}

func runNarration(opts *NarrateOptions, mode narration, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ops, err := LoadOperations(opts.Ops, cmd.InOrStdin())
	if err != nil {
		return reportLoadError(e.formatter, err)
	}
	files, err := LoadFiles(opts.Files, opts.Workbooks)
	if err != nil {
		return reportLoadError(e.formatter, err)
	}
	e.formatter.VerboseLog("Loaded %d operation(s) and %d file(s)", len(ops), len(files))

	// Issues never block rendering; they are surfaced as warnings.
	for _, issue := range ir.Validate(ops) {
		e.log.Warn("operation issue",
			"step", issue.Step, "code", issue.Code, "field", issue.Field, "message", issue.Message)
	}

	n := narrate.New(files,
		narrate.WithFormulaOptions(e.cfg.FormulaOptions()),
		narrate.WithLogger(e.log.Logger),
	)

	switch mode {
	case narrateStrategy:
		doc := n.Strategy(ops)
		return e.formatter.Document(doc.Text, doc)
	case narrateManual:
		doc := n.ManualSteps(ops)
		return e.formatter.Document(doc.Text, doc)
	default:
		res := n.Narrate(ops)
		var parts []string
		for _, text := range []string{res.Strategy.Text, res.Manual.Text} {
			if text != "" {
				parts = append(parts, text)
			}
		}
		return e.formatter.Document(strings.Join(parts, "\n\n"), res)
	}
}
