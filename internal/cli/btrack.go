package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/xlnarrate/internal/btrack"
	"github.com/roach88/xlnarrate/internal/pipeline"
	"github.com/roach88/xlnarrate/internal/store"
)

// BTrackOptions holds flags shared by the btrack subcommands.
type BTrackOptions struct {
	*RootOptions
	DB string // overrides the config's store.path

	recorder *btrack.Recorder
	clock    btrack.Clock
}

// NewBTrackCommand creates the btrack command group.
func NewBTrackCommand(rootOpts *RootOptions) *cobra.Command {
	return newBTrackCommand(&BTrackOptions{RootOptions: rootOpts})
}

func newBTrackCommand(opts *BTrackOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "btrack",
		Short: "Record and review failed generations",
		Long: `Keep a local SQLite record of generations that went wrong.

A record captures the reporter, the generation prompt, the step log of the
pipeline event stream and the errors collected from it. Records can be
listed, marked fixed with a cause, and exported as JSON.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "incident database (default from config)")

	cmd.AddCommand(newBTrackRecordCommand(opts))
	cmd.AddCommand(newBTrackListCommand(opts))
	cmd.AddCommand(newBTrackExportCommand(opts))
	cmd.AddCommand(newBTrackFixCommand(opts))

	return cmd
}

// openStore builds the env and opens the incident database.
func (o *BTrackOptions) openStore(cmd *cobra.Command) (*env, *store.Store, error) {
	e, err := newEnv(o.RootOptions, cmd)
	if err != nil {
		return nil, nil, err
	}
	path := o.DB
	if path == "" {
		path = e.cfg.Store.Path
	}
	st, err := store.Open(path)
	if err != nil {
		e.Close()
		_ = e.formatter.Error(ErrCodeStore, err.Error(), map[string]string{"db": path})
		return nil, nil, WrapExitError(ExitCommandError, "open store", err)
	}
	e.log.Debug("store opened", "db", path)
	return e, st, nil
}

func (o *BTrackOptions) now() time.Time {
	if o.clock != nil {
		return o.clock.Now()
	}
	return btrack.SystemClock{}.Now()
}

func storeError(e *env, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		_ = e.formatter.Error(ErrCodeBTrackMissing, err.Error(), nil)
		return WrapExitError(ExitFailure, ErrCodeBTrackMissing, err)
	}
	_ = e.formatter.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitCommandError, ErrCodeStore, err)
}

// parseStatus maps --status to the fixed filter.
func parseStatus(status string) (*bool, error) {
	switch status {
	case "", "all":
		return nil, nil
	case "fixed":
		fixed := true
		return &fixed, nil
	case "open":
		fixed := false
		return &fixed, nil
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q: must be one of all, fixed, open", status))
	}
}

type recordFlags struct {
	Events       string
	ReporterID   string
	ReporterName string
	Turn         string
	Prompt       string
}

func newBTrackRecordCommand(opts *BTrackOptions) *cobra.Command {
	flags := &recordFlags{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a failed generation from its event stream",
		Long: `Record a failed generation.

--events is the pipeline's server-sent event stream as captured from the
wire (- for stdin). Its step events become the record's step log; errors
are collected from error-status steps, system error events and the
complete step's output.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBTrackRecord(opts, flags, cmd)
		},
	}

	cmd.Flags().StringVar(&flags.Events, "events", "", "event stream file (- for stdin)")
	cmd.Flags().StringVar(&flags.ReporterID, "reporter-id", "", "reporter id")
	cmd.Flags().StringVar(&flags.ReporterName, "reporter", "", "reporter name")
	cmd.Flags().StringVar(&flags.Turn, "turn", "", "thread turn id")
	cmd.Flags().StringVar(&flags.Prompt, "prompt", "", "generation prompt")

	return cmd
}

func runBTrackRecord(opts *BTrackOptions, flags *recordFlags, cmd *cobra.Command) error {
	e, st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	defer st.Close()

	data, err := readInput(flags.Events, cmd.InOrStdin(), "events")
	if err != nil {
		return reportLoadError(e.formatter, err)
	}
	events, err := pipeline.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return reportLoadError(e.formatter, &LoadError{Code: ErrCodeEventStream, Message: err.Error(), File: flags.Events})
	}
	e.formatter.VerboseLog("Decoded %d event(s)", len(events))

	recorder := opts.recorder
	if recorder == nil {
		recorder = btrack.NewRecorder(nil, nil)
	}
	rec, err := recorder.New(btrack.Report{
		ReporterID:       flags.ReporterID,
		ReporterName:     flags.ReporterName,
		ThreadTurnID:     flags.Turn,
		GenerationPrompt: flags.Prompt,
		Events:           events,
	})
	if err != nil {
		return reportLoadError(e.formatter, &LoadError{Code: ErrCodeEventStream, Message: err.Error(), File: flags.Events})
	}

	if err := st.WriteBTrack(cmd.Context(), rec); err != nil {
		return storeError(e, err)
	}
	e.log.Info("btrack recorded", "id", rec.ID, "errors", len(rec.Errors))

	if e.formatter.Format == "json" {
		return e.formatter.Success(rec)
	}
	fmt.Fprintf(e.formatter.Writer, "✓ recorded %s (%d error(s))\n", rec.ID, len(rec.Errors))
	return nil
}

type listFlags struct {
	Status string
	Limit  int
	Offset int
}

func newBTrackListCommand(opts *BTrackOptions) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recorded incidents, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBTrackList(opts, flags, cmd)
		},
	}

	cmd.Flags().StringVar(&flags.Status, "status", "all", "filter by status (all|fixed|open)")
	cmd.Flags().IntVar(&flags.Limit, "limit", btrack.DefaultLimit, fmt.Sprintf("page size (max %d)", btrack.MaxLimit))
	cmd.Flags().IntVar(&flags.Offset, "offset", 0, "records to skip")

	return cmd
}

func runBTrackList(opts *BTrackOptions, flags *listFlags, cmd *cobra.Command) error {
	fixed, err := parseStatus(flags.Status)
	if err != nil {
		return err
	}
	e, st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	defer st.Close()

	page, err := st.ListBTracks(cmd.Context(), btrack.ListOptions{Fixed: fixed, Limit: flags.Limit, Offset: flags.Offset})
	if err != nil {
		return storeError(e, err)
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(page)
	}

	w := e.formatter.Writer
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No incidents found.")
		return nil
	}
	for _, r := range page.Items {
		status := "open"
		if r.Fixed {
			status = "fixed"
		}
		fmt.Fprintf(w, "%s  %s  %-5s  %d error(s)  %s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), status, len(r.Errors), r.ReporterName)
		if r.Cause != nil {
			fmt.Fprintf(w, "  cause: %s\n", *r.Cause)
		}
	}
	fmt.Fprintf(w, "\nShowing %d-%d of %d\n", page.Offset+1, page.Offset+len(page.Items), page.Total)
	return nil
}

type exportFlags struct {
	Status string
	Out    string
	Dir    string
}

func newBTrackExportCommand(opts *BTrackOptions) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export incidents as JSON",
		Long: `Export incidents as an indented JSON array.

Records without a thread turn are skipped. Without --out the export is
written to btracks_export_<timestamp>.json in --dir.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBTrackExport(opts, flags, cmd)
		},
	}

	cmd.Flags().StringVar(&flags.Status, "status", "all", "filter by status (all|fixed|open)")
	cmd.Flags().StringVarP(&flags.Out, "out", "o", "", "output file (- for stdout)")
	cmd.Flags().StringVar(&flags.Dir, "dir", ".", "directory for the default export file name")

	return cmd
}

func runBTrackExport(opts *BTrackOptions, flags *exportFlags, cmd *cobra.Command) error {
	fixed, err := parseStatus(flags.Status)
	if err != nil {
		return err
	}
	e, st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	defer st.Close()

	records, err := st.AllBTracks(cmd.Context(), fixed)
	if err != nil {
		return storeError(e, err)
	}

	if flags.Out == "-" {
		return btrack.Export(e.formatter.Writer, records)
	}

	path := flags.Out
	if path == "" {
		path = filepath.Join(flags.Dir, btrack.ExportFilename(opts.now()))
	}
	f, err := os.Create(path)
	if err != nil {
		_ = e.formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
	}
	if err := btrack.Export(f, records); err != nil {
		f.Close()
		_ = e.formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		_ = e.formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
	}

	exported := len(btrack.ExportEntries(records))
	e.log.Info("btracks exported", "path", path, "count", exported)
	if e.formatter.Format == "json" {
		return e.formatter.Success(map[string]any{"path": path, "count": exported})
	}
	fmt.Fprintf(e.formatter.Writer, "✓ exported %d incident(s) to %s\n", exported, path)
	return nil
}

type fixFlags struct {
	Cause  string
	Reopen bool
}

func newBTrackFixCommand(opts *BTrackOptions) *cobra.Command {
	flags := &fixFlags{}

	cmd := &cobra.Command{
		Use:           "fix <id>",
		Short:         "Mark an incident fixed, optionally recording its cause",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBTrackFix(opts, flags, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&flags.Cause, "cause", "", "root cause (kept when empty)")
	cmd.Flags().BoolVar(&flags.Reopen, "reopen", false, "mark the incident open again")

	return cmd
}

func runBTrackFix(opts *BTrackOptions, flags *fixFlags, id string, cmd *cobra.Command) error {
	e, st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	defer st.Close()

	var cause *string
	if flags.Cause != "" {
		cause = &flags.Cause
	}
	if err := st.MarkFixed(cmd.Context(), id, !flags.Reopen, cause); err != nil {
		return storeError(e, err)
	}

	rec, err := st.ReadBTrack(cmd.Context(), id)
	if err != nil {
		return storeError(e, err)
	}
	if e.formatter.Format == "json" {
		return e.formatter.Success(rec)
	}
	status := "fixed"
	if !rec.Fixed {
		status = "open"
	}
	fmt.Fprintf(e.formatter.Writer, "✓ %s marked %s\n", id, status)
	return nil
}
