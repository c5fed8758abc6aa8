// Package narrate renders an operation list as prose: the strategy document
// explaining the plan, and the manual-steps document reproducing it by hand
// with an optional spreadsheet-365 formula appendix.
//
// Narration is a pure function of (operations, table metadata). It never
// fails: unresolved files, tables and columns degrade to raw identifiers,
// unknown kinds to generic text.
package narrate

import (
	"log/slog"

	"github.com/roach88/xlnarrate/internal/formula"
	"github.com/roach88/xlnarrate/internal/ir"
	"github.com/roach88/xlnarrate/internal/logging"
	"github.com/roach88/xlnarrate/internal/lookup"
)

// Document is a rendered narration.
type Document struct {
	Text   string `json:"text"`
	Steps  int    `json:"steps"`
	Digest string `json:"digest,omitempty"` // snapshot identity, see ir.Digest
}

// FormulaEntry is one spreadsheet-365 equivalent from the manual appendix.
type FormulaEntry struct {
	Step        int      `json:"step"`
	Description string   `json:"description"`
	Formula     string   `json:"formula"`
	References  []string `json:"references,omitempty"`
	Functions   []string `json:"functions,omitempty"`
}

// ManualDocument is the manual-steps narration plus its collected formulas.
type ManualDocument struct {
	Document
	Formulas []FormulaEntry `json:"formulas,omitempty"`
}

// Result bundles both narrations of one snapshot.
type Result struct {
	Strategy Document       `json:"strategy"`
	Manual   ManualDocument `json:"manual"`
}

// Narrator renders operation lists against one Lookup. It holds no mutable
// state and is safe for concurrent use.
type Narrator struct {
	lookup   lookup.Lookup
	compiler *formula.Compiler
	logger   *slog.Logger
}

// Option configures a Narrator.
type Option func(*narratorConfig)

type narratorConfig struct {
	formula formula.Options
	logger  *slog.Logger
}

// WithLogger sets the logger used for degraded lookups (debug level).
func WithLogger(l *slog.Logger) Option {
	return func(c *narratorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFormulaOptions sets the formula rendering options.
func WithFormulaOptions(o formula.Options) Option {
	return func(c *narratorConfig) {
		c.formula = o
	}
}

// New creates a Narrator. A nil Lookup resolves nothing.
func New(l lookup.Lookup, opts ...Option) *Narrator {
	cfg := narratorConfig{
		formula: formula.DefaultOptions(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Narrator{
		lookup:   l,
		compiler: formula.NewCompiler(l, cfg.formula),
		logger:   cfg.logger,
	}
}

// Strategy renders the strategy document with default options.
func Strategy(ops []ir.Operation, l lookup.Lookup) Document {
	return New(l).Strategy(ops)
}

// ManualSteps renders the manual-steps document with default options.
func ManualSteps(ops []ir.Operation, l lookup.Lookup) ManualDocument {
	return New(l).ManualSteps(ops)
}

// Narrate renders both documents over the same snapshot.
func (n *Narrator) Narrate(ops []ir.Operation) Result {
	return Result{
		Strategy: n.Strategy(ops),
		Manual:   n.ManualSteps(ops),
	}
}

// filename resolves a file id for display, logging when it cannot.
func (n *Narrator) filename(step int, fileID, fallback string) string {
	name := lookup.FilenameOr(n.lookup, fileID, fallback)
	if name == fallback && fileID != "" {
		n.logger.Debug("file unresolved", "step", step, "file_id", fileID)
	}
	return name
}

// noteTable logs when a table whose columns a formula needs cannot be
// resolved. Rendering falls back to MATCH-based references.
func (n *Narrator) noteTable(step int, op ir.Operation) {
	ref := formula.RefOf(op)
	if _, ok := lookup.Columns(n.lookup, ref.FileID, ref.Table); !ok {
		n.logger.Debug("table unresolved", "step", step, "file_id", ref.FileID, "table", ref.Table)
	}
}

// digest computes the snapshot identity over the operations and the table
// metadata the narration read.
func (n *Narrator) digest(ops []ir.Operation) string {
	d, err := ir.Digest(ops, n.snapshot(ops))
	if err != nil {
		n.logger.Warn("digest failed", "error", err)
		return ""
	}
	return d
}

// snapshot collects the resolved metadata of every file and table the
// operations target, in FileCollection shape.
func (n *Narrator) snapshot(ops []ir.Operation) lookup.FileCollection {
	files := lookup.FileCollection{}
	if n.lookup == nil {
		return files
	}
	for _, op := range ops {
		ref := formula.RefOf(op)
		if ref.FileID == "" {
			continue
		}
		f, err := n.lookup.File(ref.FileID)
		if err != nil {
			continue
		}
		entry, ok := files[ref.FileID]
		if !ok {
			entry = lookup.FileEntry{Filename: f.Filename, Tables: map[string]lookup.Table{}}
		}
		if t, err := n.lookup.Table(ref.FileID, ref.Table); err == nil {
			entry.Tables[ref.Table] = t
		}
		files[ref.FileID] = entry
	}
	return files
}
