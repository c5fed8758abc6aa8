// Package config loads xlnarrate settings from a CUE file. The file is
// unified with an embedded closed schema, so unknown fields and out-of-range
// values are rejected, and decoded over the defaults.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/xlnarrate/internal/formula"
)

//go:embed schema.cue
var schemaSrc string

// Config is the full set of settings.
type Config struct {
	Formula FormulaConfig `json:"formula"`
	Log     LogConfig     `json:"log"`
	Store   StoreConfig   `json:"store"`
}

// FormulaConfig mirrors formula.Options.
type FormulaConfig struct {
	FullRange  string `json:"full_range"`
	FitToTable bool   `json:"fit_to_table"`
	SampleRow  int    `json:"sample_row"`
}

// LogConfig selects the log level and an optional JSON log file.
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// StoreConfig locates the incident database.
type StoreConfig struct {
	Path string `json:"path"`
}

// DefaultStorePath is the incident database used when none is configured.
const DefaultStorePath = "xlnarrate.db"

// Default returns the built-in settings.
func Default() Config {
	opts := formula.DefaultOptions()
	return Config{
		Formula: FormulaConfig{
			FullRange:  opts.FullRange,
			FitToTable: opts.FitToTable,
			SampleRow:  opts.SampleRow,
		},
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Path: DefaultStorePath},
	}
}

// Error is a configuration error with the CUE position when known.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	if e.File != "" {
		return e.File + ": " + e.Message
	}
	return e.Message
}

// Load reads and validates the CUE file at path. An empty path returns
// Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Parse validates CUE source and decodes it over Default(). filename is used
// in error positions only.
func Parse(filename string, src []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return Config{}, toError(filename, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, toError(filename, err)
	}

	cfg := Default()
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, toError(filename, err)
	}
	return cfg, nil
}

// toError converts the first CUE error to an *Error, positioned in the
// user's file when CUE reports such a position.
func toError(filename string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{File: filename, Message: err.Error()}
	}
	first := errs[0]

	e := &Error{File: filename, Message: strings.TrimSpace(first.Error())}
	for _, pos := range cueerrors.Positions(first) {
		if pos.IsValid() && pos.Filename() == filename {
			e.Line, e.Column = pos.Line(), pos.Column()
			break
		}
	}
	return e
}

// FormulaOptions returns the formula rendering options.
func (c Config) FormulaOptions() formula.Options {
	return formula.Options{
		FullRange:  c.Formula.FullRange,
		FitToTable: c.Formula.FitToTable,
		SampleRow:  c.Formula.SampleRow,
	}
}

// LogLevel parses Log.Level, defaulting to info.
func (c Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
