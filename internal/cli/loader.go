package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/roach88/xlnarrate/internal/config"
	"github.com/roach88/xlnarrate/internal/ir"
	"github.com/roach88/xlnarrate/internal/lookup"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeMissingInput  = "E003" // Required input flag absent
	ErrCodeReadFailed    = "E004" // File read error
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeDecodeFailed  = "E006" // Operation list could not be decoded
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeConfig        = "E008" // Config file invalid
	ErrCodeStore         = "E009" // Incident store failure
	ErrCodeWorkbook      = "E010" // Workbook could not be read
	ErrCodeFileMetadata  = "E011" // File collection JSON invalid
	ErrCodeEventStream   = "E012" // Event stream could not be parsed
	ErrCodeBTrackMissing = "E013" // No incident with the given id
)

// LoadError represents an error that occurred while loading a command input.
type LoadError struct {
	Code    string
	Message string
	File    string // source file, when known
	Line    int    // 1-based, 0 when unknown
	Column  int
	Step    int // 1-based operation index for decode errors
}

func (e *LoadError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader, what string) ([]byte, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeMissingInput, Message: fmt.Sprintf("%s file is required", what)}
	}
	if path == "-" {
		if stdin == nil {
			return nil, &LoadError{Code: ErrCodeMissingInput, Message: fmt.Sprintf("%s cannot be read from stdin", what)}
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s from stdin: %v", what, err)}
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s file not found: %s", what, path), File: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s file: %v", what, err), File: path}
	}
	return data, nil
}

// LoadOperations reads and decodes an operation list. Decode errors carry the
// offending step.
func LoadOperations(path string, stdin io.Reader) ([]ir.Operation, error) {
	data, err := readInput(path, stdin, "operations")
	if err != nil {
		return nil, err
	}
	ops, err := ir.UnmarshalOperations(data)
	if err != nil {
		le := &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error(), File: path}
		var de *ir.DecodeError
		if errors.As(err, &de) {
			le.Step = de.Index
		}
		return nil, le
	}
	return ops, nil
}

// LoadFiles builds the table metadata from a file collection JSON document
// and/or workbook headers given as ID=PATH. Workbooks override collection
// entries with the same id. Both absent yields an empty collection.
func LoadFiles(filesPath string, workbooks []string) (lookup.FileCollection, error) {
	files := lookup.FileCollection{}
	if filesPath != "" {
		data, err := readInput(filesPath, nil, "file collection")
		if err != nil {
			return nil, err
		}
		parsed, err := lookup.ParseFileCollection(data)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeFileMetadata, Message: err.Error(), File: filesPath}
		}
		files = parsed
	}
	if len(workbooks) > 0 {
		books, err := lookup.LoadWorkbooks(workbooks)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeWorkbook, Message: err.Error()}
		}
		files = files.Merge(books)
	}
	return files, nil
}

// LoadConfig loads the CUE config at path, converting schema errors to a
// positioned LoadError. An empty path yields the defaults.
func LoadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	var ce *config.Error
	if errors.As(err, &ce) {
		return config.Config{}, &LoadError{
			Code:    ErrCodeConfig,
			Message: ce.Message,
			File:    ce.File,
			Line:    ce.Line,
			Column:  ce.Column,
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path), File: path}
	}
	return config.Config{}, &LoadError{Code: ErrCodeConfig, Message: err.Error(), File: path}
}

// reportLoadError prints err through the formatter and converts it to a
// command error (exit code 2).
func reportLoadError(f *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		le = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	var details map[string]any
	if le.File != "" || le.Step > 0 {
		details = map[string]any{}
		if le.File != "" {
			details["file"] = le.File
		}
		if le.Line > 0 {
			details["line"] = le.Line
			details["column"] = le.Column
		}
		if le.Step > 0 {
			details["step"] = le.Step
		}
	}
	_ = f.Error(le.Code, le.Message, details)
	return WrapExitError(ExitCommandError, le.Code, le)
}
