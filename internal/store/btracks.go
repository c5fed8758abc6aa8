package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/xlnarrate/internal/btrack"
)

// ErrNotFound is returned when a record ID does not exist.
var ErrNotFound = errors.New("btrack not found")

const btrackColumns = `id, reporter_id, reporter_name, thread_turn_id, generation_prompt,
	steps, errors, cause, fixed, created_at`

// WriteBTrack inserts an incident record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteBTrack(ctx context.Context, r btrack.Record) error {
	steps, err := marshalSteps(r.Steps)
	if err != nil {
		return fmt.Errorf("write btrack: %w", err)
	}
	errs, err := marshalErrors(r.Errors)
	if err != nil {
		return fmt.Errorf("write btrack: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO btracks (`+btrackColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.ReporterID,
		r.ReporterName,
		r.ThreadTurnID,
		r.GenerationPrompt,
		steps,
		errs,
		r.Cause,
		r.Fixed,
		marshalTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("write btrack: %w", err)
	}
	return nil
}

// ReadBTrack retrieves a single record by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) ReadBTrack(ctx context.Context, id string) (btrack.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+btrackColumns+` FROM btracks WHERE id = ?`, id)
	r, err := scanBTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return btrack.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// ListBTracks returns one page of records, newest first, plus the total
// number matching the filter.
func (s *Store) ListBTracks(ctx context.Context, opts btrack.ListOptions) (btrack.Page, error) {
	opts = opts.Normalize()
	where, args := fixedFilter(opts.Fixed)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM btracks`+where, args...).Scan(&total); err != nil {
		return btrack.Page{}, fmt.Errorf("count btracks: %w", err)
	}

	items, err := s.queryBTracks(ctx, where+` ORDER BY created_at DESC, id COLLATE BINARY ASC LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return btrack.Page{}, err
	}

	return btrack.Page{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// AllBTracks returns every record matching the fixed filter, newest first.
// Used by export.
func (s *Store) AllBTracks(ctx context.Context, fixed *bool) ([]btrack.Record, error) {
	where, args := fixedFilter(fixed)
	return s.queryBTracks(ctx, where+` ORDER BY created_at DESC, id COLLATE BINARY ASC`, args...)
}

// MarkFixed sets a record's fixed flag and, when cause is non-nil, its cause.
// Returns ErrNotFound if the record does not exist.
func (s *Store) MarkFixed(ctx context.Context, id string, fixed bool, cause *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE btracks SET fixed = ?, cause = COALESCE(?, cause) WHERE id = ?
	`, fixed, cause, id)
	if err != nil {
		return fmt.Errorf("mark fixed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark fixed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func fixedFilter(fixed *bool) (string, []any) {
	if fixed == nil {
		return "", nil
	}
	return ` WHERE fixed = ?`, []any{*fixed}
}

func (s *Store) queryBTracks(ctx context.Context, tail string, args ...any) ([]btrack.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+btrackColumns+` FROM btracks`+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("query btracks: %w", err)
	}
	defer rows.Close()

	records := []btrack.Record{}
	for rows.Next() {
		r, err := scanBTrack(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate btracks: %w", err)
	}
	return records, nil
}

// scanner is the subset of *sql.Row and *sql.Rows used by scanBTrack.
type scanner interface {
	Scan(dest ...any) error
}

func scanBTrack(sc scanner) (btrack.Record, error) {
	var (
		r         btrack.Record
		steps     string
		errs      string
		cause     sql.NullString
		createdAt string
	)
	err := sc.Scan(&r.ID, &r.ReporterID, &r.ReporterName, &r.ThreadTurnID, &r.GenerationPrompt,
		&steps, &errs, &cause, &r.Fixed, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return btrack.Record{}, err
		}
		return btrack.Record{}, fmt.Errorf("scan btrack: %w", err)
	}

	if strings.TrimSpace(steps) == "" {
		steps = "[]"
	}
	r.Steps = json.RawMessage(steps)
	r.Errors = btrack.ParseErrors(errs)
	if cause.Valid {
		c := cause.String
		r.Cause = &c
	}
	if r.CreatedAt, err = unmarshalTime(createdAt); err != nil {
		return btrack.Record{}, err
	}
	return r, nil
}
