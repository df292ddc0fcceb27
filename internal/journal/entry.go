package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one recorded update.
type Entry struct {
	ID          string    `json:"id"`
	Seq         int64     `json:"seq"`
	Fingerprint string    `json:"fingerprint"`
	DocumentID  string    `json:"document_id"`
	Fields      []string  `json:"fields"`
	Diff        []string  `json:"diff"`
	CreatedAt   time.Time `json:"created_at"`
}

// Append stores e and returns it with ID, Seq and CreatedAt filled in.
// A caller-supplied ID is kept; appending the same ID twice is an error.
func (j *Journal) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.DocumentID == "" {
		return Entry{}, fmt.Errorf("append: document id is required")
	}
	if e.ID == "" {
		e.ID = j.ids.Generate()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now().UTC()
	}

	fields, err := marshalLines(e.Fields)
	if err != nil {
		return Entry{}, fmt.Errorf("append: %w", err)
	}
	diff, err := marshalLines(e.Diff)
	if err != nil {
		return Entry{}, fmt.Errorf("append: %w", err)
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO update_journal
		(entry_id, fingerprint, document_id, fields, diff, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.Fingerprint,
		e.DocumentID,
		fields,
		diff,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append: %w", err)
	}
	if e.Seq, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("append: %w", err)
	}
	return e, nil
}

// Get returns the entry with the given id.
func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, selectEntries+` WHERE entry_id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// List returns the most recent entries, newest first. limit <= 0 returns
// every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := selectEntries + ` ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return j.query(ctx, "list", query, args...)
}

// ByDocument returns every entry for a document, oldest first.
func (j *Journal) ByDocument(ctx context.Context, documentID string) ([]Entry, error) {
	return j.query(ctx, "by document", selectEntries+` WHERE document_id = ? ORDER BY seq ASC`, documentID)
}

// ByFingerprint returns every entry written for one request, oldest first.
func (j *Journal) ByFingerprint(ctx context.Context, fingerprint string) ([]Entry, error) {
	return j.query(ctx, "by fingerprint", selectEntries+` WHERE fingerprint = ? ORDER BY seq ASC`, fingerprint)
}

const selectEntries = `
	SELECT seq, entry_id, fingerprint, document_id, fields, diff, created_at
	FROM update_journal`

func (j *Journal) query(ctx context.Context, op, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e            Entry
		fields, diff string
		createdAt    string
	)
	if err := s.Scan(&e.Seq, &e.ID, &e.Fingerprint, &e.DocumentID, &fields, &diff, &createdAt); err != nil {
		return Entry{}, err
	}
	var err error
	if e.Fields, err = unmarshalLines(fields); err != nil {
		return Entry{}, fmt.Errorf("fields: %w", err)
	}
	if e.Diff, err = unmarshalLines(diff); err != nil {
		return Entry{}, fmt.Errorf("diff: %w", err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Entry{}, fmt.Errorf("created_at: %w", err)
	}
	return e, nil
}

func marshalLines(lines []string) (string, error) {
	if lines == nil {
		lines = []string{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalLines(data string) ([]string, error) {
	var lines []string
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
