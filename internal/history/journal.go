// Package history keeps a journal of every intercepted save so edits can be
// audited after the fact.
package history

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Journal struct {
	db *sql.DB
}

// Entry is one journaled save.
type Entry struct {
	Document string
	Trigger  string
	Size     int
	SavedAt  time.Time
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) Init(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}
	version, err := j.currentVersion(ctx)
	if err != nil {
		return err
	}
	if version != schemaVersion {
		return j.setVersion(ctx, schemaVersion)
	}
	return nil
}

func (j *Journal) currentVersion(ctx context.Context) (int, error) {
	var v int
	err := j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (j *Journal) setVersion(ctx context.Context, v int) error {
	if _, err := j.db.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO saves(document, trigger_name, size, saved_at) VALUES(?, ?, ?, ?)",
		e.Document, e.Trigger, e.Size, e.SavedAt.Unix())
	return err
}

// RecordSave journals a save without propagating failures; a broken journal
// must not fail the save itself.
func (j *Journal) RecordSave(document, trigger string, size int) {
	err := j.Record(context.Background(), Entry{Document: document, Trigger: trigger, Size: size})
	if err != nil {
		slog.Error("save journal write failed", "doc", document, "err", err)
	}
}

// Recent returns the newest entries across all documents, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT document, trigger_name, size, saved_at
		FROM saves ORDER BY saved_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForDocument returns a single document's entries, newest first.
func (j *Journal) ForDocument(ctx context.Context, document string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT document, trigger_name, size, saved_at
		FROM saves WHERE document=? ORDER BY saved_at DESC, id DESC LIMIT ?`, document, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Forget drops a document's entries. Used when the document is deleted.
func (j *Journal) Forget(ctx context.Context, document string) error {
	_, err := j.db.ExecContext(ctx, "DELETE FROM saves WHERE document=?", document)
	return err
}

// Move reassigns a document's entries after a rename.
func (j *Journal) Move(ctx context.Context, from, to string) error {
	_, err := j.db.ExecContext(ctx, "UPDATE saves SET document=? WHERE document=?", to, from)
	return err
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.Document, &e.Trigger, &e.Size, &at); err != nil {
			return nil, err
		}
		e.SavedAt = time.Unix(at, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
