package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/kintree/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trees (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	people     INTEGER NOT NULL,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS trees_updated_at ON trees(updated_at);`

// SQLite stores records in a single-file SQLite database using the pure Go
// modernc.org/sqlite driver.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and ensures the schema.
// If path is empty, defaults to ~/.config/kintree/kintree.db
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "kintree", "kintree.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "create db dir")
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open db")
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping db")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "migrate db")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, r Record) error {
	if err := validateID(r.ID); err != nil {
		return err
	}
	doc, err := json.Marshal(r.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trees (id, name, people, document, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			people = excluded.people,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		r.ID, r.Name, len(r.Document.Nodes), string(doc), r.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save tree %s", r.ID)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, id string) (Record, error) {
	var (
		r       Record
		doc     string
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, document, updated_at FROM trees WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &doc, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return Record{}, NotFound(id)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeStorage, err, "load tree %s", id)
	}
	if err := json.Unmarshal([]byte(doc), &r.Document); err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeStorage, err, "parse tree %s", id)
	}
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return r, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trees WHERE id = ?`, id); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete tree %s", id)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, people, updated_at FROM trees`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list trees")
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.People, &updated); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan tree")
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list trees")
	}
	sortSummaries(out)
	return out, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

var _ Store = (*SQLite)(nil)
