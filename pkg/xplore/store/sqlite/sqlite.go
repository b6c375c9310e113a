package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
	"github.com/cognicore/xplore/pkg/xplore/store"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates
// the schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	schema_path TEXT NOT NULL,
	started_at TEXT NOT NULL,
	concept_count INTEGER NOT NULL,
	row_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS concepts (
	run_id TEXT NOT NULL,
	pos INTEGER NOT NULL,
	id TEXT NOT NULL,
	name TEXT NOT NULL,
	english TEXT NOT NULL,
	japanese TEXT NOT NULL,
	data_type TEXT NOT NULL,
	substitution_group TEXT NOT NULL,
	balance TEXT NOT NULL,
	PRIMARY KEY(run_id, pos),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_concepts_id ON concepts(run_id, id);

CREATE TABLE IF NOT EXISTS relation_rows (
	run_id TEXT NOT NULL,
	pos INTEGER NOT NULL,
	parent TEXT NOT NULL,
	child TEXT NOT NULL,
	parent_english TEXT NOT NULL,
	parent_japanese TEXT NOT NULL,
	child_english TEXT NOT NULL,
	child_japanese TEXT NOT NULL,
	data_type TEXT NOT NULL,
	substitution_group TEXT NOT NULL,
	balance TEXT NOT NULL,
	PRIMARY KEY(run_id, pos),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_rows_parent ON relation_rows(run_id, parent);
CREATE INDEX IF NOT EXISTS idx_rows_child ON relation_rows(run_id, child);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes a run, its catalog and its rows in one transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.Info.ID == "" {
		return fmt.Errorf("%w: run id is required", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id = ?`, r.Info.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: run %s", internalerr.ErrDuplicate, r.Info.ID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, schema_path, started_at, concept_count, row_count) VALUES (?, ?, ?, ?, ?)`,
		r.Info.ID,
		r.Info.Schema,
		r.Info.StartedAt.UTC().Format(time.RFC3339Nano),
		len(r.Concepts),
		len(r.Rows),
	)
	if err != nil {
		return err
	}

	if err := insertConcepts(ctx, tx, r.Info.ID, r.Concepts); err != nil {
		return fmt.Errorf("insert concepts: %w", err)
	}
	if err := insertRows(ctx, tx, r.Info.ID, r.Rows); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}

	return tx.Commit()
}

func insertConcepts(ctx context.Context, tx *sql.Tx, runID string, concepts []xbrl.Concept) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO concepts (run_id, pos, id, name, english, japanese, data_type, substitution_group, balance)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range concepts {
		if _, err := stmt.ExecContext(ctx, runID, i, c.ID, c.Name, c.English, c.Japanese, c.DataType, c.SubstitutionGroup, c.Balance); err != nil {
			return err
		}
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, runID string, rows []xbrl.Row) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO relation_rows (run_id, pos, parent, child, parent_english, parent_japanese,
	child_english, child_japanese, data_type, substitution_group, balance)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID, i,
			r.Parent, r.Child,
			r.ParentEnglish, r.ParentJapanese,
			r.ChildEnglish, r.ChildJapanese,
			r.DataType, r.SubstitutionGroup, r.Balance,
		); err != nil {
			return err
		}
	}
	return nil
}

const runColumns = `id, schema_path, started_at, concept_count, row_count`

// GetRun returns the run with the given id
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.RunInfo, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.RunInfo{}, false, nil
	}
	if err != nil {
		return store.RunInfo{}, false, err
	}
	return info, true, nil
}

// LatestRun returns the run with the greatest id
func (s *sqliteStore) LatestRun(ctx context.Context) (store.RunInfo, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT 1`)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.RunInfo{}, false, nil
	}
	if err != nil {
		return store.RunInfo{}, false, err
	}
	return info, true, nil
}

// ListRuns returns every run, newest id first
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteRun removes a run together with its catalog and rows
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so children are removed explicitly
	for _, q := range []string{
		`DELETE FROM relation_rows WHERE run_id = ?`,
		`DELETE FROM concepts WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return false, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.RunInfo, error) {
	var (
		info    store.RunInfo
		started string
	)
	if err := sc.Scan(&info.ID, &info.Schema, &started, &info.Concepts, &info.Rows); err != nil {
		return store.RunInfo{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return store.RunInfo{}, fmt.Errorf("parse started_at of run %s: %w", info.ID, err)
	}
	info.StartedAt = t
	return info, nil
}

func (s *sqliteStore) requireRun(ctx context.Context, runID string) error {
	_, ok, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	return nil
}

const conceptColumns = `id, name, english, japanese, data_type, substitution_group, balance`

func scanConcept(sc scanner) (xbrl.Concept, error) {
	var c xbrl.Concept
	err := sc.Scan(&c.ID, &c.Name, &c.English, &c.Japanese, &c.DataType, &c.SubstitutionGroup, &c.Balance)
	return c, err
}

// Concepts returns the catalog of a run in schema order
func (s *sqliteStore) Concepts(ctx context.Context, runID string) ([]xbrl.Concept, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conceptColumns+` FROM concepts WHERE run_id = ? ORDER BY pos`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []xbrl.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetConcept returns the last concept declared with id in a run
func (s *sqliteStore) GetConcept(ctx context.Context, runID, id string) (xbrl.Concept, bool, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return xbrl.Concept{}, false, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+conceptColumns+` FROM concepts WHERE run_id = ? AND id = ? ORDER BY pos DESC LIMIT 1`,
		runID, id)
	c, err := scanConcept(row)
	if errors.Is(err, sql.ErrNoRows) {
		return xbrl.Concept{}, false, nil
	}
	if err != nil {
		return xbrl.Concept{}, false, err
	}
	return c, true, nil
}

// Rows returns the relation rows of a run matching q, in table order
func (s *sqliteStore) Rows(ctx context.Context, runID string, q store.RowQuery) ([]xbrl.Row, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return nil, err
	}

	var (
		where = []string{"run_id = ?"}
		args  = []any{runID}
	)
	if q.Parent != "" {
		where = append(where, "parent = ?")
		args = append(args, q.Parent)
	}
	if q.Child != "" {
		where = append(where, "child = ?")
		args = append(args, q.Child)
	}

	query := `
SELECT parent, child, parent_english, parent_japanese, child_english, child_japanese,
	data_type, substitution_group, balance
FROM relation_rows
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY pos`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []xbrl.Row
	for rows.Next() {
		var r xbrl.Row
		if err := rows.Scan(
			&r.Parent, &r.Child,
			&r.ParentEnglish, &r.ParentJapanese,
			&r.ChildEnglish, &r.ChildJapanese,
			&r.DataType, &r.SubstitutionGroup, &r.Balance,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
