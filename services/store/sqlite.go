package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	"github.com/sqanatoliy/jobs-scraper/logger"
)

// SQLiteStore is the embedded file store
type SQLiteStore struct {
	db      *sql.DB
	path    string
	dialect dialect
}

// OpenSQLite opens (creating if needed) the database file at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeError("", "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, storeError("", "failed to open sqlite database", err)
	}
	// a single writer connection keeps transactions serialized
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, path: path, dialect: sqliteDialect}, nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	for _, source := range jobs.Sources {
		t := tables[source]
		for _, stmt := range s.dialect.schema(t) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return storeError(source, "failed to create table "+t.name, err)
			}
		}
	}
	logger.ForStore().Debug().Str("path", s.path).Msg("SQLite schema ready")
	return nil
}

func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError("", "failed to begin transaction", err)
	}
	return &sqliteTx{tx: tx, dialect: s.dialect}, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, key jobs.Key) (bool, error) {
	return sqlExists(ctx, s.db, s.dialect, key)
}

func (s *SQLiteStore) Insert(ctx context.Context, r jobs.Record) (Result, error) {
	return insertOnce(ctx, s, r)
}

func (s *SQLiteStore) List(ctx context.Context, q Query) ([]jobs.Record, error) {
	t, err := tableFor(q.Source)
	if err != nil {
		return nil, storeError(q.Source, "invalid query", err)
	}
	query, args, err := s.dialect.listQuery(t, q)
	if err != nil {
		return nil, storeError(q.Source, "invalid query", err)
	}
	return sqlSelect(ctx, s.db, t, q.Source, query, args...)
}

func (s *SQLiteStore) Duplicates(ctx context.Context, source jobs.Source) ([]jobs.Record, error) {
	t, err := tableFor(source)
	if err != nil {
		return nil, storeError(source, "invalid query", err)
	}
	return sqlSelect(ctx, s.db, t, source, s.dialect.duplicatesQuery(t))
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	tx      *sql.Tx
	dialect dialect
}

func (t *sqliteTx) Exists(ctx context.Context, key jobs.Key) (bool, error) {
	return sqlExists(ctx, t.tx, t.dialect, key)
}

func (t *sqliteTx) Insert(ctx context.Context, r jobs.Record) (Result, error) {
	tbl, err := tableFor(r.Source())
	if err != nil {
		return Inserted, storeError(r.Source(), "invalid record", err)
	}
	res, err := t.tx.ExecContext(ctx, t.dialect.insertQuery(tbl, r), r.Values()...)
	if err != nil {
		return Inserted, storeError(r.Source(), "failed to insert record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Inserted, storeError(r.Source(), "failed to read affected rows", err)
	}
	if n == 0 {
		return Duplicate, nil
	}
	return Inserted, nil
}

func (t *sqliteTx) Commit(context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return storeError("", "failed to commit", err)
	}
	return nil
}

func (t *sqliteTx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return storeError("", "failed to roll back", err)
	}
	return nil
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func sqlExists(ctx context.Context, q sqlQuerier, d dialect, key jobs.Key) (bool, error) {
	t, err := tableFor(key.Source)
	if err != nil {
		return false, storeError(key.Source, "invalid key", err)
	}
	var one int
	err = q.QueryRowContext(ctx, d.existsQuery(t, key), key.Values...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, storeError(key.Source, "failed to check existence", err)
	}
	return true, nil
}

func sqlSelect(ctx context.Context, q sqlQuerier, t table, source jobs.Source, query string, args ...any) ([]jobs.Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(source, "failed to query "+t.name, err)
	}
	defer rows.Close()

	var records []jobs.Record
	for rows.Next() {
		targets, build := t.scanTargets()
		if err := rows.Scan(targets...); err != nil {
			return nil, storeError(source, "failed to scan "+t.name, err)
		}
		records = append(records, build())
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(source, "failed to read "+t.name, err)
	}
	return records, nil
}
