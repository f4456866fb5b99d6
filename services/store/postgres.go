package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	"github.com/sqanatoliy/jobs-scraper/logger"
)

// PostgresStore keeps records in a PostgreSQL database
type PostgresStore struct {
	pool    *pgxpool.Pool
	dialect dialect
}

// OpenPostgres connects a pool to dsn and pings it
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, storeError("", "failed to create postgres pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storeError("", "failed to connect to postgres", err)
	}
	return &PostgresStore{pool: pool, dialect: postgresDialect}, nil
}

func (s *PostgresStore) Init(ctx context.Context) error {
	for _, source := range jobs.Sources {
		t := tables[source]
		for _, stmt := range s.dialect.schema(t) {
			if _, err := s.pool.Exec(ctx, stmt); err != nil {
				return storeError(source, "failed to create table "+t.name, err)
			}
		}
	}
	logger.ForStore().Debug().Msg("Postgres schema ready")
	return nil
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storeError("", "failed to begin transaction", err)
	}
	return &postgresTx{tx: tx, dialect: s.dialect}, nil
}

func (s *PostgresStore) Exists(ctx context.Context, key jobs.Key) (bool, error) {
	return pgExists(ctx, s.pool, s.dialect, key)
}

func (s *PostgresStore) Insert(ctx context.Context, r jobs.Record) (Result, error) {
	return insertOnce(ctx, s, r)
}

func (s *PostgresStore) List(ctx context.Context, q Query) ([]jobs.Record, error) {
	t, err := tableFor(q.Source)
	if err != nil {
		return nil, storeError(q.Source, "invalid query", err)
	}
	query, args, err := s.dialect.listQuery(t, q)
	if err != nil {
		return nil, storeError(q.Source, "invalid query", err)
	}
	return pgSelect(ctx, s.pool, t, q.Source, query, args...)
}

func (s *PostgresStore) Duplicates(ctx context.Context, source jobs.Source) ([]jobs.Record, error) {
	t, err := tableFor(source)
	if err != nil {
		return nil, storeError(source, "invalid query", err)
	}
	return pgSelect(ctx, s.pool, t, source, s.dialect.duplicatesQuery(t))
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type postgresTx struct {
	tx      pgx.Tx
	dialect dialect
}

func (t *postgresTx) Exists(ctx context.Context, key jobs.Key) (bool, error) {
	return pgExists(ctx, t.tx, t.dialect, key)
}

func (t *postgresTx) Insert(ctx context.Context, r jobs.Record) (Result, error) {
	tbl, err := tableFor(r.Source())
	if err != nil {
		return Inserted, storeError(r.Source(), "invalid record", err)
	}
	tag, err := t.tx.Exec(ctx, t.dialect.insertQuery(tbl, r), r.Values()...)
	if err != nil {
		return Inserted, storeError(r.Source(), "failed to insert record", err)
	}
	if tag.RowsAffected() == 0 {
		return Duplicate, nil
	}
	return Inserted, nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return storeError("", "failed to commit", err)
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return storeError("", "failed to roll back", err)
	}
	return nil
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func pgExists(ctx context.Context, q pgQuerier, d dialect, key jobs.Key) (bool, error) {
	t, err := tableFor(key.Source)
	if err != nil {
		return false, storeError(key.Source, "invalid key", err)
	}
	var one int
	err = q.QueryRow(ctx, d.existsQuery(t, key), key.Values...).Scan(&one)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, storeError(key.Source, "failed to check existence", err)
	}
	return true, nil
}

func pgSelect(ctx context.Context, q pgQuerier, t table, source jobs.Source, query string, args ...any) ([]jobs.Record, error) {
	rows, err := q.Query(ctx, query, args...)
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
