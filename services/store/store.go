// Package store persists job records and answers dedup queries.
package store

import (
	"context"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

// Result is the outcome of an insert
type Result int

const (
	// Inserted means a new row was written
	Inserted Result = iota
	// Duplicate means the identity key already existed and nothing was written
	Duplicate
)

func (r Result) String() string {
	if r == Duplicate {
		return "duplicate"
	}
	return "inserted"
}

// Query filters List results. Category and Title match case-insensitively.
type Query struct {
	Source   jobs.Source
	Category string
	Title    string
	Limit    int
}

// Store is a job record store with one table per source
type Store interface {
	// Init creates tables and indexes if they do not exist
	Init(ctx context.Context) error

	// Begin starts the per-record transaction covering check, insert and notify
	Begin(ctx context.Context) (Tx, error)

	// Exists reports whether a record with this identity key is stored
	Exists(ctx context.Context, key jobs.Key) (bool, error)

	// Insert stores a record in its own transaction
	Insert(ctx context.Context, r jobs.Record) (Result, error)

	// List returns stored records of one source in insertion order
	List(ctx context.Context, q Query) ([]jobs.Record, error)

	// Duplicates returns rows whose identity key occurs more than once
	Duplicates(ctx context.Context, source jobs.Source) ([]jobs.Record, error)

	Close() error
}

// Tx is a store transaction. Rollback after Commit is a no-op.
type Tx interface {
	Exists(ctx context.Context, key jobs.Key) (bool, error)
	Insert(ctx context.Context, r jobs.Record) (Result, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Open connects to the store at loc. Init is not called.
func Open(ctx context.Context, loc config.StoreLocation) (Store, error) {
	switch loc.Driver {
	case config.DriverSQLite:
		s, err := OpenSQLite(loc.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := OpenPostgres(ctx, loc.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, apperrors.NewConfiguration("unknown store driver "+loc.Driver, nil)
	}
}

// insertOnce wraps a single insert in its own transaction
func insertOnce(ctx context.Context, s Store, r jobs.Record) (Result, error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return Inserted, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Insert(ctx, r)
	if err != nil {
		return res, err
	}
	if err := tx.Commit(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func storeError(source jobs.Source, message string, err error) error {
	return apperrors.NewStore(string(source), message, err)
}
