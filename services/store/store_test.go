package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

func sampleDou() jobs.DouJob {
	return jobs.DouJob{
		Date:       "15 грудня",
		Title:      "python developer",
		Link:       jobs.Some("https://jobs.dou.ua/companies/acme/vacancies/1/"),
		Company:    "acme",
		Salary:     jobs.Missing(),
		Cities:     jobs.Some("Київ"),
		ShortInfo:  jobs.Some(""),
		Category:   "python",
		Experience: "1-3",
	}
}

func TestTablesMatchRecords(t *testing.T) {
	records := []jobs.Record{jobs.DouJob{}, jobs.DjinniJob{}, jobs.GlobalLogicJob{}, jobs.BlackHatWorldJob{}}
	for _, r := range records {
		tbl, err := tableFor(r.Source())
		require.NoError(t, err)
		assert.Equal(t, r.Columns(), tbl.columnNames(), r.Source())
		assert.Equal(t, r.Key().Columns, tbl.unique, r.Source())
	}
}

func TestSQLiteInitIdempotent(t *testing.T) {
	s := newSQLiteStore(t)
	assert.NoError(t, s.Init(context.Background()))
}

func TestSQLiteInsertAndExists(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	job := sampleDou()

	exists, err := s.Exists(ctx, job.Key())
	require.NoError(t, err)
	assert.False(t, exists)

	res, err := s.Insert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, Inserted, res)

	exists, err = s.Exists(ctx, job.Key())
	require.NoError(t, err)
	assert.True(t, exists)

	// same key with different display fields
	again := job
	again.Salary = jobs.Some("$3000")
	res, err = s.Insert(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, res)

	records, err := s.List(ctx, Query{Source: jobs.SourceDou})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, job, records[0])
}

func TestSQLiteMissingVersusEmpty(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.Insert(ctx, sampleDou())
	require.NoError(t, err)

	records, err := s.List(ctx, Query{Source: jobs.SourceDou})
	require.NoError(t, err)
	got := records[0].(jobs.DouJob)
	assert.False(t, got.Salary.Valid)
	assert.True(t, got.ShortInfo.Valid)
	assert.Equal(t, "", got.ShortInfo.String)
}

func TestSQLiteTxRollback(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	job := jobs.BlackHatWorldJob{Title: "Need a scraper", Link: "https://www.blackhatworld.com/seo/threads/1/"}

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	exists, err := tx.Exists(ctx, job.Key())
	require.NoError(t, err)
	assert.False(t, exists)

	res, err := tx.Insert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, Inserted, res)

	exists, err = tx.Exists(ctx, job.Key())
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, tx.Rollback(ctx))

	exists, err = s.Exists(ctx, job.Key())
	require.NoError(t, err)
	assert.False(t, exists)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Insert(ctx, job)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")

	exists, err = s.Exists(ctx, job.Key())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLiteList(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	inserts := []jobs.Record{
		jobs.DjinniJob{Date: "mon, 15 dec 2025 10:00:00 +0200", Title: jobs.Some("Python Dev"), Link: "https://djinni.co/jobs/1", Label: "Python"},
		jobs.DjinniJob{Date: "mon, 15 dec 2025 11:00:00 +0200", Title: jobs.Some("Go Dev"), Link: "https://djinni.co/jobs/2", Label: "Golang"},
		jobs.DjinniJob{Date: "tue, 16 dec 2025 09:00:00 +0200", Title: jobs.Some("Python Dev"), Link: "https://djinni.co/jobs/3", Label: "Python"},
	}
	for _, r := range inserts {
		_, err := s.Insert(ctx, r)
		require.NoError(t, err)
	}

	all, err := s.List(ctx, Query{Source: jobs.SourceDjinni})
	require.NoError(t, err)
	assert.Equal(t, inserts, all)

	python, err := s.List(ctx, Query{Source: jobs.SourceDjinni, Category: "python"})
	require.NoError(t, err)
	assert.Len(t, python, 2)

	sameTitle, err := s.List(ctx, Query{Source: jobs.SourceDjinni, Title: "python dev"})
	require.NoError(t, err)
	assert.Len(t, sameTitle, 2)

	limited, err := s.List(ctx, Query{Source: jobs.SourceDjinni, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, inserts[:1], limited)

	_, err = s.List(ctx, Query{Source: jobs.SourceBlackHatWorld, Category: "python"})
	assert.Equal(t, apperrors.ErrorTypeStore, apperrors.TypeOf(err))

	_, err = s.List(ctx, Query{Source: "linkedin"})
	assert.Error(t, err)
}

func TestSQLiteDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	_, err := s.Insert(ctx, jobs.GlobalLogicJob{Title: "go engineer", Link: "https://gl/1", Experience: "1-3"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, jobs.GlobalLogicJob{Title: "go engineer", Link: "https://gl/1", Experience: "3-5"})
	require.NoError(t, err)

	dups, err := s.Duplicates(ctx, jobs.SourceGlobalLogic)
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "jobs.db")
	job := jobs.BlackHatWorldJob{Title: "Need a parser", Link: "https://bhw/t/2"}

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))
	_, err = s.Insert(ctx, job)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init(ctx))
	exists, err := s.Exists(ctx, job.Key())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StoreLocation{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = Open(ctx, config.StoreLocation{Driver: "mysql"})
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestDialectPlaceholders(t *testing.T) {
	tbl, _ := tableFor(jobs.SourceGlobalLogic)
	r := jobs.GlobalLogicJob{}

	assert.Equal(t,
		"INSERT INTO gl_lg_jobs (title, link, requirements, experience) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING",
		postgresDialect.insertQuery(tbl, r))
	assert.Equal(t,
		"SELECT 1 FROM gl_lg_jobs WHERE title = ? AND link = ? LIMIT 1",
		sqliteDialect.existsQuery(tbl, r.Key()))
}

// This test requires a running PostgreSQL instance
// If JOBS_TEST_POSTGRES_DSN is not set, the test will be skipped
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("JOBS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Postgres is not available, skipping test")
	}
	ctx := context.Background()

	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init(ctx))

	job := sampleDou()
	job.Title = "postgres test " + t.Name()
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM dou_jobs WHERE title = $1", job.Title)
	})

	res, err := s.Insert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, Inserted, res)

	res, err = s.Insert(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, res)

	records, err := s.List(ctx, Query{Source: jobs.SourceDou, Title: job.Title})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, job, records[0])
}
