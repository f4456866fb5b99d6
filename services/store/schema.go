package store

import (
	"fmt"
	"strings"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
)

type column struct {
	name    string
	notNull bool
}

// table maps a record variant onto its SQL table
type table struct {
	name    string
	columns []column
	unique  []string
	// filter columns for List, empty when the source has none
	categoryColumn string
	titleColumn    string
	build          func(row map[string]jobs.Field) jobs.Record
}

var tables = map[jobs.Source]table{
	jobs.SourceDou: {
		name: "dou_jobs",
		columns: []column{
			{"date", true}, {"title", true}, {"link", false}, {"company", true}, {"salary", false},
			{"cities", false}, {"sh_info", false}, {"category", true}, {"experience", true},
		},
		unique:         []string{"title", "date", "company", "category"},
		categoryColumn: "category",
		titleColumn:    "title",
		build: func(row map[string]jobs.Field) jobs.Record {
			return jobs.DouJob{
				Date:       row["date"].String,
				Title:      row["title"].String,
				Link:       row["link"],
				Company:    row["company"].String,
				Salary:     row["salary"],
				Cities:     row["cities"],
				ShortInfo:  row["sh_info"],
				Category:   row["category"].String,
				Experience: row["experience"].String,
			}
		},
	},
	jobs.SourceDjinni: {
		name: "djinni_jobs",
		columns: []column{
			{"date", true}, {"title", false}, {"link", true}, {"description", false}, {"category", false}, {"label", true},
		},
		unique:         []string{"date", "link"},
		categoryColumn: "label",
		titleColumn:    "title",
		build: func(row map[string]jobs.Field) jobs.Record {
			return jobs.DjinniJob{
				Date:        row["date"].String,
				Title:       row["title"],
				Link:        row["link"].String,
				Description: row["description"],
				Category:    row["category"],
				Label:       row["label"].String,
			}
		},
	},
	jobs.SourceGlobalLogic: {
		name: "gl_lg_jobs",
		columns: []column{
			{"title", true}, {"link", true}, {"requirements", false}, {"experience", true},
		},
		unique:         []string{"title", "link"},
		categoryColumn: "experience",
		titleColumn:    "title",
		build: func(row map[string]jobs.Field) jobs.Record {
			return jobs.GlobalLogicJob{
				Title:        row["title"].String,
				Link:         row["link"].String,
				Requirements: row["requirements"],
				Experience:   row["experience"].String,
			}
		},
	},
	jobs.SourceBlackHatWorld: {
		name: "black_hat_world_jobs",
		columns: []column{
			{"title", true}, {"link", true},
		},
		unique:      []string{"link"},
		titleColumn: "title",
		build: func(row map[string]jobs.Field) jobs.Record {
			return jobs.BlackHatWorldJob{
				Title: row["title"].String,
				Link:  row["link"].String,
			}
		},
	},
}

// dialect renders the statements that differ between backends
type dialect struct {
	idColumn    string
	placeholder func(n int) string
}

var (
	sqliteDialect = dialect{
		idColumn:    "id INTEGER PRIMARY KEY AUTOINCREMENT",
		placeholder: func(int) string { return "?" },
	}
	postgresDialect = dialect{
		idColumn:    "id BIGSERIAL PRIMARY KEY",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

func tableFor(source jobs.Source) (table, error) {
	t, ok := tables[source]
	if !ok {
		return table{}, fmt.Errorf("no table for source %q", source)
	}
	return t, nil
}

func (t table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

func (d dialect) schema(t table) []string {
	defs := []string{d.idColumn}
	for _, c := range t.columns {
		def := c.name + " TEXT"
		if c.notNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	defs = append(defs,
		"created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
		"UNIQUE ("+strings.Join(t.unique, ", ")+")",
	)

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(defs, ",\n\t")),
	}
	if t.categoryColumn != "" {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			t.name, t.categoryColumn, t.name, t.categoryColumn))
	}
	return stmts
}

func (d dialect) existsQuery(t table, key jobs.Key) string {
	conds := make([]string, len(key.Columns))
	for i, col := range key.Columns {
		conds[i] = fmt.Sprintf("%s = %s", col, d.placeholder(i+1))
	}
	return fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", t.name, strings.Join(conds, " AND "))
}

func (d dialect) insertQuery(t table, r jobs.Record) string {
	cols := r.Columns()
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		t.name, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func (d dialect) listQuery(t table, q Query) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	if q.Category != "" {
		if t.categoryColumn == "" {
			return "", nil, fmt.Errorf("source %q has no category column", q.Source)
		}
		args = append(args, strings.ToLower(strings.TrimSpace(q.Category)))
		conds = append(conds, fmt.Sprintf("LOWER(%s) = %s", t.categoryColumn, d.placeholder(len(args))))
	}
	if q.Title != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(q.Title)))
		conds = append(conds, fmt.Sprintf("LOWER(%s) = %s", t.titleColumn, d.placeholder(len(args))))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.columnNames(), ", "), t.name)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return query, args, nil
}

func (d dialect) duplicatesQuery(t table) string {
	key := strings.Join(t.unique, ", ")
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE (%s) IN (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1) ORDER BY id",
		strings.Join(t.columnNames(), ", "), t.name, key, key, t.name, key)
}

// scanTargets returns pointers for one row and a function rebuilding the record from them
func (t table) scanTargets() ([]any, func() jobs.Record) {
	fields := make([]jobs.Field, len(t.columns))
	targets := make([]any, len(fields))
	for i := range fields {
		targets[i] = &fields[i]
	}
	return targets, func() jobs.Record {
		row := make(map[string]jobs.Field, len(fields))
		for i, c := range t.columns {
			row[c.name] = fields[i]
		}
		return t.build(row)
	}
}
