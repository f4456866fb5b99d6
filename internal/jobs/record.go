// Package jobs defines the canonical job records produced by the source
// adapters, their identity keys and the normalization applied before dedup.
package jobs

import (
	"fmt"
	"strings"
)

// Source identifies a job site
type Source string

const (
	SourceDou           Source = "dou"
	SourceDjinni        Source = "djinni"
	SourceGlobalLogic   Source = "globallogic"
	SourceBlackHatWorld Source = "blackhatworld"
)

// Sources lists every supported job site
var Sources = []Source{SourceDou, SourceDjinni, SourceGlobalLogic, SourceBlackHatWorld}

// ParseSource validates a source name
func ParseSource(s string) (Source, error) {
	for _, src := range Sources {
		if string(src) == strings.ToLower(strings.TrimSpace(s)) {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Key is the identity of a record within its source: the column names and
// values covered by the store's uniqueness constraint
type Key struct {
	Source  Source
	Columns []string
	Values  []any
}

// String renders the key as "col=value" pairs for logs
func (k Key) String() string {
	parts := make([]string, len(k.Columns))
	for i, col := range k.Columns {
		parts[i] = fmt.Sprintf("%s=%v", col, k.Values[i])
	}
	return string(k.Source) + "{" + strings.Join(parts, ", ") + "}"
}

// Record is one job posting. Implementations are DouJob, DjinniJob,
// GlobalLogicJob and BlackHatWorldJob.
type Record interface {
	Source() Source
	// Key returns the identity key projection
	Key() Key
	// Columns returns the persisted column names, in the order of Values
	Columns() []string
	Values() []any
}

// DouJob is a posting from jobs.dou.ua
type DouJob struct {
	Date       string `json:"date"`
	Title      string `json:"title"`
	Link       Field  `json:"link"`
	Company    string `json:"company"`
	Salary     Field  `json:"salary"`
	Cities     Field  `json:"cities"`
	ShortInfo  Field  `json:"sh_info"`
	Category   string `json:"category"`
	Experience string `json:"experience"`
}

func (j DouJob) Source() Source { return SourceDou }

func (j DouJob) Key() Key {
	return Key{
		Source:  SourceDou,
		Columns: []string{"title", "date", "company", "category"},
		Values:  []any{j.Title, j.Date, j.Company, j.Category},
	}
}

func (j DouJob) Columns() []string {
	return []string{"date", "title", "link", "company", "salary", "cities", "sh_info", "category", "experience"}
}

func (j DouJob) Values() []any {
	return []any{j.Date, j.Title, j.Link, j.Company, j.Salary, j.Cities, j.ShortInfo, j.Category, j.Experience}
}

// DjinniJob is an entry of a djinni.co RSS feed
type DjinniJob struct {
	Date        string `json:"date"`
	Title       Field  `json:"title"`
	Link        string `json:"link"`
	Description Field  `json:"description"`
	Category    Field  `json:"category"`
	// Label is the category the feed was queried for, e.g. "Python"
	Label string `json:"label"`
}

func (j DjinniJob) Source() Source { return SourceDjinni }

func (j DjinniJob) Key() Key {
	return Key{
		Source:  SourceDjinni,
		Columns: []string{"date", "link"},
		Values:  []any{j.Date, j.Link},
	}
}

func (j DjinniJob) Columns() []string {
	return []string{"date", "title", "link", "description", "category", "label"}
}

func (j DjinniJob) Values() []any {
	return []any{j.Date, j.Title, j.Link, j.Description, j.Category, j.Label}
}

// GlobalLogicJob is a posting from the GlobalLogic career search page
type GlobalLogicJob struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	Requirements Field  `json:"requirements"`
	Experience   string `json:"experience"`
}

func (j GlobalLogicJob) Source() Source { return SourceGlobalLogic }

func (j GlobalLogicJob) Key() Key {
	return Key{
		Source:  SourceGlobalLogic,
		Columns: []string{"title", "link"},
		Values:  []any{j.Title, j.Link},
	}
}

func (j GlobalLogicJob) Columns() []string {
	return []string{"title", "link", "requirements", "experience"}
}

func (j GlobalLogicJob) Values() []any {
	return []any{j.Title, j.Link, j.Requirements, j.Experience}
}

// BlackHatWorldJob is a thread from the BlackHatWorld "Hire a Freelancer" forum
type BlackHatWorldJob struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

func (j BlackHatWorldJob) Source() Source { return SourceBlackHatWorld }

func (j BlackHatWorldJob) Key() Key {
	return Key{
		Source:  SourceBlackHatWorld,
		Columns: []string{"link"},
		Values:  []any{j.Link},
	}
}

func (j BlackHatWorldJob) Columns() []string {
	return []string{"title", "link"}
}

func (j BlackHatWorldJob) Values() []any {
	return []any{j.Title, j.Link}
}
