package crawler

import (
	"context"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
)

// Adapter fetches the current postings of one configured scraper
type Adapter interface {
	// FetchJobs retrieves raw records, oldest first. A fetch failure returns
	// no records and the error; a malformed card is skipped.
	FetchJobs(ctx context.Context) ([]jobs.Record, error)

	// GetName returns the scraper name for logging and identification
	GetName() string

	// GetSource returns the job site the adapter reads
	GetSource() jobs.Source

	// GetURL returns the page or feed the adapter fetches
	GetURL() string
}

// Selectors contains CSS selectors for the elements of a job list page
type Selectors struct {
	List         string
	Date         string
	Title        string
	Company      string
	Salary       string
	Cities       string
	Info         string
	Requirements string
}

var (
	douSelectors = Selectors{
		List:    "ul > li.l-vacancy",
		Date:    "div.date",
		Title:   "div.title > a",
		Company: "div.title > strong",
		Salary:  "span.salary",
		Cities:  "span.cities",
		Info:    "div.sh-info",
	}

	globalLogicSelectors = Selectors{
		List:         "div.career-pagelink",
		Title:        "p > a",
		Requirements: "p.id-num",
	}

	blackHatWorldSelectors = Selectors{
		List:  "div.structItem.structItem--thread.js-inlineModContainer",
		Title: "div.structItem-title a",
	}
)
