package publisher

import (
	"context"
	"encoding/json"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
)

// Publisher hands newly stored jobs to downstream consumers
type Publisher interface {
	// Publish publishes a message under a key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// Event is the payload published for every job that was stored and announced
type Event struct {
	Source  jobs.Source `json:"source"`
	Scraper string      `json:"scraper"`
	RunID   string      `json:"run_id"`
	Job     any         `json:"job"`
}

// NewEvent builds the event of a record. Missing optional fields encode as null.
func NewEvent(scraper, runID string, r jobs.Record) Event {
	return Event{Source: r.Source(), Scraper: scraper, RunID: runID, Job: r}
}

// Marshal encodes the event as JSON
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Nop discards everything. It is used when no stream is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) TrimStreams(context.Context) error             { return nil }
func (Nop) Close() error                                  { return nil }
