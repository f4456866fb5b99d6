package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/crawler"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	"github.com/sqanatoliy/jobs-scraper/logger"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
	"github.com/sqanatoliy/jobs-scraper/services/publisher"
	"github.com/sqanatoliy/jobs-scraper/services/store"
)

// Notifier delivers one record to the scraper's chat
type Notifier interface {
	Notify(ctx context.Context, r jobs.Record) error
}

// Scraper is everything one configured scraper needs for a run
type Scraper struct {
	Config   config.ScraperConfig
	Adapter  crawler.Adapter
	Store    store.Store
	Notifier Notifier
}

// Status is the terminal state of one record in a run
type Status int

const (
	// Inserted: stored, announced and committed
	Inserted Status = iota
	// Skipped: already stored
	Skipped
	// Duplicate: the insert hit the uniqueness constraint
	Duplicate
	// Failed: rolled back, retried on the next run
	Failed
)

func (s Status) String() string {
	switch s {
	case Inserted:
		return "inserted"
	case Skipped:
		return "skipped"
	case Duplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// Outcome is the result of one record
type Outcome struct {
	Key    jobs.Key
	Status Status
	Err    error
}

// RunSummary collects the outcomes of one scraper run
type RunSummary struct {
	RunID      string
	Scraper    string
	Source     jobs.Source
	Fetched    int
	Inserted   int
	Skipped    int
	Duplicates int
	Failed     int
	// FetchErr is the recovered fetch failure, if any
	FetchErr error
	// Interrupted is set when the context ended before every record was handled
	Interrupted bool
	Outcomes    []Outcome
	Elapsed     time.Duration
}

func (s *RunSummary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case Inserted:
		s.Inserted++
	case Skipped:
		s.Skipped++
	case Duplicate:
		s.Duplicates++
	default:
		s.Failed++
	}
}

func (s RunSummary) String() string {
	return fmt.Sprintf("%s: fetched=%d inserted=%d skipped=%d duplicates=%d failed=%d",
		s.Scraper, s.Fetched, s.Inserted, s.Skipped, s.Duplicates, s.Failed)
}

// Worker runs scrapers: fetch, normalize, check, insert, notify and commit per record
type Worker struct {
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
	log       *logger.Logger
	newRunID  func() string
}

// NewWorker creates a new worker. A nil publisher disables event publishing.
func NewWorker(pub publisher.Publisher, errLog helpers.LoggerInterface) *Worker {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &Worker{
		publisher: pub,
		logger:    errLog,
		log:       logger.ForWorker(),
		newRunID:  uuid.NewString,
	}
}

// RunAll runs the scrapers one after another, then trims the publisher streams
func (w *Worker) RunAll(ctx context.Context, scrapers []Scraper) []RunSummary {
	summaries := make([]RunSummary, 0, len(scrapers))
	for _, s := range scrapers {
		if ctx.Err() != nil {
			break
		}
		summaries = append(summaries, w.Run(ctx, s))
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
	return summaries
}

// Run performs one run of a scraper. It never fails: fetch failures yield an
// empty run and record failures are isolated to that record.
func (w *Worker) Run(ctx context.Context, s Scraper) RunSummary {
	start := time.Now()
	name := s.Adapter.GetName()
	summary := RunSummary{
		RunID:   w.newRunID(),
		Scraper: name,
		Source:  s.Adapter.GetSource(),
	}
	log := w.log.WithFields(logger.Fields{"scraper": name, "run_id": summary.RunID})

	records, err := s.Adapter.FetchJobs(ctx)
	if err != nil {
		summary.FetchErr = err
		w.logger.LogError(name, err)
		if apperrors.IsRateLimit(err) {
			log.Warn().Err(err).Msg("Source is rate limited, nothing fetched this run")
		}
	}
	summary.Fetched = len(records)

	for _, raw := range records {
		if ctx.Err() != nil {
			summary.Interrupted = true
			log.Warn().Err(ctx.Err()).Int("remaining", summary.Fetched-len(summary.Outcomes)).Msg("Run interrupted")
			break
		}

		outcome := w.process(ctx, s, summary.RunID, raw)
		summary.add(outcome)

		switch outcome.Status {
		case Inserted:
			log.Info().Stringer("key", outcome.Key).Msg("New job stored and announced")
		case Skipped:
			log.Debug().Stringer("key", outcome.Key).Msg("Job already stored")
		case Duplicate:
			log.Warn().Err(outcome.Err).Stringer("key", outcome.Key).Msg("Duplicate job entry detected")
		case Failed:
			w.logger.LogError(name, fmt.Errorf("%s: %w", outcome.Key, outcome.Err))
		}
	}

	summary.Elapsed = time.Since(start)
	log.Info().
		Int("fetched", summary.Fetched).
		Int("inserted", summary.Inserted).
		Int("skipped", summary.Skipped).
		Int("duplicates", summary.Duplicates).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("Run finished")
	return summary
}

// process handles one record inside its own store transaction. Anything that
// goes wrong before the commit rolls the transaction back.
func (w *Worker) process(ctx context.Context, s Scraper, runID string, raw jobs.Record) (outcome Outcome) {
	record := jobs.Normalize(raw)
	outcome.Key = record.Key()

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = Failed
			outcome.Err = fmt.Errorf("panic while handling record: %v", r)
		}
	}()

	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return failed(outcome, err)
	}
	defer tx.Rollback(ctx)

	exists, err := tx.Exists(ctx, outcome.Key)
	if err != nil {
		return failed(outcome, err)
	}
	if exists {
		outcome.Status = Skipped
		return outcome
	}

	res, err := tx.Insert(ctx, record)
	if err != nil {
		return failed(outcome, err)
	}
	if res == store.Duplicate {
		outcome.Status = Duplicate
		outcome.Err = apperrors.NewDuplicate(s.Adapter.GetName(), "insert rejected by uniqueness constraint")
		return outcome
	}

	if err := s.Notifier.Notify(ctx, record); err != nil {
		return failed(outcome, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return failed(outcome, err)
	}
	outcome.Status = Inserted

	w.publish(ctx, s.Adapter.GetName(), runID, record)
	return outcome
}

func failed(o Outcome, err error) Outcome {
	o.Status = Failed
	o.Err = err
	return o
}

// publish hands the stored record to the event stream. Failures are logged only.
func (w *Worker) publish(ctx context.Context, scraper, runID string, r jobs.Record) {
	data, err := publisher.NewEvent(scraper, runID, r).Marshal()
	if err != nil {
		w.logger.LogError(scraper, apperrors.NewPublisher(scraper, "failed to encode event", err))
		return
	}
	if err := w.publisher.Publish(ctx, string(r.Source()), data); err != nil {
		w.logger.LogError(scraper, err)
	}
}
