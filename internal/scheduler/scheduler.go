// Package scheduler runs the scrape cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/sqanatoliy/jobs-scraper/logger"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

// CycleFunc runs one full scrape cycle
type CycleFunc func(ctx context.Context)

// Scheduler wraps robfig/cron. A cycle still running when the next tick
// fires makes that tick a no-op, so runs never overlap.
type Scheduler struct {
	cron  *cron.Cron
	spec  string
	cycle CycleFunc
	job   cron.Job
	wg    sync.WaitGroup
	log   *logger.Logger
}

// New creates a scheduler firing on spec, e.g. "@every 30m" or "0 */2 * * *"
func New(spec string, cycle CycleFunc) *Scheduler {
	log := logger.ForScheduler()
	return &Scheduler{
		cron:  cron.New(cron.WithLogger(cronLogger{log: log})),
		spec:  spec,
		cycle: cycle,
		log:   log,
	}
}

// Start registers the cycle and starts the scheduler. One cycle runs
// immediately so the first results do not wait for the first tick. Ticks and
// the immediate cycle share the chain, so both recover from panics.
func (s *Scheduler) Start(ctx context.Context) error {
	cronLog := cronLogger{log: s.log}
	s.job = cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(func() {
		s.run(ctx)
	}))

	if _, err := s.cron.AddJob(s.spec, s.job); err != nil {
		return apperrors.NewConfiguration(fmt.Sprintf("invalid schedule %q", s.spec), err)
	}

	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("Cron started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
	return nil
}

// Stop stops the scheduler and returns a context that is done once the
// running cycle, if any, has finished
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	done, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		s.log.Info().Msg("Cron stopped")
		cancel()
	}()
	return done
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.log.Info().Msg("Scrape cycle started")
	s.cycle(ctx)
	s.log.Info().Msg("Scrape cycle complete")
}

// cronLogger adapts the structured logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
