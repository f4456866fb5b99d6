// Package notifier delivers job records to a chat and retries until delivery succeeds.
package notifier

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	"github.com/sqanatoliy/jobs-scraper/logger"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

// Sender posts one formatted message
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Policy controls retries of a failed send
type Policy struct {
	// MaxAttempts bounds send attempts; 0 retries until the context ends
	MaxAttempts int
	// RateLimitDefault is the wait after a rate limit response without a retry hint
	RateLimitDefault time.Duration
	// FailureBackoff is the wait after any other failure
	FailureBackoff time.Duration
}

// DefaultPolicy retries forever: the hinted delay on rate limits (5s without a
// hint) and 10s after any other failure
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:      0,
		RateLimitDefault: 5 * time.Second,
		FailureBackoff:   10 * time.Second,
	}
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Notifier formats records and delivers them through a Sender
type Notifier struct {
	sender  Sender
	policy  Policy
	limiter *rate.Limiter
	sleep   SleepFunc
	log     *logger.Logger
}

// New creates a notifier. A nil limiter disables send pacing.
func New(sender Sender, policy Policy, limiter *rate.Limiter) *Notifier {
	return &Notifier{
		sender:  sender,
		policy:  policy,
		limiter: limiter,
		sleep:   sleepContext,
		log:     logger.ForNotifier(),
	}
}

// NewLimiter paces sends to perSecond messages with no burst
func NewLimiter(perSecond float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// WithSleep replaces the wait between attempts
func (n *Notifier) WithSleep(sleep SleepFunc) *Notifier {
	n.sleep = sleep
	return n
}

// Notify delivers one record
func (n *Notifier) Notify(ctx context.Context, r jobs.Record) error {
	return n.Send(ctx, Format(r))
}

// Send delivers text, retrying per the policy. It returns nil only once the
// message was accepted.
func (n *Notifier) Send(ctx context.Context, text string) error {
	for attempt := 1; ; attempt++ {
		if n.limiter != nil {
			if err := n.limiter.Wait(ctx); err != nil {
				return apperrors.NewNotification(telegramProvider, "send cancelled", err)
			}
		}

		err := n.sender.Send(ctx, text)
		if err == nil {
			if attempt > 1 {
				n.log.Info().Int("attempt", attempt).Msg("Message delivered after retry")
			}
			return nil
		}

		wait := n.policy.FailureBackoff
		if apperrors.IsRateLimit(err) {
			wait = n.policy.RateLimitDefault
			if d, ok := apperrors.RetryAfter(err); ok {
				wait = d
			}
		}

		if n.policy.MaxAttempts > 0 && attempt >= n.policy.MaxAttempts {
			return apperrors.NewNotification(telegramProvider, fmt.Sprintf("gave up after %d attempts", attempt), err)
		}

		n.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Bool("rate_limited", apperrors.IsRateLimit(err)).
			Msg("Send failed, retrying")

		if err := n.sleep(ctx, wait); err != nil {
			return apperrors.NewNotification(telegramProvider, "send cancelled", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
