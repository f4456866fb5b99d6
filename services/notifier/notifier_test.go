package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

// MockSender is a mock implementation of Sender
type MockSender struct {
	mu       sync.Mutex
	errs     []error
	messages []string
}

func (m *MockSender) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	if len(m.errs) == 0 {
		return nil
	}
	err := m.errs[0]
	m.errs = m.errs[1:]
	return err
}

type recordingSleep struct {
	waits []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func TestNotifierDeliversFirstTry(t *testing.T) {
	sender := &MockSender{}
	sleeps := &recordingSleep{}
	n := New(sender, DefaultPolicy(), nil).WithSleep(sleeps.sleep)

	err := n.Notify(context.Background(), jobs.BlackHatWorldJob{Title: "Need a scraper", Link: "https://bhw/t/1"})
	require.NoError(t, err)
	assert.Len(t, sender.messages, 1)
	assert.Empty(t, sleeps.waits)
}

func TestNotifierRetryWaits(t *testing.T) {
	sender := &MockSender{errs: []error{
		apperrors.NewRateLimit("telegram", 3*time.Second),
		apperrors.NewRateLimit("telegram", 0),
		apperrors.NewNotification("telegram", "bad gateway", errors.New("502")),
	}}
	sleeps := &recordingSleep{}
	n := New(sender, DefaultPolicy(), nil).WithSleep(sleeps.sleep)

	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, []time.Duration{3 * time.Second, 5 * time.Second, 10 * time.Second}, sleeps.waits)
	assert.Len(t, sender.messages, 4)
}

func TestNotifierMaxAttempts(t *testing.T) {
	failure := apperrors.NewNotification("telegram", "down", errors.New("connection refused"))
	sender := &MockSender{errs: []error{failure, failure, failure, failure}}
	sleeps := &recordingSleep{}
	policy := DefaultPolicy()
	policy.MaxAttempts = 3
	n := New(sender, policy, nil).WithSleep(sleeps.sleep)

	err := n.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeNotification, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
	assert.Len(t, sender.messages, 3)
	assert.Len(t, sleeps.waits, 2)
}

func TestNotifierUnboundedStopsOnCancel(t *testing.T) {
	failure := apperrors.NewNotification("telegram", "down", nil)
	errs := make([]error, 50)
	for i := range errs {
		errs[i] = failure
	}
	sender := &MockSender{errs: errs}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	n := New(sender, DefaultPolicy(), nil).WithSleep(func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 5 {
			cancel()
		}
		return ctx.Err()
	})

	err := n.Send(ctx, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sender.messages, 5)
}

func TestNotifierLimiterHonorsContext(t *testing.T) {
	sender := &MockSender{}
	n := New(sender, DefaultPolicy(), rate.NewLimiter(rate.Every(time.Hour), 1))

	require.NoError(t, n.Send(context.Background(), "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := n.Send(ctx, "second")
	assert.Error(t, err)
	assert.Len(t, sender.messages, 1)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

// fakeBotAPI serves sendMessage, answering with the queued failure bodies first
type fakeBotAPI struct {
	mu       sync.Mutex
	failures []string
	requests []map[string]string
}

func (f *fakeBotAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		f.mu.Lock()
		defer f.mu.Unlock()

		f.requests = append(f.requests, map[string]string{
			"path":                     r.URL.Path,
			"chat_id":                  r.PostForm.Get("chat_id"),
			"text":                     r.PostForm.Get("text"),
			"parse_mode":               r.PostForm.Get("parse_mode"),
			"disable_web_page_preview": r.PostForm.Get("disable_web_page_preview"),
		})

		w.Header().Set("Content-Type", "application/json")
		if len(f.failures) > 0 {
			body := f.failures[0]
			f.failures = f.failures[1:]
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":-100123,"type":"channel"},"text":"ok"}}`)
	}
}

func TestTelegramSenderRateLimitRetry(t *testing.T) {
	api := &fakeBotAPI{failures: []string{
		`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`,
	}}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	sender, err := NewTelegramSender("123:abc", "-100123", server.URL+"/bot%s/%s", 5*time.Second)
	require.NoError(t, err)
	sleeps := &recordingSleep{}
	n := New(sender, DefaultPolicy(), nil).WithSleep(sleeps.sleep)

	require.NoError(t, n.Notify(context.Background(), jobs.BlackHatWorldJob{Title: "Need a scraper", Link: "https://bhw/t/1"}))

	assert.Equal(t, []time.Duration{3 * time.Second}, sleeps.waits)
	require.Len(t, api.requests, 2)
	req := api.requests[1]
	assert.Equal(t, "/bot123:abc/sendMessage", req["path"])
	assert.Equal(t, "-100123", req["chat_id"])
	assert.Equal(t, "MarkdownV2", req["parse_mode"])
	assert.Equal(t, "true", req["disable_web_page_preview"])
	assert.Equal(t, "BlackHatWorld Freelance\n[Need a scraper](https://bhw/t/1)", req["text"])
}

func TestTelegramSenderErrors(t *testing.T) {
	api := &fakeBotAPI{failures: []string{
		`{"ok":false,"error_code":429,"description":"Too Many Requests"}`,
		`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`,
	}}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	sender, err := NewTelegramSender("123:abc", "@jobs_channel", server.URL+"/bot%s/%s", 5*time.Second)
	require.NoError(t, err)

	err = sender.Send(context.Background(), "x")
	assert.True(t, apperrors.IsRateLimit(err))
	_, hinted := apperrors.RetryAfter(err)
	assert.False(t, hinted)

	err = sender.Send(context.Background(), "x")
	assert.Equal(t, apperrors.ErrorTypeNotification, apperrors.TypeOf(err))
	assert.Equal(t, "@jobs_channel", api.requests[0]["chat_id"])
}

func TestNewTelegramSenderValidation(t *testing.T) {
	_, err := NewTelegramSender("", "-1", "", time.Second)
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = NewTelegramSender("123:abc", "not-a-number", "", time.Second)
	assert.True(t, apperrors.IsConfiguration(err))
}
