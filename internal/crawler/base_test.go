package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
	"github.com/sqanatoliy/jobs-scraper/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
	ttl   map[string]time.Duration
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
		ttl:   make(map[string]time.Duration),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	m.ttl[key] = expiration
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// fixtureServer serves testdata/name and counts requests
func fixtureServer(t *testing.T, name, contentType string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func testBase(c cache.CacheService) BaseCrawler {
	return BaseCrawler{
		CacheSvc:  c,
		BlockTime: 5 * time.Minute,
		Fetcher:   helpers.NewFetcher(5*time.Second, ""),
	}
}

func TestProcessCards(t *testing.T) {
	crawler := BaseCrawler{Name: "test"}

	html := `<html><body>
		<div class="job"><div class="title">Job 1</div></div>
		<div class="job"><div class="title"></div></div>
		<div class="job"><div class="title">Job 3</div></div>
		<div class="job"><div class="title">skip me</div></div>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	records := crawler.processCards(doc.Find("div.job"), func(s *goquery.Selection) (jobs.Record, error) {
		title := s.Find("div.title").Text()
		if title == "" {
			return nil, crawler.missing("title")
		}
		if title == "skip me" {
			return nil, nil
		}
		return jobs.BlackHatWorldJob{Title: title, Link: "https://x/" + title}, nil
	})

	require.Len(t, records, 2)
	assert.Equal(t, "Job 3", records[0].(jobs.BlackHatWorldJob).Title, "records come back oldest first")
	assert.Equal(t, "Job 1", records[1].(jobs.BlackHatWorldJob).Title)
}

func TestFetchWithCacheBlocksAfterRateLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "600")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	crawler := testBase(mockCache)
	crawler.Name = "dou-test"
	crawler.Source = jobs.SourceDou
	crawler.URL = server.URL
	crawler.CacheKey = CacheKey(jobs.SourceDou)

	_, err := crawler.fetchWithCache(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Equal(t, 10*time.Minute, mockCache.ttl["dou_rate_limited"], "a longer Retry-After extends the cooldown")

	_, err = crawler.fetchWithCache(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Contains(t, err.Error(), "cooling down")
	assert.Equal(t, int32(1), hits.Load(), "no request is sent during the cooldown")
}

func TestFetchWithCacheZeroBlockDoesNotLockOut(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	memory := cache.NewMemoryCache()
	crawler := testBase(memory)
	crawler.Name = "dou-test"
	crawler.Source = jobs.SourceDou
	crawler.URL = server.URL
	crawler.CacheKey = CacheKey(jobs.SourceDou)
	crawler.BlockTime = 0

	_, err := crawler.fetchWithCache(context.Background())
	assert.True(t, apperrors.IsRateLimit(err))
	_, err = memory.Get(crawler.CacheKey)
	assert.ErrorIs(t, err, cache.ErrMiss, "no cooldown without a duration")

	_, err = crawler.fetchWithCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchWithCacheNetworkErrorDoesNotBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	crawler := testBase(mockCache)
	crawler.URL = server.URL
	crawler.CacheKey = "x_rate_limited"

	_, err := crawler.fetchWithCache(context.Background())
	assert.True(t, apperrors.IsNetwork(err))
	assert.Empty(t, mockCache.cache)
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://www.blackhatworld.com/seo/threads/1/",
		absoluteURL("https://www.blackhatworld.com/forums/hire-a-freelancer.76/?order=post_date", "/seo/threads/1/"))
	assert.Equal(t, "https://jobs.dou.ua/companies/a/vacancies/1/",
		absoluteURL("https://other.example/", "https://jobs.dou.ua/companies/a/vacancies/1/"))
	assert.Equal(t, "", absoluteURL("https://x/", "  "))
}

func TestGetName(t *testing.T) {
	crawler := BaseCrawler{Name: "djinni-python", Source: jobs.SourceDjinni, URL: "https://djinni.co/jobs/rss/"}
	assert.Equal(t, "djinni-python", crawler.GetName())
	assert.Equal(t, jobs.SourceDjinni, crawler.GetSource())
	assert.Equal(t, "https://djinni.co/jobs/rss/", crawler.GetURL())
}
