package crawler

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	"github.com/sqanatoliy/jobs-scraper/logger"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
	"github.com/sqanatoliy/jobs-scraper/services/cache"
)

// BaseCrawler provides common functionality for all adapters
type BaseCrawler struct {
	Name      string
	Source    jobs.Source
	URL       string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Fetcher   *helpers.Fetcher
}

func (c *BaseCrawler) GetName() string        { return c.Name }
func (c *BaseCrawler) GetSource() jobs.Source { return c.Source }
func (c *BaseCrawler) GetURL() string         { return c.URL }

func (c *BaseCrawler) log() *logger.Logger {
	return logger.ForSource(c.Name)
}

// fetchWithCache fetches the adapter URL unless the site is cooling down after a
// rate limit response. A rate limit response starts the cooldown.
func (c *BaseCrawler) fetchWithCache(ctx context.Context) (io.Reader, error) {
	if c.CacheSvc != nil && c.CacheKey != "" {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			e := apperrors.NewRateLimit(c.Name, c.BlockTime)
			e.Message = fmt.Sprintf("%s is cooling down, no requests for %v", c.Source, c.BlockTime)
			return nil, e
		}
	}

	body, err := c.Fetcher.Fetch(ctx, c.URL)
	if err != nil {
		if apperrors.IsRateLimit(err) && c.CacheSvc != nil && c.CacheKey != "" {
			block := c.BlockTime
			if hint, ok := apperrors.RetryAfter(err); ok && hint > block {
				block = hint
			}
			// a zero expiration never expires in either cache
			if block > 0 {
				if cerr := c.CacheSvc.Set(c.CacheKey, []byte(fmt.Sprintf("%d", int(block.Seconds()))), block); cerr != nil {
					c.log().Warn().Err(cerr).Str("key", c.CacheKey).Msg("Failed to store fetch cooldown")
				}
			}
		}
		return nil, err
	}
	return body, nil
}

// createDocument creates a goquery document from a reader
func (c *BaseCrawler) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperrors.NewParsing(c.Name, "failed to parse HTML", err)
	}
	return doc, nil
}

// cardParser turns one card into a record. A nil record with a nil error
// means the card is filtered out.
type cardParser func(card *goquery.Selection) (jobs.Record, error)

// processCards parses cards in page order, skipping cards that fail, and
// returns the records oldest first
func (c *BaseCrawler) processCards(cards *goquery.Selection, parse cardParser) []jobs.Record {
	records := make([]jobs.Record, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		record, err := parse(card)
		if err != nil {
			c.log().Warn().Err(err).Int("card", i).Msg("Skipping malformed card")
			return
		}
		if record != nil {
			records = append(records, record)
		}
	})
	return helpers.Reverse(records)
}

// missing reports a card without a required field
func (c *BaseCrawler) missing(field string) error {
	return apperrors.NewParsing(c.Name, "card has no "+field, nil)
}

// text returns the trimmed text of the first match and whether there was one
func text(card *goquery.Selection, selector string) (string, bool) {
	sel := card.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// optional returns the text of the first match as a Field, missing when nothing matches
func optional(card *goquery.Selection, selector string) jobs.Field {
	if s, ok := text(card, selector); ok {
		return jobs.Some(s)
	}
	return jobs.Missing()
}

// absoluteURL resolves href against base
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	b, err := url.Parse(base)
	if err != nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
