package crawler

import (
	"context"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

const (
	DjinniFeedURL = "https://djinni.co/jobs/rss/"

	maxDjinniDescription = 300
)

// DjinniCrawler reads a djinni.co RSS feed
type DjinniCrawler struct {
	BaseCrawler
	filters config.DjinniFilters
	parser  *gofeed.Parser
}

// BuildDjinniURL returns the configured feed URL or the keyword feed
func BuildDjinniURL(f config.DjinniFilters) string {
	if f.FeedURL != "" {
		return f.FeedURL
	}
	return DjinniFeedURL + "?primary_keyword=" + url.QueryEscape(f.Keyword)
}

func NewDjinniCrawler(name string, f config.DjinniFilters, base BaseCrawler) *DjinniCrawler {
	base.Name = name
	base.Source = jobs.SourceDjinni
	base.URL = BuildDjinniURL(f)
	return &DjinniCrawler{BaseCrawler: base, filters: f, parser: gofeed.NewParser()}
}

// FetchJobs fetches the feed and maps its items
func (c *DjinniCrawler) FetchJobs(ctx context.Context) ([]jobs.Record, error) {
	body, err := c.fetchWithCache(ctx)
	if err != nil {
		return []jobs.Record{}, err
	}
	feed, err := c.parser.Parse(body)
	if err != nil {
		return []jobs.Record{}, apperrors.NewParsing(c.Name, "failed to parse RSS feed", err)
	}

	records := make([]jobs.Record, 0, len(feed.Items))
	for i, item := range feed.Items {
		record, err := c.parseItem(item)
		if err != nil {
			c.log().Warn().Err(err).Int("item", i).Msg("Skipping malformed feed item")
			continue
		}
		records = append(records, record)
	}
	return helpers.Reverse(records), nil
}

func (c *DjinniCrawler) parseItem(item *gofeed.Item) (jobs.Record, error) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return nil, c.missing("link")
	}
	date := strings.TrimSpace(item.Published)
	if date == "" {
		return nil, c.missing("published date")
	}

	job := jobs.DjinniJob{
		Date:  date,
		Link:  link,
		Label: c.filters.Label,
	}
	if title := strings.TrimSpace(item.Title); title != "" {
		job.Title = jobs.Some(title)
	}
	if item.Description != "" {
		job.Description = jobs.Some(helpers.Truncate(htmlToText(item.Description), maxDjinniDescription))
	}
	if len(item.Categories) > 0 {
		job.Category = jobs.Some(strings.Join(item.Categories, ", "))
	}
	return job, nil
}

// htmlToText unescapes an HTML fragment and returns its text content
func htmlToText(fragment string) string {
	unescaped := html.UnescapeString(fragment)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return unescaped
	}
	return strings.TrimSpace(doc.Text())
}
