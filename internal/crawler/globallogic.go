package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
)

const GlobalLogicSearchURL = "https://www.globallogic.com/career-search-page/"

// GlobalLogicCrawler reads the GlobalLogic career search results
type GlobalLogicCrawler struct {
	BaseCrawler
	filters config.GlobalLogicFilters
}

// BuildGlobalLogicURL builds the career search URL
func BuildGlobalLogicURL(f config.GlobalLogicFilters) string {
	base := f.BaseURL
	if base == "" {
		base = GlobalLogicSearchURL
	}

	u := base + "?keywords=" + url.QueryEscape(f.Keywords) +
		"&experience=" + url.QueryEscape(f.Experience) +
		"&locations=" + url.QueryEscape(f.Locations) +
		"&c="
	if f.Freelance {
		u += "&freelance=yes"
	}

	var models []string
	if f.Remote {
		models = append(models, "Remote")
	}
	if f.Hybrid {
		models = append(models, "Hybrid")
	}
	if f.OnSite {
		models = append(models, "On-site")
	}
	if len(models) > 0 {
		u += "&workmodel=" + strings.Join(models, ",")
	}
	return u
}

func NewGlobalLogicCrawler(name string, f config.GlobalLogicFilters, base BaseCrawler) *GlobalLogicCrawler {
	base.Name = name
	base.Source = jobs.SourceGlobalLogic
	base.URL = BuildGlobalLogicURL(f)
	return &GlobalLogicCrawler{BaseCrawler: base, filters: f}
}

// FetchJobs fetches and parses the search results
func (c *GlobalLogicCrawler) FetchJobs(ctx context.Context) ([]jobs.Record, error) {
	body, err := c.fetchWithCache(ctx)
	if err != nil {
		return []jobs.Record{}, err
	}
	doc, err := c.createDocument(body)
	if err != nil {
		return []jobs.Record{}, err
	}
	return c.processCards(doc.Find(globalLogicSelectors.List), c.parseCard), nil
}

func (c *GlobalLogicCrawler) parseCard(card *goquery.Selection) (jobs.Record, error) {
	titleSel := card.Find(globalLogicSelectors.Title).First()
	title := strings.TrimSpace(titleSel.Text())
	if title == "" {
		return nil, c.missing("title")
	}
	href, _ := titleSel.Attr("href")
	if strings.TrimSpace(href) == "" {
		return nil, c.missing("link")
	}

	return jobs.GlobalLogicJob{
		Title:        title,
		Link:         absoluteURL(c.URL, href),
		Requirements: optional(card, globalLogicSelectors.Requirements).Map(helpers.CollapseSpaces),
		Experience:   c.filters.Experience,
	}, nil
}
