package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
)

const (
	BlackHatWorldURL       = "https://www.blackhatworld.com"
	blackHatWorldForumPath = "/forums/hire-a-freelancer.76/?order=post_date&direction=desc"
)

// BlackHatWorldCrawler reads the "Hire a Freelancer" forum and keeps threads
// whose title mentions one of the keywords
type BlackHatWorldCrawler struct {
	BaseCrawler
	keywords []string
}

// BuildBlackHatWorldURL returns the forum listing URL, newest threads first
func BuildBlackHatWorldURL(f config.BlackHatWorldFilters) string {
	base := f.BaseURL
	if base == "" {
		base = BlackHatWorldURL
	}
	return strings.TrimRight(base, "/") + blackHatWorldForumPath
}

func NewBlackHatWorldCrawler(name string, f config.BlackHatWorldFilters, base BaseCrawler) *BlackHatWorldCrawler {
	base.Name = name
	base.Source = jobs.SourceBlackHatWorld
	base.URL = BuildBlackHatWorldURL(f)

	keywords := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &BlackHatWorldCrawler{BaseCrawler: base, keywords: keywords}
}

// FetchJobs fetches the forum page and returns matching threads
func (c *BlackHatWorldCrawler) FetchJobs(ctx context.Context) ([]jobs.Record, error) {
	body, err := c.fetchWithCache(ctx)
	if err != nil {
		return []jobs.Record{}, err
	}
	doc, err := c.createDocument(body)
	if err != nil {
		return []jobs.Record{}, err
	}

	cards := doc.Find(blackHatWorldSelectors.List)
	c.log().Debug().Int("threads", cards.Length()).Msg("Forum page parsed")
	return c.processCards(cards, c.parseCard), nil
}

func (c *BlackHatWorldCrawler) parseCard(card *goquery.Selection) (jobs.Record, error) {
	titleSel := card.Find(blackHatWorldSelectors.Title).First()
	title := helpers.CollapseSpaces(titleSel.Text())
	if title == "" {
		return nil, c.missing("title")
	}
	href, _ := titleSel.Attr("href")
	if strings.TrimSpace(href) == "" {
		return nil, c.missing("link")
	}
	if !c.matches(title) {
		return nil, nil
	}
	return jobs.BlackHatWorldJob{Title: title, Link: absoluteURL(c.URL, href)}, nil
}

func (c *BlackHatWorldCrawler) matches(title string) bool {
	lower := strings.ToLower(title)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
