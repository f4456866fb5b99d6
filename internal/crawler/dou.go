package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

const (
	DouVacanciesURL = "https://jobs.dou.ua/vacancies/"
	DouFirstJobURL  = "https://jobs.dou.ua/first-job/"

	douDefaultCategory   = "No category"
	douDefaultExperience = "No experience"
)

// DouCrawler reads the jobs.dou.ua vacancy list
type DouCrawler struct {
	BaseCrawler
	filters config.DouFilters
}

// BuildDouURL builds the vacancy list URL. Remote, relocation and city are
// mutually exclusive; the first-job page takes only a city.
func BuildDouURL(f config.DouFilters) (string, error) {
	locality := 0
	for _, set := range []bool{f.Remote, f.Relocation, f.City != ""} {
		if set {
			locality++
		}
	}
	if locality > 1 {
		return "", apperrors.NewConfiguration("only one of remote, relocation or city can be set for dou", nil)
	}

	base := f.BaseURL
	if base == "" {
		base = DouVacanciesURL
		if f.NoExp {
			base = DouFirstJobURL
		}
	}

	var parts []string
	if f.Remote && !f.NoExp {
		parts = append(parts, "remote")
	}
	if f.Relocation && !f.NoExp {
		parts = append(parts, "relocation")
	}
	if f.City != "" {
		parts = append(parts, "city="+url.QueryEscape(f.City))
	}
	if f.Category != "" && !f.NoExp {
		parts = append(parts, "category="+url.QueryEscape(f.Category))
	}
	if f.Experience != "" && !f.NoExp {
		parts = append(parts, "exp="+url.QueryEscape(f.Experience))
	}
	return base + "?" + strings.Join(parts, "&"), nil
}

// NewDouCrawler creates a DOU adapter; invalid filters are a configuration error
func NewDouCrawler(name string, f config.DouFilters, base BaseCrawler) (*DouCrawler, error) {
	u, err := BuildDouURL(f)
	if err != nil {
		return nil, err
	}
	base.Name = name
	base.Source = jobs.SourceDou
	base.URL = u
	return &DouCrawler{BaseCrawler: base, filters: f}, nil
}

// FetchJobs fetches and parses the vacancy list
func (c *DouCrawler) FetchJobs(ctx context.Context) ([]jobs.Record, error) {
	body, err := c.fetchWithCache(ctx)
	if err != nil {
		return []jobs.Record{}, err
	}
	doc, err := c.createDocument(body)
	if err != nil {
		return []jobs.Record{}, err
	}
	return c.processCards(doc.Find(douSelectors.List), c.parseCard), nil
}

func (c *DouCrawler) parseCard(card *goquery.Selection) (jobs.Record, error) {
	date, ok := text(card, douSelectors.Date)
	if !ok || date == "" {
		return nil, c.missing("date")
	}
	titleSel := card.Find(douSelectors.Title).First()
	title := strings.TrimSpace(titleSel.Text())
	if title == "" {
		return nil, c.missing("title")
	}
	company, ok := text(card, douSelectors.Company)
	if !ok || company == "" {
		return nil, c.missing("company")
	}

	link := jobs.Missing()
	if href, ok := titleSel.Attr("href"); ok {
		link = jobs.Some(absoluteURL(c.URL, href))
	}

	category := c.filters.Category
	if category == "" {
		category = douDefaultCategory
	}
	experience := c.filters.Experience
	if experience == "" {
		experience = douDefaultExperience
	}

	return jobs.DouJob{
		Date:       date,
		Title:      title,
		Link:       link,
		Company:    company,
		Salary:     optional(card, douSelectors.Salary),
		Cities:     optional(card, douSelectors.Cities),
		ShortInfo:  optional(card, douSelectors.Info),
		Category:   category,
		Experience: experience,
	}, nil
}
