package crawler

import (
	"time"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
	"github.com/sqanatoliy/jobs-scraper/services/cache"
)

// Deps are the services shared by every adapter
type Deps struct {
	Fetcher   *helpers.Fetcher
	Cache     cache.CacheService
	BlockTime time.Duration
}

// CacheKey is the cooldown key of a job site, shared by all scrapers of that site
func CacheKey(source jobs.Source) string {
	return string(source) + "_rate_limited"
}

// NewAdapter creates the adapter for a scraper configuration
func NewAdapter(sc config.ScraperConfig, deps Deps) (Adapter, error) {
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = helpers.NewFetcher(helpers.DefaultTimeout, helpers.DefaultUserAgent)
	}
	base := BaseCrawler{
		CacheKey:  CacheKey(sc.Source),
		CacheSvc:  deps.Cache,
		BlockTime: deps.BlockTime,
		Fetcher:   fetcher,
	}

	switch sc.Source {
	case jobs.SourceDou:
		c, err := NewDouCrawler(sc.Name, sc.Dou, base)
		if err != nil {
			return nil, err
		}
		return c, nil
	case jobs.SourceDjinni:
		return NewDjinniCrawler(sc.Name, sc.Djinni, base), nil
	case jobs.SourceGlobalLogic:
		return NewGlobalLogicCrawler(sc.Name, sc.GlobalLogic, base), nil
	case jobs.SourceBlackHatWorld:
		return NewBlackHatWorldCrawler(sc.Name, sc.BlackHatWorld, base), nil
	default:
		return nil, apperrors.NewConfiguration("no adapter for source "+string(sc.Source), nil)
	}
}
