package cli

import (
	"context"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/helpers"
	"github.com/sqanatoliy/jobs-scraper/internal/crawler"
	"github.com/sqanatoliy/jobs-scraper/logger"
	"github.com/sqanatoliy/jobs-scraper/services/cache"
	"github.com/sqanatoliy/jobs-scraper/services/notifier"
	"github.com/sqanatoliy/jobs-scraper/services/publisher"
	"github.com/sqanatoliy/jobs-scraper/services/store"
	"github.com/sqanatoliy/jobs-scraper/services/worker"
)

// Services holds all the initialized services
type Services struct {
	Config    *config.Config
	Fetcher   *helpers.Fetcher
	Cache     cache.CacheService
	Publisher publisher.Publisher
	ErrorLog  helpers.LoggerInterface

	// one store per distinct location and one notifier per target
	stores    map[string]store.Store
	notifiers map[string]*notifier.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	for loc, st := range s.stores {
		if err := st.Close(); err != nil {
			logger.ForStore().Warn().Err(err).Str("location", loc).Msg("Failed to close store")
		}
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes the services shared by all scrapers.
// Memcache and Redis are optional: an unreachable server is logged and replaced.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{
		Config:    cfg,
		Fetcher:   helpers.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent),
		ErrorLog:  helpers.NewLogger(cfg.LogFile),
		stores:    make(map[string]store.Store),
		notifiers: make(map[string]*notifier.Notifier),
	}

	services.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcache.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-process cooldowns")
		} else {
			services.Cache = memcache
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	services.Publisher = publisher.Nop{}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, events will not be published")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}

// Store opens and initializes the store at loc once per location
func (s *Services) Store(ctx context.Context, loc config.StoreLocation) (store.Store, error) {
	if st, ok := s.stores[loc.String()]; ok {
		return st, nil
	}
	st, err := store.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		st.Close()
		return nil, err
	}
	s.stores[loc.String()] = st
	return st, nil
}

// Notifier returns the notifier of a target, creating it on first use
func (s *Services) Notifier(target config.Target) (*notifier.Notifier, error) {
	key := target.Name + "/" + target.ChatID
	if n, ok := s.notifiers[key]; ok {
		return n, nil
	}
	sender, err := notifier.NewTelegramSender(target.Token, target.ChatID, s.Config.TelegramAPIEndpoint, s.Config.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	policy := notifier.DefaultPolicy()
	policy.MaxAttempts = s.Config.NotifyMaxAttempts
	n := notifier.New(sender, policy, notifier.NewLimiter(s.Config.NotifyRatePerSecond))
	s.notifiers[key] = n
	return n, nil
}

// buildScrapers wires an adapter, a store and a notifier for every scraper
// configuration. Invalid filters surface here, before any request is sent.
func (s *Services) buildScrapers(ctx context.Context, configs []config.ScraperConfig) ([]worker.Scraper, error) {
	deps := crawler.Deps{
		Fetcher:   s.Fetcher,
		Cache:     s.Cache,
		BlockTime: s.Config.FetchBlockDuration,
	}

	scrapers := make([]worker.Scraper, 0, len(configs))
	for _, sc := range configs {
		adapter, err := crawler.NewAdapter(sc, deps)
		if err != nil {
			return nil, err
		}
		st, err := s.Store(ctx, sc.Store)
		if err != nil {
			return nil, err
		}
		n, err := s.Notifier(sc.Target)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, worker.Scraper{Config: sc, Adapter: adapter, Store: st, Notifier: n})
	}
	return scrapers, nil
}
