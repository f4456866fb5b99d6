package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
)

const (
	TargetDefault = "default"
	TargetNoExp   = "no_exp"
)

// Target is the Telegram chat a scraper notifies
type Target struct {
	Name   string
	Token  string
	ChatID string
}

// StoreLocation identifies the database a scraper records into
type StoreLocation struct {
	Driver string
	Path   string
	DSN    string
}

func (l StoreLocation) String() string {
	if l.Driver == DriverPostgres {
		return "postgres"
	}
	return l.Driver + ":" + l.Path
}

// DouFilters are the jobs.dou.ua query filters
type DouFilters struct {
	Category   string `yaml:"category"`
	Experience string `yaml:"experience"`
	City       string `yaml:"city"`
	Remote     bool   `yaml:"remote"`
	Relocation bool   `yaml:"relocation"`
	NoExp      bool   `yaml:"no_exp"`
	BaseURL    string `yaml:"base_url"`
}

// DjinniFilters select a djinni.co RSS feed
type DjinniFilters struct {
	Keyword string `yaml:"keyword"`
	Label   string `yaml:"label"`
	FeedURL string `yaml:"feed_url"`
}

// GlobalLogicFilters are the GlobalLogic career search filters
type GlobalLogicFilters struct {
	Keywords   string `yaml:"keywords"`
	Experience string `yaml:"experience"`
	Locations  string `yaml:"locations"`
	Freelance  bool   `yaml:"freelance"`
	Remote     bool   `yaml:"remote"`
	Hybrid     bool   `yaml:"hybrid"`
	OnSite     bool   `yaml:"on_site"`
	BaseURL    string `yaml:"base_url"`
}

// BlackHatWorldFilters select forum threads by title keyword
type BlackHatWorldFilters struct {
	Keywords []string `yaml:"keywords"`
	BaseURL  string   `yaml:"base_url"`
}

// DefaultBlackHatWorldKeywords are used when a definition lists none
var DefaultBlackHatWorldKeywords = []string{"scraping", "parsing", "scraper", "parser"}

// ScraperConfig is the resolved, per-invocation configuration of one scraper.
// It is a value type; callers receive copies.
type ScraperConfig struct {
	Name   string
	Source jobs.Source
	Target Target
	Store  StoreLocation

	Dou           DouFilters
	Djinni        DjinniFilters
	GlobalLogic   GlobalLogicFilters
	BlackHatWorld BlackHatWorldFilters
}

type scraperFile struct {
	Scrapers []scraperDefinition `yaml:"scrapers"`
}

type scraperDefinition struct {
	Name          string                `yaml:"name"`
	Source        string                `yaml:"source"`
	Target        string                `yaml:"target"`
	DBPath        string                `yaml:"db_path"`
	Dou           *DouFilters           `yaml:"dou"`
	Djinni        *DjinniFilters        `yaml:"djinni"`
	GlobalLogic   *GlobalLogicFilters   `yaml:"globallogic"`
	BlackHatWorld *BlackHatWorldFilters `yaml:"blackhatworld"`
}

// LoadScrapers reads scraper definitions from a YAML file
func LoadScrapers(path string, cfg *Config) ([]ScraperConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to read scraper definitions "+path, err)
	}
	return ParseScrapers(data, cfg)
}

// ParseScrapers resolves YAML scraper definitions against the environment configuration
func ParseScrapers(data []byte, cfg *Config) ([]ScraperConfig, error) {
	var file scraperFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.NewConfiguration("invalid scraper definitions", err)
	}
	if len(file.Scrapers) == 0 {
		return nil, apperrors.NewConfiguration("no scrapers defined", nil)
	}

	seen := make(map[string]bool, len(file.Scrapers))
	scrapers := make([]ScraperConfig, 0, len(file.Scrapers))
	for i, def := range file.Scrapers {
		sc, err := resolve(def, cfg)
		if err != nil {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("scraper #%d (%s)", i+1, def.Name), err)
		}
		if seen[sc.Name] {
			return nil, apperrors.NewConfiguration("duplicate scraper name "+sc.Name, nil)
		}
		seen[sc.Name] = true
		scrapers = append(scrapers, sc)
	}
	return scrapers, nil
}

// SelectScrapers returns the scrapers whose names are in names, or all of them when names is empty
func SelectScrapers(all []ScraperConfig, names []string) ([]ScraperConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]ScraperConfig, len(all))
	for _, sc := range all {
		byName[sc.Name] = sc
	}
	selected := make([]ScraperConfig, 0, len(names))
	for _, name := range names {
		sc, ok := byName[name]
		if !ok {
			return nil, apperrors.NewConfiguration("unknown scraper "+name, nil)
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

func resolve(def scraperDefinition, cfg *Config) (ScraperConfig, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return ScraperConfig{}, fmt.Errorf("name is required")
	}
	source, err := jobs.ParseSource(def.Source)
	if err != nil {
		return ScraperConfig{}, err
	}

	sc := ScraperConfig{
		Name:   name,
		Source: source,
		Store:  cfg.StoreLocation(),
	}
	if def.DBPath != "" {
		sc.Store.Path = def.DBPath
	}

	targetName := def.Target
	switch source {
	case jobs.SourceDou:
		if def.Dou == nil {
			return ScraperConfig{}, fmt.Errorf("dou filters are required")
		}
		sc.Dou = *def.Dou
		if targetName == "" && sc.Dou.NoExp {
			targetName = TargetNoExp
		}
	case jobs.SourceDjinni:
		if def.Djinni == nil {
			return ScraperConfig{}, fmt.Errorf("djinni filters are required")
		}
		sc.Djinni = *def.Djinni
		if sc.Djinni.Keyword == "" && sc.Djinni.FeedURL == "" {
			return ScraperConfig{}, fmt.Errorf("djinni keyword or feed_url is required")
		}
		if sc.Djinni.Label == "" {
			sc.Djinni.Label = sc.Djinni.Keyword
		}
	case jobs.SourceGlobalLogic:
		if def.GlobalLogic == nil {
			return ScraperConfig{}, fmt.Errorf("globallogic filters are required")
		}
		sc.GlobalLogic = *def.GlobalLogic
	case jobs.SourceBlackHatWorld:
		if def.BlackHatWorld != nil {
			sc.BlackHatWorld = *def.BlackHatWorld
		}
		if len(sc.BlackHatWorld.Keywords) == 0 {
			sc.BlackHatWorld.Keywords = append([]string(nil), DefaultBlackHatWorldKeywords...)
		}
	}

	target, err := cfg.resolveTarget(targetName)
	if err != nil {
		return ScraperConfig{}, err
	}
	sc.Target = target
	return sc, nil
}

// StoreLocation returns the store the environment configures
func (c *Config) StoreLocation() StoreLocation {
	return StoreLocation{Driver: c.StoreDriver, Path: c.DBPath, DSN: c.PostgresDSN}
}

func (c *Config) resolveTarget(name string) (Target, error) {
	if name == "" {
		name = TargetDefault
	}
	var t Target
	switch name {
	case TargetDefault:
		t = Target{Name: name, Token: c.TelegramToken, ChatID: c.ChatID}
		if t.Token == "" || t.ChatID == "" {
			return Target{}, fmt.Errorf("TELEGRAM_TOKEN and CHAT_ID are required for target %q", name)
		}
	case TargetNoExp:
		t = Target{Name: name, Token: c.NoExpTelegramToken, ChatID: c.NoExpChatID}
		if t.Token == "" || t.ChatID == "" {
			return Target{}, fmt.Errorf("NO_EXP_TELEGRAM_TOKEN and NO_EXP_CHAT_ID are required for target %q", name)
		}
	default:
		return Target{}, fmt.Errorf("unknown target %q", name)
	}
	return t, nil
}
