package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/logger"
	"github.com/sqanatoliy/jobs-scraper/services/worker"
)

func newRunCommand(getConfig func() *config.Config) *cobra.Command {
	var (
		only    []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configured scraper once",
		Example: `  jobs-scraper run
  jobs-scraper run --only dou-python-kyiv,djinni-python
  jobs-scraper run --timeout 10m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			services, scrapers, err := prepare(ctx, getConfig(), only)
			if err != nil {
				return err
			}
			defer services.Cleanup()

			w := worker.NewWorker(services.Publisher, services.ErrorLog)
			for _, summary := range w.RunAll(ctx, scrapers) {
				fmt.Fprintln(cmd.OutOrStdout(), summary)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil, "Run only the named scrapers")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Bound the whole run; 0 means no bound")
	return cmd
}

// prepare loads the scraper definitions and wires the services they need
func prepare(ctx context.Context, cfg *config.Config, only []string) (*Services, []worker.Scraper, error) {
	all, err := config.LoadScrapers(cfg.ScrapersFile, cfg)
	if err != nil {
		return nil, nil, err
	}
	selected, err := config.SelectScrapers(all, only)
	if err != nil {
		return nil, nil, err
	}

	services := initializeServices(ctx, cfg)
	scrapers, err := services.buildScrapers(ctx, selected)
	if err != nil {
		services.Cleanup()
		return nil, nil, err
	}

	logger.Info("Created %d scrapers (environment: %s)", len(scrapers), cfg.Environment)
	return services, scrapers, nil
}
