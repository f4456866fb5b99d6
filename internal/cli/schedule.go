package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/internal/scheduler"
	"github.com/sqanatoliy/jobs-scraper/logger"
	"github.com/sqanatoliy/jobs-scraper/services/worker"
)

func newScheduleCommand(getConfig func() *config.Config) *cobra.Command {
	var (
		spec string
		only []string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the scrapers on a cron schedule until interrupted",
		Example: `  jobs-scraper schedule
  jobs-scraper schedule --cron "@every 15m"
  jobs-scraper schedule --cron "0 9-18 * * 1-5"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig()
			if spec == "" {
				spec = cfg.Schedule
			}

			services, scrapers, err := prepare(ctx, cfg, only)
			if err != nil {
				return err
			}
			defer services.Cleanup()

			w := worker.NewWorker(services.Publisher, services.ErrorLog)
			s := scheduler.New(spec, func(ctx context.Context) {
				w.RunAll(ctx, scrapers)
			})
			if err := s.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			logger.Info("Shutting down gracefully...")
			<-s.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "Cron spec; defaults to SCHEDULE")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Schedule only the named scrapers")
	return cmd
}
