package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sqanatoliy/jobs-scraper/config"
	"github.com/sqanatoliy/jobs-scraper/internal/jobs"
	apperrors "github.com/sqanatoliy/jobs-scraper/pkg/errors"
	"github.com/sqanatoliy/jobs-scraper/services/store"
)

func newListCommand(getConfig func() *config.Config) *cobra.Command {
	var (
		category   string
		title      string
		limit      int
		duplicates bool
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "list <source>",
		Short: "List stored jobs of one source",
		Example: `  jobs-scraper list dou
  jobs-scraper list dou --category python
  jobs-scraper list djinni --title "middle python developer"
  jobs-scraper list globallogic --duplicates`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			source, err := jobs.ParseSource(args[0])
			if err != nil {
				return apperrors.NewConfiguration("invalid source", err)
			}

			loc := getConfig().StoreLocation()
			if dbPath != "" {
				loc.Path = dbPath
			}
			st, err := store.Open(ctx, loc)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Init(ctx); err != nil {
				return err
			}

			var records []jobs.Record
			if duplicates {
				records, err = st.Duplicates(ctx, source)
			} else {
				records, err = st.List(ctx, store.Query{Source: source, Category: category, Title: title, Limit: limit})
			}
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), source, records)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only jobs of this category (case-insensitive)")
	cmd.Flags().StringVar(&title, "title", "", "Only jobs with exactly this title (case-insensitive)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many jobs; 0 shows all")
	cmd.Flags().BoolVar(&duplicates, "duplicates", false, "Show rows whose identity key is stored more than once")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to read instead of JOBS_DB_PATH")
	return cmd
}

// printRecords writes one tab-aligned row per record, missing fields as "-"
func printRecords(out io.Writer, source jobs.Source, records []jobs.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintf(out, "No %s jobs found\n", source)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(records[0].Columns(), "\t")))
	for _, r := range records {
		cells := make([]string, 0, len(r.Columns()))
		for _, v := range r.Values() {
			cells = append(cells, cell(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d %s jobs\n", len(records), source)
	return err
}

func cell(v any) string {
	switch x := v.(type) {
	case jobs.Field:
		if !x.Valid {
			return "-"
		}
		return oneLine(x.String)
	case string:
		return oneLine(x)
	default:
		return fmt.Sprint(x)
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return `""`
	}
	return s
}
