package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/seenimoa/secfilter/internal/filings"
	"github.com/seenimoa/secfilter/internal/providers"
	"github.com/seenimoa/secfilter/internal/report"
	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Show one page of enriched filings",
	Long: `Fetch filings of one form type in a date range and print one page of
enriched results.

Examples:
  secfilter search --type 10-K --days 7
  secfilter search --type 8-K --start 2024-01-01 --end 2024-03-31 --min-cap 1e9
  secfilter search --type 10-Q --page 2 --limit 25 --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := parseRangeFlags(cmd.Flags(), time.Now())
		if err != nil {
			return err
		}
		format, err := formatFlag(cmd.Flags())
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		stack, err := providers.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		res, err := stack.Pipeline.FetchPage(ctx, filings.PageRequest{
			FormType: q.formType,
			Start:    q.start,
			End:      q.end,
			Criteria: q.criteria,
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		return report.WritePage(cmd.OutOrStdout(), format, res)
	},
}

// --- Export Command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every enriched filing in a date range",
	Long: `Fetch every page of filings in the range and write all enriched results.

Examples:
  secfilter export --type 10-K --days 30 --format csv > filings.csv
  secfilter export --type 8-K --start 20240101 --end 20240131 --output jan.json --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := parseRangeFlags(cmd.Flags(), time.Now())
		if err != nil {
			return err
		}
		format, err := formatFlag(cmd.Flags())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		stack, err := providers.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		res, err := stack.Pipeline.Export(ctx, filings.ExportRequest{
			FormType: q.formType,
			Start:    q.start,
			End:      q.end,
			Criteria: q.criteria,
		})
		if err != nil {
			return err
		}
		logger.Info("export complete", "filings", res.Total)
		return report.WriteExport(out, format, res)
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, exportCmd} {
		f := c.Flags()
		f.StringP("type", "t", "10-K", "SEC form type (10-K, 10-Q, 8-K, ...)")
		f.String("start", "", "start date, YYYY-MM-DD or YYYYMMDD")
		f.String("end", "", "end date, YYYY-MM-DD or YYYYMMDD (default: today)")
		f.IntP("days", "d", 0, "range of the last N days when --start is not set (default: pipeline.default_range_days)")
		f.Float64("min-cap", 0, "minimum market cap in USD")
		f.Float64("max-cap", 0, "maximum market cap in USD")
		f.StringP("format", "f", "table", "output format: table, csv or json")
	}
	searchCmd.Flags().IntP("page", "p", 1, "page number")
	searchCmd.Flags().IntP("limit", "l", 0, "results per page (default: pipeline.default_limit)")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}

// rangeQuery holds the validated range flags shared by search and export.
type rangeQuery struct {
	formType   string
	start, end time.Time
	criteria   models.FilterCriteria
}

// parseRangeFlags reads the form type, date range and market cap bounds.
// Without --start the range is the last --days days ending today.
func parseRangeFlags(fs *pflag.FlagSet, now time.Time) (rangeQuery, error) {
	var q rangeQuery
	q.formType, _ = fs.GetString("type")
	if q.formType == "" {
		return q, fmt.Errorf("--type is required")
	}

	startStr, _ := fs.GetString("start")
	endStr, _ := fs.GetString("end")
	days, _ := fs.GetInt("days")
	if days <= 0 {
		days = cfg.Pipeline.DefaultRangeDays
	}

	var err error
	q.start, q.end = utils.LastNDays(now, days)
	if endStr != "" {
		if q.end, err = utils.ParseDate(endStr); err != nil {
			return q, fmt.Errorf("--end: %w", err)
		}
		if startStr == "" {
			q.start = q.end.AddDate(0, 0, -days)
		}
	}
	if startStr != "" {
		if q.start, err = utils.ParseDate(startStr); err != nil {
			return q, fmt.Errorf("--start: %w", err)
		}
	}
	if q.end.Before(q.start) {
		return q, fmt.Errorf("end date %s is before start date %s", utils.FormatDate(q.end), utils.FormatDate(q.start))
	}

	if fs.Changed("min-cap") {
		v, _ := fs.GetFloat64("min-cap")
		q.criteria.MinMarketCap = &v
	}
	if fs.Changed("max-cap") {
		v, _ := fs.GetFloat64("max-cap")
		q.criteria.MaxMarketCap = &v
	}
	return q, nil
}

func formatFlag(fs *pflag.FlagSet) (report.Format, error) {
	s, _ := fs.GetString("format")
	return report.ParseFormat(s)
}
