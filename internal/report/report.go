// Package report renders enriched filings for terminal and file output:
// an aligned text table, CSV for spreadsheets, and JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

// Format specifies the output format.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, csv or json)", s)
	}
}

// csvHeader is the column order of CSV exports.
var csvHeader = []string{
	"Company", "Ticker", "CIK", "Filing Type", "Filing Date",
	"Market Cap", "Industry", "Sector", "Filing URL",
}

// WritePage renders one page of results. Table output ends with a
// pagination footer; JSON output is the whole PaginatedResult.
func WritePage(w io.Writer, format Format, res models.PaginatedResult) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res.Data)
	}
	if err := WriteTable(w, res.Data); err != nil {
		return err
	}
	p := res.Pagination
	_, err := fmt.Fprintf(w, "\nPage %d of %d (%d results, %d per page)", p.CurrentPage, p.TotalPages, p.TotalResults, p.ResultsPerPage)
	if err == nil && p.HasMore {
		_, err = fmt.Fprint(w, ", more available")
	}
	if err == nil {
		_, err = fmt.Fprintln(w)
	}
	return err
}

// WriteExport renders a full export.
func WriteExport(w io.Writer, format Format, res models.ExportResult) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res.Data)
	}
	if err := WriteTable(w, res.Data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d filings\n", res.Total)
	return err
}

// WriteTable writes filings as an aligned text table with compact market caps.
func WriteTable(w io.Writer, filings []models.EnrichedFiling) error {
	if len(filings) == 0 {
		_, err := fmt.Fprintln(w, "No filings found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tFORM\tTICKER\tCOMPANY\tMARKET CAP\tSECTOR\tINDUSTRY")
	for _, f := range filings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.FilingDate, f.FormType, orNA(f.Ticker), truncate(f.Company, 40),
			utils.FormatMarketCap(f.MarketCap), orNA(f.Sector), truncate(orNA(f.Industry), 30))
	}
	return tw.Flush()
}

// WriteCSV writes filings with a header row. An empty slice writes nothing.
func WriteCSV(w io.Writer, filings []models.EnrichedFiling) error {
	if len(filings) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range filings {
		row := []string{
			orNA(f.Company),
			orNA(f.Ticker),
			orNA(f.CIK),
			orNA(f.FormType),
			orNA(f.FilingDate),
			utils.FormatMarketCapFull(f.MarketCap),
			orNA(f.Industry),
			orNA(f.Sector),
			orNA(f.DocumentURL),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.NotAvailable
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
