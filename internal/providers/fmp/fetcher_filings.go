package fmp

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/secfilter/internal/metrics"
	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

// PageSize is the number of filings rss_feed returns per full page.
const PageSize = 100

const probeTimeout = 10 * time.Second

// HistoricalQuery selects filings from the date-filterable rss_feed.
type HistoricalQuery struct {
	FormType string
	Start    time.Time
	End      time.Time
	FetchAll bool // follow pages until a short page
	Page     int  // 1-based; rss_feed itself counts from 0
}

// rss_feed titles follow the EDGAR shape "10-K - Apple Inc. (0000320193) (Filer)".
var titleCompanyRe = regexp.MustCompile(`^.+?\s+-\s+(.+?)\s*\(\d+\)`)

// FetchHistorical returns filings of q.FormType filed within [q.Start, q.End].
// Premium-plan rejections surface as ErrPremiumRequired.
func (p *Provider) FetchHistorical(ctx context.Context, q HistoricalQuery) ([]models.Filing, error) {
	page := q.Page - 1
	if page < 0 {
		page = 0
	}
	log := p.logger.With("form_type", q.FormType,
		"start", utils.FormatDate(q.Start), "end", utils.FormatDate(q.End))

	var filings []models.Filing
	for pages := 0; pages < p.maxPages; pages++ {
		batch, raw, err := p.fetchFeedPage(ctx, q, page)
		if err != nil {
			if len(filings) > 0 && !errors.Is(err, ErrPremiumRequired) && ctx.Err() == nil {
				log.Warn("stopping pagination after fetch error", "page", page, "error", err)
				break
			}
			return filings, err
		}
		filings = append(filings, batch...)
		log.Debug("fetched page", "page", page, "raw", raw, "total", len(filings))

		if !q.FetchAll || raw < PageSize {
			break
		}
		page++
		if pages+1 == p.maxPages {
			log.Warn("reached page ceiling, results may be incomplete", "max_pages", p.maxPages)
		}
	}

	log.Info("historical filings fetched", "filings", len(filings))
	return filings, nil
}

func (p *Provider) fetchFeedPage(ctx context.Context, q HistoricalQuery, page int) ([]models.Filing, int, error) {
	params := url.Values{}
	params.Set("type", q.FormType)
	if !q.Start.IsZero() {
		params.Set("from", utils.FormatDate(q.Start))
	}
	if !q.End.IsZero() {
		params.Set("to", utils.FormatDate(q.End))
	}
	params.Set("page", strconv.Itoa(page))

	var items []fmpRSSFiling
	if err := p.fetchFMPJSON(ctx, "/v4/rss_feed", params, p.feedTimeout, &items); err != nil {
		return nil, 0, err
	}
	metrics.PagesFetched.WithLabelValues(providerName).Inc()

	out := make([]models.Filing, 0, len(items))
	for _, it := range items {
		if f, ok := toFiling(it); ok {
			out = append(out, f)
		}
	}
	return out, len(items), nil
}

// toFiling converts an rss_feed entry. Entries without a CIK or form type
// cannot be keyed and are dropped.
func toFiling(it fmpRSSFiling) (models.Filing, bool) {
	cik := utils.TrimCIK(it.CIK)
	form := strings.TrimSpace(it.Type)
	if cik == "" || form == "" {
		return models.Filing{}, false
	}

	date := utils.NormalizeFilingDate(it.FillingDate)
	if date == "" {
		date = utils.NormalizeFilingDate(it.Date)
	}
	link := it.Link
	if link == "" {
		link = it.FinalLink
	}

	return models.Filing{
		Company:     companyFromTitle(it.Title, it.Symbol),
		CIK:         cik,
		FormType:    form,
		FilingDate:  date,
		DocumentURL: link,
		Symbol:      strings.ToUpper(strings.TrimSpace(it.Symbol)),
	}, true
}

func companyFromTitle(title, symbol string) string {
	title = strings.TrimSpace(title)
	if m := titleCompanyRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	if title != "" {
		return title
	}
	if symbol != "" {
		return symbol
	}
	return "Unknown"
}

// ProbeHistorical reports whether the key's plan can read rss_feed.
// Any failure counts as unavailable; the error is returned for logging.
func (p *Provider) ProbeHistorical(ctx context.Context) (bool, error) {
	if _, err := p.apiKey(); err != nil {
		return false, err
	}
	params := url.Values{}
	params.Set("type", "10-K")
	params.Set("page", "0")

	var items []fmpRSSFiling
	if err := p.fetchFMPJSON(ctx, "/v4/rss_feed", params, probeTimeout, &items); err != nil {
		return false, err
	}
	return true, nil
}
