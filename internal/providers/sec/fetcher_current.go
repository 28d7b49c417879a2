package sec

import (
	"context"
	"fmt"
	"net/http"

	"github.com/seenimoa/secfilter/internal/infra"
	"github.com/seenimoa/secfilter/internal/metrics"
	"github.com/seenimoa/secfilter/internal/provider"
	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

// FetchRecent pages through the getcurrent feed, keeping first-seen filings
// dated within [q.Start, q.End].
//
// After each page it stops, in order, when: q.FetchAll is false; the last
// EmptyPageLimit pages added nothing new; the page was short; or the page
// reached back before q.Start. MaxPages bounds the loop regardless.
//
// A 429 aborts with provider.ErrRateLimitExceeded. Any other failure ends
// pagination and returns what was collected.
func (p *Provider) FetchRecent(ctx context.Context, q RecentQuery) ([]models.Filing, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize
	start, end := utils.FormatDate(q.Start), utils.FormatDate(q.End)

	log := p.logger.With("form_type", q.FormType, "start", start, "end", end)
	log.Debug("fetching recent filings", "fetch_all", q.FetchAll, "page", page)

	var (
		filings     []models.Filing
		seen        = make(map[models.FilingKey]struct{})
		emptyStreak int
		pages       int
		stopped     bool
	)

	for pages < p.maxPages && !stopped {
		res, err := p.fetchPage(ctx, q.FormType, offset)
		if err != nil {
			if infra.StatusCode(err) == http.StatusTooManyRequests {
				return nil, fmt.Errorf("sec getcurrent at offset %d: %w", offset, provider.ErrRateLimitExceeded)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return filings, ctxErr
			}
			log.Warn("stopping pagination after fetch error", "offset", offset, "error", err)
			break
		}
		pages++

		added := 0
		for _, f := range res.filings {
			if f.FilingDate == "" || f.FilingDate < start || f.FilingDate > end {
				continue
			}
			key := f.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			filings = append(filings, f)
			added++
		}
		if added == 0 {
			emptyStreak++
		} else {
			emptyStreak = 0
		}

		log.Debug("fetched page",
			"offset", offset, "raw", res.raw, "new", added, "total", len(filings), "oldest", res.oldest)

		switch {
		case !q.FetchAll:
			stopped = true
		case emptyStreak >= p.emptyPageLimit:
			log.Debug("no new filings on consecutive pages, treating as end of data", "pages", emptyStreak)
			stopped = true
		case res.raw < PageSize:
			stopped = true
		case res.oldest != "" && res.oldest < start:
			stopped = true
		default:
			offset += PageSize
		}
	}

	if !stopped && pages >= p.maxPages {
		log.Warn("reached page ceiling, results may be incomplete", "max_pages", p.maxPages)
	}
	log.Info("recent filings fetched", "filings", len(filings), "pages", pages)
	return filings, nil
}

// fetchPage retrieves and parses one feed page through the SEC queue.
func (p *Provider) fetchPage(ctx context.Context, formType string, offset int) (feedPage, error) {
	return infra.Do(ctx, p.queue, func(ctx context.Context) (feedPage, error) {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		body, _, err := infra.DoGet(ctx, p.currentURL(formType, offset), p.headers())
		if err != nil {
			return feedPage{}, err
		}
		defer body.Close()

		metrics.PagesFetched.WithLabelValues(providerName).Inc()
		page, err := parseFeed(body)
		if err != nil {
			return feedPage{}, err
		}
		return page, nil
	})
}
