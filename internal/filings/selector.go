package filings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/seenimoa/secfilter/internal/infra"
	"github.com/seenimoa/secfilter/internal/metrics"
	"github.com/seenimoa/secfilter/internal/providers/fmp"
	"github.com/seenimoa/secfilter/internal/providers/sec"
	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

// RecentFeed is the near-real-time filings feed (SEC getcurrent).
type RecentFeed interface {
	FetchRecent(ctx context.Context, q sec.RecentQuery) ([]models.Filing, error)
}

// HistoricalFeed is the date-filterable filings feed (FMP rss_feed).
type HistoricalFeed interface {
	FetchHistorical(ctx context.Context, q fmp.HistoricalQuery) ([]models.Filing, error)
	ProbeHistorical(ctx context.Context) (bool, error)
}

// FetchQuery selects filings for a form type and date range.
type FetchQuery struct {
	FormType string
	Start    time.Time
	End      time.Time
	FetchAll bool
	Page     int // 1-based
}

// SourceOptions configures a HybridSource. Zero values take defaults.
type SourceOptions struct {
	RecentWindowDays int           // spans up to this many days use the recent feed, default 30
	AvailabilityTTL  time.Duration // probe result validity, default 1h
	Clock            infra.Clock
	Logger           *slog.Logger
}

// HybridSource picks the feed for a date range. Short spans always use the
// near-real-time feed. Longer spans use the historical feed when the plan
// allows it and fall back to the near-real-time feed on any failure.
type HybridSource struct {
	recent       RecentFeed
	historical   HistoricalFeed
	available    *infra.Snapshot[bool]
	recentWindow int
	logger       *slog.Logger
}

// NewHybridSource creates a selector. historical may be nil, in which case
// every range is served by the recent feed.
func NewHybridSource(recent RecentFeed, historical HistoricalFeed, opts SourceOptions) *HybridSource {
	if opts.RecentWindowDays <= 0 {
		opts.RecentWindowDays = 30
	}
	if opts.AvailabilityTTL <= 0 {
		opts.AvailabilityTTL = time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "hybrid_source")

	h := &HybridSource{
		recent:       recent,
		historical:   historical,
		recentWindow: opts.RecentWindowDays,
		logger:       logger,
	}
	if historical != nil {
		h.available = infra.NewSnapshot("historical_availability", opts.AvailabilityTTL,
			func(ctx context.Context) (bool, error) {
				ok, err := historical.ProbeHistorical(ctx)
				if err != nil {
					logger.Info("historical feed unavailable", "error", err)
				}
				return ok, nil
			},
			infra.WithClock(opts.Clock), infra.WithLogger(logger))
	}
	return h
}

// Fetch returns filings for q from the appropriate feed.
func (h *HybridSource) Fetch(ctx context.Context, q FetchQuery) ([]models.Filing, error) {
	span := utils.DaysBetween(q.Start, q.End)
	log := h.logger.With("form_type", q.FormType, "span_days", span)

	if span <= h.recentWindow {
		metrics.SourceSelections.WithLabelValues("recent", "short_span").Inc()
		log.Debug("using near-real-time feed for short span")
		return h.fetchRecent(ctx, q)
	}

	if !h.historicalAvailable(ctx) {
		metrics.SourceSelections.WithLabelValues("recent", "historical_unavailable").Inc()
		log.Warn("historical feed unavailable, near-real-time feed may return incomplete results for this range")
		return h.fetchRecent(ctx, q)
	}

	filings, err := h.historical.FetchHistorical(ctx, fmp.HistoricalQuery{
		FormType: q.FormType,
		Start:    q.Start,
		End:      q.End,
		FetchAll: q.FetchAll,
		Page:     q.Page,
	})
	if err == nil {
		metrics.SourceSelections.WithLabelValues("historical", "long_span").Inc()
		return filings, nil
	}
	if IsConfigurationError(err) {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	reason := "historical_error"
	if errors.Is(err, ErrProviderUnavailable) {
		reason = "premium_required"
		h.available.Set(false)
	}
	metrics.SourceSelections.WithLabelValues("recent", reason).Inc()
	log.Warn("historical feed failed, falling back to near-real-time feed; results may be incomplete",
		"error", err)
	return h.fetchRecent(ctx, q)
}

func (h *HybridSource) fetchRecent(ctx context.Context, q FetchQuery) ([]models.Filing, error) {
	return h.recent.FetchRecent(ctx, sec.RecentQuery{
		FormType: q.FormType,
		Start:    q.Start,
		End:      q.End,
		FetchAll: q.FetchAll,
		Page:     q.Page,
	})
}

func (h *HybridSource) historicalAvailable(ctx context.Context) bool {
	if h.available == nil {
		return false
	}
	ok, err := h.available.Get(ctx)
	return err == nil && ok
}

// HistoricalAvailable reports the cached availability flag without probing.
func (h *HybridSource) HistoricalAvailable() (available, known bool) {
	if h.available == nil {
		return false, true
	}
	return h.available.Peek()
}
