package filings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/seenimoa/secfilter/internal/infra"
	"github.com/seenimoa/secfilter/internal/metrics"
	"github.com/seenimoa/secfilter/pkg/models"
)

// TickerSearcher is the primary ticker source (FMP).
type TickerSearcher interface {
	StockList(ctx context.Context) ([]models.StockListing, error)
	CIKSearch(ctx context.Context, cik string) (string, error)
	NameSearch(ctx context.Context, query string) (string, error)
}

// SymbolLister serves a secondary reference list (OTC Markets).
type SymbolLister interface {
	SymbolList(ctx context.Context) ([]models.StockListing, error)
}

// TickerStore persists CIK → ticker mappings beyond the process.
type TickerStore interface {
	Get(ctx context.Context, cik string) (string, bool, error)
	Set(ctx context.Context, cik, ticker string) error
}

// ResolverOptions configures a TickerResolver. Zero values take defaults.
type ResolverOptions struct {
	StockListTTL time.Duration // reference list validity, default 24h
	TickerTTL    time.Duration // in-process memo validity, default 24h
	Matchers     []NameMatcher // default DefaultMatchers
	Store        TickerStore   // optional
	Clock        infra.Clock
	Logger       *slog.Logger
}

// TickerResolver maps CIKs to trading tickers. Lookups run, first hit
// wins: memo, store, reference CIK index, reference name match (FMP US
// listings, then OTC), FMP CIK search, FMP name search.
type TickerResolver struct {
	search   TickerSearcher
	stocks   *infra.Snapshot[*referenceIndex]
	otc      *infra.Snapshot[*referenceIndex]
	memo     *infra.Cache[string]
	store    TickerStore
	matchers []NameMatcher
	logger   *slog.Logger
}

// NewTickerResolver creates a resolver. otc may be nil.
func NewTickerResolver(search TickerSearcher, otc SymbolLister, opts ResolverOptions) *TickerResolver {
	if opts.StockListTTL <= 0 {
		opts.StockListTTL = 24 * time.Hour
	}
	if opts.TickerTTL <= 0 {
		opts.TickerTTL = 24 * time.Hour
	}
	if len(opts.Matchers) == 0 {
		opts.Matchers = DefaultMatchers
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "ticker_resolver")
	snapOpts := []infra.SnapshotOption{infra.WithClock(opts.Clock), infra.WithLogger(logger)}

	r := &TickerResolver{
		search:   search,
		memo:     infra.NewCacheWithClock[string](opts.TickerTTL, opts.Clock),
		store:    opts.Store,
		matchers: opts.Matchers,
		logger:   logger,
	}
	r.stocks = infra.NewSnapshot("fmp_stock_list", opts.StockListTTL,
		func(ctx context.Context) (*referenceIndex, error) {
			all, err := search.StockList(ctx)
			if err != nil {
				return nil, err
			}
			return newReferenceIndex(usListings(all)), nil
		}, snapOpts...)
	if otc != nil {
		r.otc = infra.NewSnapshot("otc_symbol_list", opts.StockListTTL,
			func(ctx context.Context) (*referenceIndex, error) {
				all, err := otc.SymbolList(ctx)
				if err != nil {
					return nil, err
				}
				return newReferenceIndex(all), nil
			}, snapOpts...)
	}
	return r
}

// Resolve returns the ticker for cik, or "" when every step misses.
// Only configuration errors and context cancellation are returned; other
// lookup failures count as misses. A miss that followed such a failure is
// not memoized, so the next call retries.
func (r *TickerResolver) Resolve(ctx context.Context, cik, nameHint string) (string, error) {
	cik = strings.TrimSpace(cik)
	if cik == "" {
		return "", nil
	}
	if t, ok := r.memo.Get(cik); ok {
		metrics.TickerResolutions.WithLabelValues("memo").Inc()
		return t, nil
	}

	res, err := r.resolve(ctx, cik, nameHint)
	if err != nil {
		return "", err
	}
	metrics.TickerResolutions.WithLabelValues(res.step).Inc()

	log := r.logger.With("cik", cik, "company", nameHint)
	if res.ticker == "" {
		if res.degraded {
			log.Debug("no ticker found, lookups degraded; not remembering miss")
			return "", nil
		}
		r.memo.Set(cik, "")
		log.Debug("no ticker found")
		return "", nil
	}
	r.memo.Set(cik, res.ticker)
	log.Debug("ticker resolved", "ticker", res.ticker, "step", res.step)
	if r.store != nil && res.step != "store" {
		if err := r.store.Set(ctx, cik, res.ticker); err != nil {
			log.Warn("ticker store write failed", "error", err)
		}
	}
	return res.ticker, nil
}

// Seed records a ticker already known for cik, such as the symbol carried
// by a feed entry, so later lookups for it hit the memo.
func (r *TickerResolver) Seed(cik, ticker string) {
	cik, ticker = strings.TrimSpace(cik), strings.TrimSpace(ticker)
	if cik == "" || ticker == "" {
		return
	}
	r.memo.Set(cik, ticker)
}

// Prune evicts expired memo entries and returns how many remain.
func (r *TickerResolver) Prune() int {
	r.memo.Cleanup()
	return r.memo.Len()
}

// resolution is the outcome of one uncached lookup. degraded is set when a
// step failed for a reason that may clear on retry.
type resolution struct {
	ticker   string
	step     string
	degraded bool
}

func (r *TickerResolver) resolve(ctx context.Context, cik, nameHint string) (resolution, error) {
	var res resolution
	if r.store != nil {
		t, ok, err := r.store.Get(ctx, cik)
		switch {
		case err != nil:
			r.logger.Warn("ticker store read failed", "cik", cik, "error", err)
			res.degraded = true
		case ok:
			res.ticker, res.step = t, "store"
			return res, nil
		}
	}

	stocks, err := r.reference(ctx, r.stocks, &res)
	if err != nil {
		return res, err
	}
	if t, ok := stocks.lookupCIK(cik); ok {
		res.ticker, res.step = t, "cik_index"
		return res, nil
	}

	name := Normalize(nameHint)
	if t, ok := stocks.match(name, r.matchers); ok {
		res.ticker, res.step = t, "name_match"
		return res, nil
	}
	if r.otc != nil {
		otc, err := r.reference(ctx, r.otc, &res)
		if err != nil {
			return res, err
		}
		if t, ok := otc.match(name, r.matchers); ok {
			res.ticker, res.step = t, "otc_name_match"
			return res, nil
		}
	}

	t, err := r.search.CIKSearch(ctx, cik)
	if err = r.remoteErr(ctx, "cik search", cik, err, &res); err != nil {
		return res, err
	}
	if t != "" {
		res.ticker, res.step = t, "cik_search"
		return res, nil
	}

	if len(name) >= minNameLength {
		t, err := r.search.NameSearch(ctx, name)
		if err = r.remoteErr(ctx, "name search", cik, err, &res); err != nil {
			return res, err
		}
		if t != "" {
			res.ticker, res.step = t, "name_search"
			return res, nil
		}
	}
	res.step = "miss"
	return res, nil
}

// reference reads a snapshot. A list that cannot be loaded matches nothing.
func (r *TickerResolver) reference(ctx context.Context, snap *infra.Snapshot[*referenceIndex], res *resolution) (*referenceIndex, error) {
	idx, err := snap.Get(ctx)
	if err != nil {
		if IsConfigurationError(err) || ctx.Err() != nil {
			return nil, err
		}
		r.logger.Warn("reference list unavailable", "error", err)
		res.degraded = true
		return nil, nil
	}
	return idx, nil
}

// remoteErr keeps only the errors that must reach the caller.
func (r *TickerResolver) remoteErr(ctx context.Context, op, cik string, err error, res *resolution) error {
	if err == nil {
		return nil
	}
	if IsConfigurationError(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	r.logger.Debug(op+" failed", "cik", cik, "error", err)
	res.degraded = true
	return nil
}

// Warm loads the reference lists ahead of the first lookup.
func (r *TickerResolver) Warm(ctx context.Context) error {
	if _, err := r.stocks.Get(ctx); err != nil {
		return err
	}
	if r.otc != nil {
		if _, err := r.otc.Get(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ReferenceSizes reports the number of indexed names per loaded list.
func (r *TickerResolver) ReferenceSizes() map[string]int {
	out := make(map[string]int, 2)
	if idx, ok := r.stocks.Peek(); ok {
		out["fmp"] = idx.size()
	}
	if r.otc != nil {
		if idx, ok := r.otc.Peek(); ok {
			out["otc"] = idx.size()
		}
	}
	return out
}

// ReferenceAges reports how long ago each reference list was loaded, or -1
// for a list not loaded yet.
func (r *TickerResolver) ReferenceAges() map[string]time.Duration {
	out := map[string]time.Duration{"fmp": r.stocks.Age()}
	if r.otc != nil {
		out["otc"] = r.otc.Age()
	}
	return out
}
