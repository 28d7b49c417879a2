package filings

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/secfilter/pkg/models"
)

// DefaultBatchSize caps concurrent lookups per batch.
const DefaultBatchSize = 5

// Resolver maps a CIK to a ticker.
type Resolver interface {
	Resolve(ctx context.Context, cik, nameHint string) (string, error)
}

// seeder is implemented by resolvers that can remember a ticker learned
// elsewhere, such as a symbol carried by the filings feed.
type seeder interface {
	Seed(cik, ticker string)
}

// Enricher joins filings with tickers and market data and applies the
// market-cap filter.
//
// Lookups run in sequential batches with all members of a batch in flight
// together. Provider pacing is applied separately by each provider's queue.
type Enricher struct {
	resolver  Resolver
	profiles  ProfileSource
	batchSize int
	logger    *slog.Logger
}

// NewEnricher creates an enricher. batchSize <= 0 uses DefaultBatchSize.
func NewEnricher(resolver Resolver, profiles ProfileSource, batchSize int, logger *slog.Logger) *Enricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		resolver:  resolver,
		profiles:  profiles,
		batchSize: batchSize,
		logger:    logger.With("component", "enricher"),
	}
}

// Enrich returns the filings that pass criteria, in input order, with
// ticker and market data attached. Filings without market cap data always
// pass. Only configuration errors and cancellation abort enrichment.
func (e *Enricher) Enrich(ctx context.Context, filings []models.Filing, criteria models.FilterCriteria) ([]models.EnrichedFiling, error) {
	ciks, names, known := distinctCIKs(filings)
	e.logger.Debug("enriching filings", "filings", len(filings), "companies", len(ciks), "feed_tickers", len(known))

	if s, ok := e.resolver.(seeder); ok {
		for cik, sym := range known {
			s.Seed(cik, sym)
		}
	}
	tickers, err := batchLookup(ctx, e.batchSize, ciks, func(ctx context.Context, cik string) (string, error) {
		if sym, ok := known[cik]; ok {
			return sym, nil
		}
		return e.resolver.Resolve(ctx, cik, names[cik])
	})
	if err != nil {
		return nil, err
	}

	symbols := distinctValues(ciks, tickers)
	profiles, err := batchLookup(ctx, e.batchSize, symbols, func(ctx context.Context, ticker string) (*models.Profile, error) {
		return e.profiles.Profile(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.EnrichedFiling, 0, len(filings))
	for _, f := range filings {
		ef := enrich(f, tickers[f.CIK], profiles[tickers[f.CIK]])
		if !criteria.Allows(ef.MarketCap) {
			continue
		}
		out = append(out, ef)
	}

	e.logger.Info("filings enriched",
		"input", len(filings), "output", len(out),
		"tickers", len(symbols), "profiles", countNonNil(profiles))
	return out, nil
}

func enrich(f models.Filing, ticker string, prof *models.Profile) models.EnrichedFiling {
	ef := models.EnrichedFiling{
		Filing:   f,
		Ticker:   models.NotAvailable,
		Industry: models.NotAvailable,
		Sector:   models.NotAvailable,
	}
	if ticker != "" {
		ef.Ticker = ticker
	}
	if prof == nil {
		return ef
	}
	if prof.MarketCap > 0 {
		mc := prof.MarketCap
		ef.MarketCap = &mc
	}
	if prof.Industry != "" {
		ef.Industry = prof.Industry
	}
	if prof.Sector != "" {
		ef.Sector = prof.Sector
	}
	return ef
}

// batchLookup runs fn for every key in batches of size, concurrently within
// a batch. Keys with a zero result are left out of the map.
func batchLookup[V comparable](ctx context.Context, size int, keys []string, fn func(context.Context, string) (V, error)) (map[string]V, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]V, len(keys))
	)
	var zero V
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))

		g, gctx := errgroup.WithContext(ctx)
		for _, key := range keys[start:end] {
			g.Go(func() error {
				v, err := fn(gctx, key)
				if err != nil {
					return err
				}
				if v != zero {
					mu.Lock()
					out[key] = v
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// distinctCIKs returns CIKs in first-seen order, the last company name
// seen for each, and the first feed symbol seen for each.
func distinctCIKs(filings []models.Filing) (ciks []string, names, symbols map[string]string) {
	names = make(map[string]string)
	symbols = make(map[string]string)
	for _, f := range filings {
		if f.CIK == "" {
			continue
		}
		if _, seen := names[f.CIK]; !seen {
			ciks = append(ciks, f.CIK)
			names[f.CIK] = ""
		}
		if f.Company != "" {
			names[f.CIK] = f.Company
		}
		if _, ok := symbols[f.CIK]; !ok && f.Symbol != "" {
			symbols[f.CIK] = f.Symbol
		}
	}
	return ciks, names, symbols
}

// distinctValues returns the distinct mapped values of keys, in key order.
func distinctValues(keys []string, m map[string]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range keys {
		v, ok := m[k]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func countNonNil[V any](m map[string]*V) int {
	n := 0
	for _, v := range m {
		if v != nil {
			n++
		}
	}
	return n
}

// Dedupe keeps the first filing for each identity key.
func Dedupe(filings []models.EnrichedFiling) []models.EnrichedFiling {
	seen := make(map[models.FilingKey]struct{}, len(filings))
	out := make([]models.EnrichedFiling, 0, len(filings))
	for _, f := range filings {
		key := f.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Paginate returns the 1-based page of size limit.
func Paginate(filings []models.EnrichedFiling, page, limit int) models.PaginatedResult {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	total := len(filings)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	data := make([]models.EnrichedFiling, end-start)
	copy(data, filings[start:end])

	return models.PaginatedResult{
		Data: data,
		Pagination: models.Pagination{
			CurrentPage:    page,
			TotalPages:     (total + limit - 1) / limit,
			TotalResults:   total,
			ResultsPerPage: limit,
			HasMore:        page*limit < total,
		},
	}
}
