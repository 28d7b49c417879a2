// Package providers builds the concrete upstream providers from config,
// registers them, and assembles the filings pipeline on top of them.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seenimoa/secfilter/internal/config"
	"github.com/seenimoa/secfilter/internal/filings"
	"github.com/seenimoa/secfilter/internal/provider"
	"github.com/seenimoa/secfilter/internal/providers/fmp"
	"github.com/seenimoa/secfilter/internal/providers/otc"
	"github.com/seenimoa/secfilter/internal/providers/sec"
	"github.com/seenimoa/secfilter/internal/tickerstore"
)

// Stack is the fully wired application: providers, registry and pipeline.
type Stack struct {
	Registry *provider.Registry
	SEC      *sec.Provider
	FMP      *fmp.Provider
	OTC      *otc.Provider
	Resolver *filings.TickerResolver
	Source   *filings.HybridSource
	Pipeline *filings.Pipeline

	store *tickerstore.Store
}

// RegisterAllTo creates the sec, fmp and otc providers from cfg and
// registers them to reg. FMP is registered even without an API key so
// status reporting shows it; its calls fail with a credentials error.
func RegisterAllTo(reg *provider.Registry, cfg *config.Config, logger *slog.Logger) (*sec.Provider, *fmp.Provider, *otc.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// --- SEC EDGAR (free, User-Agent only) ---
	sp := sec.New(sec.Options{
		BaseURL:        cfg.SEC.BaseURL,
		UserAgent:      cfg.SEC.UserAgent,
		RatePerSecond:  cfg.SEC.RateLimit,
		MaxPages:       cfg.Pipeline.MaxPages,
		EmptyPageLimit: cfg.Pipeline.EmptyPageLimit,
		Timeout:        cfg.Timeouts.Feed,
		Logger:         logger,
	})
	if err := sp.Init(nil); err != nil {
		return nil, nil, nil, err
	}

	// --- FMP (requires API key) ---
	fp := fmp.New(fmp.Options{
		BaseURL:         cfg.FMP.BaseURL,
		RatePerSecond:   cfg.FMP.RateLimit,
		MetadataTimeout: cfg.Timeouts.Metadata,
		FeedTimeout:     cfg.Timeouts.Feed,
		MaxPages:        cfg.Pipeline.MaxPages,
		Logger:          logger,
	})
	if cfg.FMP.APIKey != "" {
		if err := fp.Init(map[string]string{"api_key": cfg.FMP.APIKey}); err != nil {
			sp.Close()
			fp.Close()
			return nil, nil, nil, err
		}
	} else {
		logger.Warn("FMP API key not set; filing searches will fail until FMP_API_KEY is set")
	}

	// --- OTC Markets (public endpoints) ---
	op := otc.New(otc.Options{
		BaseURL:         cfg.OTC.BaseURL,
		SymbolsURL:      cfg.OTC.SymbolsURL,
		MetadataTimeout: cfg.Timeouts.Metadata,
		ListTimeout:     cfg.Timeouts.Feed,
		Logger:          logger,
	})
	if err := op.Init(nil); err != nil {
		sp.Close()
		fp.Close()
		return nil, nil, nil, err
	}

	for _, p := range []provider.Provider{sp, fp, op} {
		if err := reg.Register(p); err != nil {
			sp.Close()
			fp.Close()
			return nil, nil, nil, err
		}
	}
	return sp, fp, op, nil
}

// Build wires the whole application from cfg. A configured Redis ticker
// store that cannot be reached is logged and skipped.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := provider.NewRegistry()
	sp, fp, op, err := RegisterAllTo(reg, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("register providers: %w", err)
	}

	s := &Stack{Registry: reg, SEC: sp, FMP: fp, OTC: op}

	var store filings.TickerStore
	if cfg.Cache.RedisURL != "" {
		st, err := tickerstore.Open(ctx, cfg.Cache.RedisURL, cfg.Cache.TickerTTL)
		if err != nil {
			logger.Warn("ticker store unavailable, continuing without it", "error", err)
		} else {
			s.store = st
			store = st
		}
	}

	s.Resolver = filings.NewTickerResolver(fp, op, filings.ResolverOptions{
		StockListTTL: cfg.Cache.StockListTTL,
		TickerTTL:    cfg.Cache.TickerTTL,
		Store:        store,
		Logger:       logger,
	})
	s.Source = filings.NewHybridSource(sp, fp, filings.SourceOptions{
		RecentWindowDays: cfg.Pipeline.RecentWindowDays,
		AvailabilityTTL:  cfg.Cache.AvailabilityTTL,
		Logger:           logger,
	})
	chain := filings.NewProfileChain(fp, op, logger)
	enricher := filings.NewEnricher(s.Resolver, chain, cfg.Pipeline.BatchSize, logger)
	s.Pipeline = filings.NewPipeline(s.Source, enricher, cfg.Pipeline.DefaultLimit, logger)
	return s, nil
}

// Status reports the source and resolver cache state.
func (s *Stack) Status() filings.Status {
	return filings.CurrentStatus(s.Source, s.Resolver)
}

// Close releases provider queues and the ticker store.
func (s *Stack) Close() {
	s.SEC.Close()
	s.FMP.Close()
	if s.store != nil {
		_ = s.store.Close()
	}
}
