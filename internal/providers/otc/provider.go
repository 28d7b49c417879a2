// Package otc implements the OTC Markets data provider. It serves the OTC
// symbol directory and company profiles for over-the-counter issuers that
// FMP does not cover. No API key is needed, but the backend only answers
// requests that look like they come from its own web app.
package otc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seenimoa/secfilter/internal/provider"
)

const (
	providerName = "otc"

	DefaultBaseURL    = "https://backend.otcmarkets.com/otcapi"
	DefaultSymbolsURL = "https://www.otcmarkets.com/data/symbols"
)

// Options configures a Provider. Zero values take defaults.
type Options struct {
	BaseURL         string
	SymbolsURL      string
	MetadataTimeout time.Duration // profile calls, default 10s
	ListTimeout     time.Duration // symbol directory, default 30s
	Logger          *slog.Logger
}

// Provider implements provider.Provider for OTC Markets.
type Provider struct {
	provider.BaseProvider

	baseURL     string
	symbolsURL  string
	metaTimeout time.Duration
	listTimeout time.Duration
	logger      *slog.Logger
}

// New creates a new OTC Markets provider.
func New(opts Options) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.SymbolsURL == "" {
		opts.SymbolsURL = DefaultSymbolsURL
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 10 * time.Second
	}
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"OTC Markets - symbol directory and company profiles for OTC issuers",
			"https://www.otcmarkets.com",
			nil, // public endpoints
			provider.CapProfile,
			provider.CapStockList,
		),
		baseURL:     opts.BaseURL,
		symbolsURL:  opts.SymbolsURL,
		metaTimeout: opts.MetadataTimeout,
		listTimeout: opts.ListTimeout,
		logger:      opts.Logger.With("provider", providerName),
	}
}

// Ping checks that the profile backend answers.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.fetchProfile(ctx, "OTCM"); err != nil {
		return fmt.Errorf("otc ping: %w", err)
	}
	return nil
}

// browserHeaders mimics the otcmarkets.com web app.
func browserHeaders() map[string]string {
	return map[string]string{
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en,en-US;q=0.9",
		"Cache-Control":   "no-cache",
		"Origin":          "https://www.otcmarkets.com",
		"Pragma":          "no-cache",
		"Referer":         "https://www.otcmarkets.com/",
		"Sec-Fetch-Dest":  "empty",
		"Sec-Fetch-Mode":  "cors",
		"Sec-Fetch-Site":  "same-site",
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
	}
}
