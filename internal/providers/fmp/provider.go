// Package fmp implements the Financial Modeling Prep (FMP) data provider.
// FMP serves company profiles (market cap, industry, sector), CIK and name
// search, the full stock list, and a premium, date-filterable SEC filings
// feed (v4 rss_feed).
//
// Free tier: 250 requests/day. rss_feed needs a paid plan.
// Docs: https://financialmodelingprep.com/developer/docs
package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seenimoa/secfilter/internal/infra"
	"github.com/seenimoa/secfilter/internal/provider"
)

const (
	providerName = "fmp"
	credAPIKey   = "api_key"

	// DefaultBaseURL is the API root; v3 and v4 paths hang off it.
	DefaultBaseURL = "https://financialmodelingprep.com/api"
)

// Options configures a Provider. Zero values take defaults.
type Options struct {
	BaseURL         string
	RatePerSecond   float64       // queue pacing, default 3
	MetadataTimeout time.Duration // profile and search calls, default 10s
	FeedTimeout     time.Duration // rss_feed pages and the stock list, default 30s
	MaxPages        int           // rss_feed page ceiling when fetching all, default 50
	Logger          *slog.Logger
}

// ErrPremiumRequired is returned when an endpoint needs a higher FMP plan.
var ErrPremiumRequired = fmt.Errorf("fmp: premium plan required: %w", provider.ErrProviderUnavailable)

// Provider implements provider.Provider for FMP. Every request goes through
// a single FIFO queue paced at the plan's request rate.
type Provider struct {
	provider.BaseProvider

	baseURL     string
	queue       *infra.Queue
	metaTimeout time.Duration
	feedTimeout time.Duration
	maxPages    int
	logger      *slog.Logger
}

// New creates a new FMP provider. Call Init with the API key before use.
func New(opts Options) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 3
	}
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 10 * time.Second
	}
	if opts.FeedTimeout <= 0 {
		opts.FeedTimeout = 30 * time.Second
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 50
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Financial Modeling Prep - company profiles, ticker search, historical filings",
			"https://financialmodelingprep.com",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "FMP API key from financialmodelingprep.com",
					Required:    true,
					EnvVar:      "FMP_API_KEY",
				},
			},
			provider.CapHistoricalFilings,
			provider.CapProfile,
			provider.CapTickerSearch,
			provider.CapStockList,
		),
		baseURL:     opts.BaseURL,
		queue:       infra.NewQueuePerSecond(providerName, opts.RatePerSecond),
		metaTimeout: opts.MetadataTimeout,
		feedTimeout: opts.FeedTimeout,
		maxPages:    opts.MaxPages,
		logger:      opts.Logger.With("provider", providerName),
	}
}

// Close stops the provider's request queue.
func (p *Provider) Close() { p.queue.Close() }

// Ping checks connectivity to FMP and the validity of the key.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.Profile(ctx, "AAPL"); err != nil {
		return fmt.Errorf("fmp ping: %w", err)
	}
	return nil
}

// apiKey returns the configured key, or *provider.ErrInvalidCredentials.
func (p *Provider) apiKey() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p.Credential(credAPIKey), nil
}

// --- Shared helpers ---

func jsonHeaders() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

// fmpURL builds a full FMP API URL with the API key appended.
// path includes the version, e.g. "/v3/profile/AAPL".
func (p *Provider) fmpURL(path, apiKey string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", apiKey)
	return p.baseURL + path + "?" + params.Encode()
}

// fetchFMPJSON performs a queued GET against FMP and decodes the response.
// FMP reports plan and key problems either as an HTTP status or as a JSON
// object in place of the expected array; both are mapped to typed errors.
func (p *Provider) fetchFMPJSON(ctx context.Context, path string, params url.Values, timeout time.Duration, dest any) error {
	key, err := p.apiKey()
	if err != nil {
		return err
	}
	u := p.fmpURL(path, key, params)

	data, err := infra.Do(ctx, p.queue, func(ctx context.Context) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		body, _, err := infra.DoGet(ctx, u, jsonHeaders())
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return io.ReadAll(body)
	})
	if err != nil {
		return p.classify(path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var fe fmpError
		if json.Unmarshal(data, &fe) == nil && fe.text() != "" {
			return p.classifyMessage(path, fe.text())
		}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("fmp %s: parse JSON: %w", path, err)
	}
	return nil
}

// classify maps transport errors onto the shared provider errors.
func (p *Provider) classify(path string, err error) error {
	var he *infra.HTTPError
	if !errors.As(err, &he) {
		return fmt.Errorf("fmp %s: %w", path, err)
	}
	switch {
	case he.StatusCode == http.StatusForbidden || premiumMessage(he.Body):
		return fmt.Errorf("fmp %s: %w", path, ErrPremiumRequired)
	case he.StatusCode == http.StatusUnauthorized:
		return &provider.ErrInvalidCredentials{Provider: providerName, Detail: he.Body}
	case he.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("fmp %s: %w", path, provider.ErrRateLimitExceeded)
	}
	return fmt.Errorf("fmp %s: %w", path, err)
}

func (p *Provider) classifyMessage(path, msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case premiumMessage(msg):
		return fmt.Errorf("fmp %s: %s: %w", path, msg, ErrPremiumRequired)
	case strings.Contains(lower, "api key"):
		return &provider.ErrInvalidCredentials{Provider: providerName, Detail: msg}
	case strings.Contains(lower, "limit reach"):
		return fmt.Errorf("fmp %s: %s: %w", path, msg, provider.ErrRateLimitExceeded)
	}
	return fmt.Errorf("fmp %s: %s", path, msg)
}

func premiumMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "upgrade") || strings.Contains(lower, "premium") ||
		strings.Contains(lower, "exclusive endpoint")
}
