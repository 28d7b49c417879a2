// Package sec implements the SEC EDGAR filings feed provider.
// The getcurrent ATOM feed lists the most recent filings of a form type and
// ignores date parameters, so date filtering happens client-side.
//
// No API key required. Must include a User-Agent header per SEC policy.
// Docs: https://www.sec.gov/os/accessing-edgar-data
// Rate limit: 10 requests/second per user-agent.
package sec

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/seenimoa/secfilter/internal/infra"
	"github.com/seenimoa/secfilter/internal/provider"
)

const (
	providerName = "sec"

	// DefaultBaseURL is the EDGAR host.
	DefaultBaseURL = "https://www.sec.gov"

	browsePath = "/cgi-bin/browse-edgar"

	// PageSize is the largest count getcurrent accepts.
	PageSize = 100

	defaultUserAgent = "secfilter/1.0 contact@example.com"
)

// Options configures a Provider. Zero values take defaults.
type Options struct {
	BaseURL        string
	UserAgent      string
	RatePerSecond  int           // queue pacing, default 8
	MaxPages       int           // hard ceiling per fetch, default 50
	EmptyPageLimit int           // consecutive pages without new filings before stopping, default 3
	Timeout        time.Duration // per page, default 30s
	Logger         *slog.Logger
}

// Provider implements provider.Provider for SEC EDGAR.
type Provider struct {
	provider.BaseProvider

	baseURL        string
	userAgent      string
	queue          *infra.Queue
	maxPages       int
	emptyPageLimit int
	timeout        time.Duration
	logger         *slog.Logger
}

// New creates a new SEC provider with its own request queue.
func New(opts Options) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RatePerSecond < 1 {
		opts.RatePerSecond = 8
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 50
	}
	if opts.EmptyPageLimit < 1 {
		opts.EmptyPageLimit = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"SEC EDGAR - near-real-time filings feed",
			"https://www.sec.gov/edgar",
			nil, // No credentials required
			provider.CapRecentFilings,
		),
		baseURL:        opts.BaseURL,
		userAgent:      opts.UserAgent,
		queue:          infra.NewQueue(providerName, opts.RatePerSecond, time.Second),
		maxPages:       opts.MaxPages,
		emptyPageLimit: opts.EmptyPageLimit,
		timeout:        opts.Timeout,
		logger:         opts.Logger.With("provider", providerName),
	}
}

// Close stops the provider's request queue.
func (p *Provider) Close() { p.queue.Close() }

// Ping checks connectivity to the EDGAR feed.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.fetchPage(ctx, "", 0); err != nil {
		return fmt.Errorf("sec ping: %w", err)
	}
	return nil
}

// --- Shared helpers ---

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"User-Agent": p.userAgent,
		"Accept":     "application/atom+xml",
	}
}

// currentURL builds a getcurrent request for one page of the feed.
func (p *Provider) currentURL(formType string, offset int) string {
	q := url.Values{}
	q.Set("action", "getcurrent")
	q.Set("type", formType)
	q.Set("owner", "exclude")
	q.Set("output", "atom")
	q.Set("count", strconv.Itoa(PageSize))
	q.Set("start", strconv.Itoa(offset))
	return p.baseURL + browsePath + "?" + q.Encode()
}
