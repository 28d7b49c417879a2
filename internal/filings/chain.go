package filings

import (
	"context"
	"log/slog"

	"github.com/seenimoa/secfilter/internal/metrics"
	"github.com/seenimoa/secfilter/pkg/models"
)

// ProfileSource looks up a company profile by ticker. A nil profile with a
// nil error means the source does not know the ticker.
type ProfileSource interface {
	Profile(ctx context.Context, ticker string) (*models.Profile, error)
}

// ProfileChain queries the primary source (FMP) and falls back to the
// secondary (OTC Markets) when the primary has no market cap.
type ProfileChain struct {
	primary   ProfileSource
	secondary ProfileSource
	logger    *slog.Logger
}

// NewProfileChain creates a chain. secondary may be nil.
func NewProfileChain(primary, secondary ProfileSource, logger *slog.Logger) *ProfileChain {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileChain{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With("component", "profile_chain"),
	}
}

// Profile returns the first profile that carries a market cap, or nil.
// Lookup failures are logged and treated as misses; only configuration
// errors are returned.
func (c *ProfileChain) Profile(ctx context.Context, ticker string) (*models.Profile, error) {
	prof, err := c.lookup(ctx, "fmp", c.primary, ticker)
	if err != nil {
		return nil, err
	}
	if hasMarketCap(prof) {
		metrics.ProfileLookups.WithLabelValues("fmp").Inc()
		return prof, nil
	}

	if c.secondary != nil {
		c.logger.Debug("no market cap from primary, trying secondary", "ticker", ticker)
		prof, err = c.lookup(ctx, "otc", c.secondary, ticker)
		if err != nil {
			return nil, err
		}
		if hasMarketCap(prof) {
			metrics.ProfileLookups.WithLabelValues("otc").Inc()
			return prof, nil
		}
	}

	metrics.ProfileLookups.WithLabelValues("none").Inc()
	c.logger.Debug("no market cap data", "ticker", ticker)
	return nil, nil
}

func (c *ProfileChain) lookup(ctx context.Context, name string, src ProfileSource, ticker string) (*models.Profile, error) {
	prof, err := src.Profile(ctx, ticker)
	if err == nil {
		return prof, nil
	}
	if IsConfigurationError(err) {
		return nil, err
	}
	c.logger.Warn("profile lookup failed", "source", name, "ticker", ticker, "error", err)
	return nil, nil
}

func hasMarketCap(p *models.Profile) bool {
	return p != nil && p.MarketCap > 0
}
