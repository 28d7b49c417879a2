// Package filings implements the filing acquisition and enrichment
// pipeline: choosing between the near-real-time and historical feeds,
// resolving CIKs to tickers, looking up market data, and assembling
// filtered, deduplicated, paginated results.
package filings

import (
	"errors"

	"github.com/seenimoa/secfilter/internal/provider"
)

var (
	// ErrRateLimitExceeded aborts a fetch when the SEC feed answers 429.
	ErrRateLimitExceeded = provider.ErrRateLimitExceeded

	// ErrProviderUnavailable marks a feed the current plan cannot use.
	ErrProviderUnavailable = provider.ErrProviderUnavailable

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
)

// IsConfigurationError reports whether err stems from missing or invalid
// provider credentials. Such errors always reach the caller.
func IsConfigurationError(err error) bool {
	var credErr *provider.ErrInvalidCredentials
	return errors.As(err, &credErr)
}
