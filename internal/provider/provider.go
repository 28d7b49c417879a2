// Package provider defines the upstream data-provider abstraction: provider
// metadata, credential validation, and a registry used for status reporting
// and connectivity checks.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Capability names a kind of data a provider can serve to the pipeline.
type Capability string

const (
	CapRecentFilings     Capability = "RecentFilings"     // near-real-time filings feed
	CapHistoricalFilings Capability = "HistoricalFilings" // date-filterable filings feed
	CapProfile           Capability = "Profile"           // market cap, industry, sector by ticker
	CapTickerSearch      Capability = "TickerSearch"      // CIK or name → ticker
	CapStockList         Capability = "StockList"         // full reference symbol list
)

// AllCapabilities lists every capability in reporting order.
var AllCapabilities = []Capability{
	CapRecentFilings, CapHistoricalFilings, CapProfile, CapTickerSearch, CapStockList,
}

// ProviderCredential describes a required credential for a provider.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "api_key"
	Description string `json:"description"` // e.g., "FMP API key from financialmodelingprep.com"
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // environment variable name, e.g., "FMP_API_KEY"
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name         string               `json:"name"`        // e.g., "sec", "fmp", "otc"
	Description  string               `json:"description"` // human-readable description
	Website      string               `json:"website"`
	Credentials  []ProviderCredential `json:"credentials"`
	Capabilities []Capability         `json:"capabilities"`
}

// Provider is the interface all upstream providers implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init stores credentials. Returns *ErrInvalidCredentials when a
	// required credential is missing.
	Init(credentials map[string]string) error

	// Ping verifies the provider's connectivity and credentials.
	Ping(ctx context.Context) error
}

var (
	// ErrRateLimitExceeded is returned when an upstream answers 429. It aborts
	// the current fetch and is not retried.
	ErrRateLimitExceeded = errors.New("upstream rate limit exceeded")

	// ErrProviderUnavailable marks a provider that cannot serve the request
	// at all (e.g. a premium-only endpoint). Callers fall back to another source.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrInvalidCredentials is returned when provider credentials are missing or
// invalid. It is the configuration error of the pipeline and is never
// swallowed by fallback logic.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}
