package fmp

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

// Profile returns the company profile for ticker, or nil when FMP has none.
// Endpoint: /v3/profile/{ticker}
func (p *Provider) Profile(ctx context.Context, ticker string) (*models.Profile, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, nil
	}

	var profiles []fmpProfile
	if err := p.fetchFMPJSON(ctx, "/v3/profile/"+url.PathEscape(ticker), nil, p.metaTimeout, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}

	fp := profiles[0]
	return &models.Profile{
		Ticker:      fp.Symbol,
		CompanyName: fp.CompanyName,
		MarketCap:   fp.MktCap,
		Industry:    fp.Industry,
		Sector:      fp.Sector,
		CIK:         fp.CIK,
		Source:      providerName,
	}, nil
}

// CIKSearch returns the ticker FMP associates with cik, or "" when none.
// Endpoint: /v3/cik-search/{10-digit cik}
func (p *Provider) CIKSearch(ctx context.Context, cik string) (string, error) {
	if strings.TrimSpace(cik) == "" {
		return "", nil
	}
	var matches []fmpSymbolMatch
	if err := p.fetchFMPJSON(ctx, "/v3/cik-search/"+utils.PadCIK(cik), nil, p.metaTimeout, &matches); err != nil {
		return "", err
	}
	return firstSymbol(matches), nil
}

// NameSearch returns the best ticker match for a company name, or "" when none.
// Endpoint: /v3/search?query=&limit=1
func (p *Provider) NameSearch(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(1))

	var matches []fmpSymbolMatch
	if err := p.fetchFMPJSON(ctx, "/v3/search", params, p.metaTimeout, &matches); err != nil {
		return "", err
	}
	return firstSymbol(matches), nil
}

// StockList returns every symbol FMP lists, across all exchanges.
// Endpoint: /v3/stock/list
func (p *Provider) StockList(ctx context.Context) ([]models.StockListing, error) {
	var stocks []fmpStock
	if err := p.fetchFMPJSON(ctx, "/v3/stock/list", nil, p.feedTimeout, &stocks); err != nil {
		return nil, err
	}

	out := make([]models.StockListing, 0, len(stocks))
	for _, s := range stocks {
		if s.Symbol == "" || s.Name == "" {
			continue
		}
		out = append(out, models.StockListing{
			Symbol:   s.Symbol,
			Name:     s.Name,
			Exchange: s.ExchangeShortName,
		})
	}
	p.logger.Debug("stock list fetched", "symbols", len(out))
	return out, nil
}

func firstSymbol(matches []fmpSymbolMatch) string {
	for _, m := range matches {
		if m.Symbol != "" {
			return m.Symbol
		}
	}
	return ""
}
