package otc

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/seenimoa/secfilter/internal/infra"
	"github.com/seenimoa/secfilter/pkg/models"
)

// SymbolList returns the OTC symbol directory. Rows missing a symbol or a
// company name are dropped.
func (p *Provider) SymbolList(ctx context.Context) ([]models.StockListing, error) {
	var rows []otcSymbol
	if err := infra.GetJSON(ctx, p.symbolsURL, browserHeaders(), p.listTimeout, &rows); err != nil {
		return nil, err
	}

	out := make([]models.StockListing, 0, len(rows))
	for _, r := range rows {
		if r.S == "" || r.C == "" {
			continue
		}
		out = append(out, models.StockListing{Symbol: r.S, Name: r.C, Exchange: "OTC"})
	}
	p.logger.Debug("symbol list fetched", "symbols", len(out))
	return out, nil
}

// Profile returns the OTC profile for ticker, or nil when OTC Markets does
// not know it.
func (p *Provider) Profile(ctx context.Context, ticker string) (*models.Profile, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, nil
	}
	op, err := p.fetchProfile(ctx, ticker)
	if err != nil {
		if infra.StatusCode(err) == http.StatusNotFound {
			p.logger.Debug("ticker not found", "ticker", ticker)
			return nil, nil
		}
		return nil, err
	}

	prof := &models.Profile{
		Ticker:      op.Symbol,
		CompanyName: op.Name,
		MarketCap:   op.MarketCap,
		Industry:    models.NotAvailable,
		Sector:      models.NotAvailable,
		Source:      providerName,
	}
	if prof.Ticker == "" {
		prof.Ticker = ticker
	}
	if prof.CompanyName == "" {
		prof.CompanyName = op.SecurityName
	}

	details := op.SecurityDetails
	if op.Profile != nil {
		if prof.MarketCap == 0 {
			prof.MarketCap = op.Profile.MarketCap
		}
		if details == nil {
			details = op.Profile.SecurityDetails
		}
	}
	if details != nil && details.IndustrySector != "" {
		// OTC Markets publishes a single classification for both fields.
		prof.Industry = details.IndustrySector
		prof.Sector = details.IndustrySector
	}
	return prof, nil
}

func (p *Provider) fetchProfile(ctx context.Context, ticker string) (otcProfile, error) {
	esc := url.PathEscape(ticker)
	u := p.baseURL + "/company/profile/full/" + esc + "?symbol=" + url.QueryEscape(ticker)

	var op otcProfile
	if err := infra.GetJSON(ctx, u, browserHeaders(), p.metaTimeout, &op); err != nil {
		return otcProfile{}, err
	}
	return op, nil
}
