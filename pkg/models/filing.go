package models

// NotAvailable is the placeholder used for unresolved ticker, industry and sector.
const NotAvailable = "N/A"

// Filing represents a single SEC filing as parsed from a filings feed.
type Filing struct {
	Company     string `json:"company"`
	CIK         string `json:"cik"`
	FormType    string `json:"formType"`   // "10-K", "10-Q", "8-K", ...
	FilingDate  string `json:"filingDate"` // YYYY-MM-DD
	DocumentURL string `json:"filingUrl,omitempty"`
	FileNumber  string `json:"fileNumber,omitempty"`
	Symbol      string `json:"-"` // ticker reported by the feed itself, if any
}

// FilingKey identifies a filing. Two filings with the same key are duplicates.
type FilingKey struct {
	CIK        string
	FormType   string
	FilingDate string
}

// Key returns the identity key of the filing.
func (f Filing) Key() FilingKey {
	return FilingKey{CIK: f.CIK, FormType: f.FormType, FilingDate: f.FilingDate}
}

// EnrichedFiling is a Filing joined with market data for the filer.
type EnrichedFiling struct {
	Filing
	Ticker    string   `json:"ticker"`
	MarketCap *float64 `json:"marketCap"`
	Industry  string   `json:"industry"`
	Sector    string   `json:"sector"`
}

// Profile holds the enrichment fields returned by a market-data provider.
type Profile struct {
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"companyName,omitempty"`
	MarketCap   float64 `json:"marketCap"`
	Industry    string  `json:"industry,omitempty"`
	Sector      string  `json:"sector,omitempty"`
	CIK         string  `json:"cik,omitempty"`
	Source      string  `json:"source"` // "fmp" or "otc"
}

// StockListing is one row of a reference stock list.
type StockListing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	CIK      string `json:"cik,omitempty"`
}

// FilterCriteria bounds market cap. Nil bounds are not applied.
type FilterCriteria struct {
	MinMarketCap *float64 `json:"minMarketCap,omitempty"`
	MaxMarketCap *float64 `json:"maxMarketCap,omitempty"`
}

// Allows reports whether a filing with the given market cap passes the filter.
// Filings without market cap data always pass.
func (c FilterCriteria) Allows(marketCap *float64) bool {
	if marketCap == nil {
		return true
	}
	if c.MinMarketCap != nil && *marketCap < *c.MinMarketCap {
		return false
	}
	if c.MaxMarketCap != nil && *marketCap > *c.MaxMarketCap {
		return false
	}
	return true
}

// Pagination describes the page window of a PaginatedResult.
type Pagination struct {
	CurrentPage    int  `json:"currentPage"`
	TotalPages     int  `json:"totalPages"`
	TotalResults   int  `json:"totalResults"`
	ResultsPerPage int  `json:"resultsPerPage"`
	HasMore        bool `json:"hasMore"`
}

// PaginatedResult is one page of enriched filings.
type PaginatedResult struct {
	Data       []EnrichedFiling `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// ExportResult carries every enriched filing of a search.
type ExportResult struct {
	Data  []EnrichedFiling `json:"data"`
	Total int              `json:"total"`
}
