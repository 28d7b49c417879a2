package fmp

// --- FMP API response types ---

// fmpProfile is a /v3/profile entry.
type fmpProfile struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	MktCap            float64 `json:"mktCap"`
	CIK               string  `json:"cik"`
	Exchange          string  `json:"exchange"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Industry          string  `json:"industry"`
	Sector            string  `json:"sector"`
	IsActivelyTrading bool    `json:"isActivelyTrading"`
}

// fmpSymbolMatch is a /v3/cik-search or /v3/search entry.
type fmpSymbolMatch struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	CIK               string `json:"cik"`
	ExchangeShortName string `json:"exchangeShortName"`
}

// fmpStock is a /v3/stock/list entry.
type fmpStock struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Exchange          string  `json:"exchange"`
	ExchangeShortName string  `json:"exchangeShortName"`
	Type              string  `json:"type"`
}

// fmpRSSFiling is a /v4/rss_feed entry.
type fmpRSSFiling struct {
	Title       string `json:"title"`
	Symbol      string `json:"symbol"`
	CIK         string `json:"cik"`
	Type        string `json:"type"`
	Link        string `json:"link"`
	FinalLink   string `json:"finalLink"`
	FillingDate string `json:"fillingDate"` // sic
	Date        string `json:"date"`
}

// fmpError is the object FMP returns instead of an array on plan or key errors.
type fmpError struct {
	ErrorMessage string `json:"Error Message"`
	Message      string `json:"message"`
}

func (e fmpError) text() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.Message
}
