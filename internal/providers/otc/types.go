package otc

// otcSymbol is one row of the symbol directory: s is the ticker, c the company.
type otcSymbol struct {
	S string `json:"s"`
	C string `json:"c"`
}

type otcSecurityDetails struct {
	IndustrySector string `json:"industrySector"`
}

// otcProfile is the subset of /company/profile/full the provider reads.
// Market cap and security details appear either at the top level or
// under "profile", depending on the issuer.
type otcProfile struct {
	Symbol          string              `json:"symbol"`
	Name            string              `json:"name"`
	SecurityName    string              `json:"securityName"`
	MarketCap       float64             `json:"marketCap"`
	SecurityDetails *otcSecurityDetails `json:"securityDetails"`
	Profile         *struct {
		MarketCap       float64             `json:"marketCap"`
		SecurityDetails *otcSecurityDetails `json:"securityDetails"`
	} `json:"profile"`
}
