package sec

import (
	"time"

	"github.com/seenimoa/secfilter/pkg/models"
)

// RecentQuery selects filings from the near-real-time feed.
type RecentQuery struct {
	FormType string
	Start    time.Time // inclusive, compared by calendar day
	End      time.Time // inclusive
	FetchAll bool      // follow pages until a stop rule fires
	Page     int       // 1-based starting page
}

// entryContent is the company-info block some EDGAR ATOM entries carry in
// their <content> element.
type entryContent struct {
	CompanyName string `xml:"company-name"`
	CIK         string `xml:"cik"`
	FilingType  string `xml:"filing-type"`
	FilingDate  string `xml:"filing-date"`
	FileNumber  string `xml:"file-number"`
	FilingHref  string `xml:"filing-href"`
}

// feedPage is one parsed page of the getcurrent feed.
type feedPage struct {
	filings []models.Filing
	raw     int    // entries in the page before any filtering
	oldest  string // oldest filing date on the page, "" when none carried a date
}
