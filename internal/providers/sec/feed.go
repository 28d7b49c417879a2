package sec

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/secfilter/pkg/models"
	"github.com/seenimoa/secfilter/pkg/utils"
)

var (
	// "10-K - ATMOS ENERGY CORP (0000731802) (Filer)"
	titlePattern = regexp.MustCompile(`^(.+?)\s+-\s+(.+?)\s*\((\d+)\)`)

	// "Filed: 2024-01-05 AccNo: ..."
	filedPattern = regexp.MustCompile(`Filed:\s*(?:</b>\s*)?(\d{4}-\d{2}-\d{2})`)
)

// parseFeed parses one getcurrent ATOM page. Entries lacking company, CIK
// or form type are dropped without affecting their siblings.
func parseFeed(r io.Reader) (feedPage, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return feedPage{}, fmt.Errorf("parse EDGAR feed: %w", err)
	}

	page := feedPage{raw: len(feed.Items)}
	for _, item := range feed.Items {
		f, ok := entryFiling(item)
		if !ok {
			continue
		}
		if f.FilingDate != "" && (page.oldest == "" || f.FilingDate < page.oldest) {
			page.oldest = f.FilingDate
		}
		page.filings = append(page.filings, f)
	}
	return page, nil
}

// entryFiling extracts a filing from a feed entry. Structured company-info
// content is preferred; the title, summary, link and category are fallbacks.
func entryFiling(item *gofeed.Item) (models.Filing, bool) {
	c := parseContent(item.Content)
	f := models.Filing{
		Company:     strings.TrimSpace(c.CompanyName),
		CIK:         strings.TrimSpace(c.CIK),
		FormType:    strings.TrimSpace(c.FilingType),
		FilingDate:  utils.NormalizeFilingDate(c.FilingDate),
		FileNumber:  strings.TrimSpace(c.FileNumber),
		DocumentURL: strings.TrimSpace(c.FilingHref),
	}

	if f.Company == "" || f.CIK == "" {
		if form, company, cik, ok := parseTitle(item.Title); ok {
			f.FormType, f.Company, f.CIK = form, company, cik
		}
	}
	if f.FilingDate == "" {
		f.FilingDate = summaryDate(item.Description)
	}
	if f.DocumentURL == "" {
		f.DocumentURL = item.Link
	}
	if f.FormType == "" && len(item.Categories) > 0 {
		f.FormType = strings.TrimSpace(item.Categories[0])
	}

	if f.Company == "" || f.CIK == "" || f.FormType == "" {
		return models.Filing{}, false
	}
	return f, true
}

// parseContent collects the company-info elements of an entry's content,
// at any nesting depth. Content that is not XML yields an empty result.
func parseContent(content string) entryContent {
	var c entryContent
	content = strings.TrimSpace(content)
	if content == "" || !strings.HasPrefix(content, "<") {
		return c
	}

	fields := map[string]*string{
		"company-name":   &c.CompanyName,
		"conformed-name": &c.CompanyName,
		"cik":            &c.CIK,
		"filing-type":    &c.FilingType,
		"filing-date":    &c.FilingDate,
		"file-number":    &c.FileNumber,
		"filing-href":    &c.FilingHref,
	}

	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = false
	var current *string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = fields[strings.ToLower(t.Name.Local)]
		case xml.CharData:
			if current != nil && *current == "" {
				*current = strings.TrimSpace(string(t))
			}
		case xml.EndElement:
			current = nil
		}
	}
	return c
}

// parseTitle splits "{form} - {company} ({cik})".
func parseTitle(title string) (form, company, cik string, ok bool) {
	m := titlePattern.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), m[3], true
}

// summaryDate finds the "Filed:" date in an entry summary. The summary is
// HTML ("<b>Filed:</b> 2024-01-05 ..."), so its text is extracted first.
func summaryDate(summary string) string {
	if summary == "" {
		return ""
	}
	text := summary
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(summary)); err == nil {
		text = doc.Text()
	}
	if m := filedPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
