// Package utils provides common formatting and date helpers for secfilter.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatMarketCap formats a market capitalization in compact USD notation.
// e.g., 2.5e12 → "$2.50T", 4.2e9 → "$4.20B", 1.5e6 → "$1.50M".
// A nil or zero value renders as "N/A".
func FormatMarketCap(marketCap *float64) string {
	if marketCap == nil || *marketCap == 0 {
		return "N/A"
	}
	v := *marketCap
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return "$" + formatThousands(int64(math.Round(v)))
	}
}

// FormatMarketCapFull renders the whole-dollar value with thousands
// separators, e.g. 2.5e12 → "2,500,000,000,000". Nil or zero is "N/A".
func FormatMarketCapFull(marketCap *float64) string {
	if marketCap == nil || *marketCap == 0 {
		return "N/A"
	}
	return formatThousands(int64(math.Round(*marketCap)))
}

// formatThousands inserts comma separators: 1234567 → "1,234,567".
func formatThousands(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		if negative {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// PadCIK left-pads a CIK number to 10 digits with zeros.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// TrimCIK strips leading zeros from a CIK: "0000320193" → "320193".
func TrimCIK(cik string) string {
	t := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if t == "" && cik != "" {
		return "0"
	}
	return t
}
