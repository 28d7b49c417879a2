package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/secfilter/internal/config"
	"github.com/seenimoa/secfilter/internal/filings"
	"github.com/seenimoa/secfilter/internal/logging"
	"github.com/seenimoa/secfilter/internal/provider"
	"github.com/seenimoa/secfilter/pkg/models"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>Latest Filings</title>
<id>https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent</id>
<updated>2024-01-05T17:00:00-05:00</updated>
<entry>
<title>10-K - APPLE INC (0000320193) (Filer)</title>
<link rel="alternate" type="text/html" href="https://www.sec.gov/Archives/edgar/data/320193/0000320193-24-000001-index.htm"/>
<summary type="html"> &lt;b&gt;Filed:&lt;/b&gt; 2024-01-05 &lt;b&gt;AccNo:&lt;/b&gt; 0000320193-24-000001</summary>
<updated>2024-01-05T17:00:00-05:00</updated>
<category scheme="https://www.sec.gov/" label="form type" term="10-K"/>
<id>urn:tag:sec.gov,2008:accession-number=0000320193-24-000001</id>
</entry>
<entry>
<title>10-K - OBSCURE HOLDINGS LLC (0000999999) (Filer)</title>
<link rel="alternate" type="text/html" href="https://www.sec.gov/Archives/edgar/data/999999/0000999999-24-000001-index.htm"/>
<summary type="html"> &lt;b&gt;Filed:&lt;/b&gt; 2024-01-04 &lt;b&gt;AccNo:&lt;/b&gt; 0000999999-24-000001</summary>
<updated>2024-01-04T17:00:00-05:00</updated>
<category scheme="https://www.sec.gov/" label="form type" term="10-K"/>
<id>urn:tag:sec.gov,2008:accession-number=0000999999-24-000001</id>
</entry>
</feed>
`

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

// upstream fakes EDGAR, FMP and OTC Markets on one server.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cgi-bin/browse-edgar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(testFeed))
	})
	mux.HandleFunc("/fmp/v3/stock/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{
			{"symbol": "AAPL", "name": "Apple Inc.", "exchangeShortName": "NASDAQ"},
		})
	})
	mux.HandleFunc("/fmp/v3/profile/AAPL", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{{
			"symbol": "AAPL", "companyName": "Apple Inc.", "mktCap": 3.0e12,
			"industry": "Consumer Electronics", "sector": "Technology",
		}})
	})
	mux.HandleFunc("/fmp/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/fmp/v4/") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeJSON(t, w, []any{})
	})
	mux.HandleFunc("/otc/symbols", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{})
	})
	mux.HandleFunc("/otc/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL, apiKey string) *config.Config {
	return &config.Config{
		SEC: config.SECConfig{BaseURL: baseURL, UserAgent: "secfilter-test test@example.com", RateLimit: 1000},
		FMP: config.FMPConfig{APIKey: apiKey, BaseURL: baseURL + "/fmp", RateLimit: 1000},
		OTC: config.OTCConfig{BaseURL: baseURL + "/otc", SymbolsURL: baseURL + "/otc/symbols"},
		Pipeline: config.PipelineConfig{
			BatchSize: 5, RecentWindowDays: 30, MaxPages: 5, EmptyPageLimit: 3,
			DefaultLimit: 50, DefaultRangeDays: 30,
		},
		Cache: config.CacheConfig{
			StockListTTL: time.Hour, AvailabilityTTL: time.Hour, TickerTTL: time.Hour,
		},
		Timeouts: config.TimeoutConfig{Metadata: 5 * time.Second, Feed: 5 * time.Second},
	}
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestRegisterAllTo(t *testing.T) {
	reg := provider.NewRegistry()
	sp, fp, op, err := RegisterAllTo(reg, testConfig("http://127.0.0.1:0", ""), logging.Discard())
	if err != nil {
		t.Fatalf("RegisterAllTo: %v", err)
	}
	defer sp.Close()
	defer fp.Close()

	for _, name := range []string{"sec", "fmp", "otc"} {
		if _, err := reg.Get(name); err != nil {
			t.Errorf("%s not registered: %v", name, err)
		}
	}
	if op.Info().Name != "otc" {
		t.Errorf("otc name: got %q", op.Info().Name)
	}

	// Without a key FMP is registered but refuses to run.
	if err := fp.Validate(); err == nil {
		t.Error("FMP should fail validation without an API key")
	}

	got := reg.ProvidersFor(provider.CapRecentFilings)
	if len(got) != 1 || got[0] != "sec" {
		t.Errorf("recent filings providers: got %v, want [sec]", got)
	}
}

func TestRegisterAllToWarnsSearchesFailWithoutKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(config.LoggingConfig{Level: "warn"}, &buf)
	sp, fp, _, err := RegisterAllTo(provider.NewRegistry(), testConfig("http://127.0.0.1:0", ""), logger)
	if err != nil {
		t.Fatalf("RegisterAllTo: %v", err)
	}
	defer sp.Close()
	defer fp.Close()

	out := buf.String()
	if !strings.Contains(out, "filing searches will fail until FMP_API_KEY is set") {
		t.Errorf("missing key warning not logged: %s", out)
	}
	if strings.Contains(out, "disabled") {
		t.Errorf("warning should not claim anything is disabled: %s", out)
	}
}

func TestRegisterAllToWithKey(t *testing.T) {
	reg := provider.NewRegistry()
	sp, fp, _, err := RegisterAllTo(reg, testConfig("http://127.0.0.1:0", "test-key"), logging.Discard())
	if err != nil {
		t.Fatalf("RegisterAllTo: %v", err)
	}
	defer sp.Close()
	defer fp.Close()

	if err := fp.Validate(); err != nil {
		t.Errorf("FMP Validate: %v", err)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	srv := upstream(t)
	stack, err := Build(context.Background(), testConfig(srv.URL, "test-key"), logging.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer stack.Close()

	res, err := stack.Pipeline.FetchPage(context.Background(), filings.PageRequest{
		FormType: "10-K",
		Start:    day("2024-01-01"),
		End:      day("2024-01-10"),
		Page:     1,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if res.Pagination.TotalResults != 2 {
		t.Fatalf("total results: got %d, want 2", res.Pagination.TotalResults)
	}

	byCIK := make(map[string]models.EnrichedFiling)
	for _, f := range res.Data {
		byCIK[f.CIK] = f
	}

	apple, ok := byCIK["320193"]
	if !ok {
		apple, ok = byCIK["0000320193"]
	}
	if !ok {
		t.Fatalf("apple filing missing: %+v", res.Data)
	}
	if apple.Ticker != "AAPL" {
		t.Errorf("apple ticker: got %q, want AAPL", apple.Ticker)
	}
	if apple.MarketCap == nil || *apple.MarketCap != 3.0e12 {
		t.Errorf("apple market cap: got %v", apple.MarketCap)
	}
	if apple.Sector != "Technology" {
		t.Errorf("apple sector: got %q", apple.Sector)
	}

	for cik, f := range byCIK {
		if strings.HasSuffix(cik, "999999") {
			if f.Ticker != models.NotAvailable || f.MarketCap != nil {
				t.Errorf("unresolved filing: got ticker %q cap %v", f.Ticker, f.MarketCap)
			}
		}
	}
}

func TestBuildWithoutKeySurfacesConfigurationError(t *testing.T) {
	srv := upstream(t)
	stack, err := Build(context.Background(), testConfig(srv.URL, ""), logging.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer stack.Close()

	_, err = stack.Pipeline.FetchPage(context.Background(), filings.PageRequest{
		FormType: "10-K",
		Start:    day("2024-01-01"),
		End:      day("2024-01-10"),
	})
	if !filings.IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	var invalid *provider.ErrInvalidCredentials
	if !errors.As(err, &invalid) {
		t.Errorf("expected ErrInvalidCredentials in chain, got %T", err)
	}
}

func TestBuildSkipsUnreachableTickerStore(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0", "")
	cfg.Cache.RedisURL = "not-a-redis-url"
	stack, err := Build(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer stack.Close()
	if stack.store != nil {
		t.Error("store should be nil when the URL is invalid")
	}
}
