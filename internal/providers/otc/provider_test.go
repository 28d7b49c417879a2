package otc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seenimoa/secfilter/internal/logging"
	"github.com/seenimoa/secfilter/internal/provider"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:    srv.URL,
		SymbolsURL: srv.URL + "/data/symbols",
		Logger:     logging.Discard(),
	})
}

func TestProviderInfo(t *testing.T) {
	p := New(Options{Logger: logging.Discard()})
	info := p.Info()
	if info.Name != "otc" {
		t.Errorf("expected name otc, got %s", info.Name)
	}
	if len(info.Credentials) != 0 {
		t.Errorf("expected no credentials, got %d", len(info.Credentials))
	}
	if !p.Supports(provider.CapProfile) || !p.Supports(provider.CapStockList) {
		t.Error("expected profile and stock list capabilities")
	}
}

func TestSymbolList(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/symbols" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Origin") != "https://www.otcmarkets.com" {
			t.Error("missing browser Origin header")
		}
		_, _ = w.Write([]byte(`[{"s":"ABCD","c":"Abcd Holdings Inc"},{"s":"","c":"No Symbol"},{"s":"EFGH"}]`))
	})

	list, err := p.SymbolList(context.Background())
	if err != nil {
		t.Fatalf("SymbolList: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(list))
	}
	if list[0].Symbol != "ABCD" || list[0].Name != "Abcd Holdings Inc" {
		t.Errorf("unexpected listing %+v", list[0])
	}
}

func TestProfileTopLevel(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/company/profile/full/ABCD" || r.URL.Query().Get("symbol") != "ABCD" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"symbol":"ABCD","name":"Abcd Holdings","marketCap":12500000,
			"securityDetails":{"industrySector":"Biotechnology"}}`))
	})

	prof, err := p.Profile(context.Background(), "abcd")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if prof.MarketCap != 12500000 {
		t.Errorf("expected market cap 12500000, got %v", prof.MarketCap)
	}
	if prof.Industry != "Biotechnology" || prof.Sector != "Biotechnology" {
		t.Errorf("expected industrySector in both fields, got %q/%q", prof.Industry, prof.Sector)
	}
	if prof.Source != "otc" {
		t.Errorf("expected source otc, got %s", prof.Source)
	}
}

func TestProfileNested(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"securityName":"Nested Corp","profile":{"marketCap":900000,
			"securityDetails":{"industrySector":"Mining"}}}`))
	})

	prof, err := p.Profile(context.Background(), "NEST")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if prof.Ticker != "NEST" || prof.CompanyName != "Nested Corp" {
		t.Errorf("unexpected identity %+v", prof)
	}
	if prof.MarketCap != 900000 || prof.Industry != "Mining" {
		t.Errorf("nested fields not read: %+v", prof)
	}
}

func TestProfileDefaults(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BARE"}`))
	})
	prof, err := p.Profile(context.Background(), "BARE")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if prof.Industry != "N/A" || prof.Sector != "N/A" || prof.MarketCap != 0 {
		t.Errorf("unexpected defaults %+v", prof)
	}
}

func TestProfileNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	prof, err := p.Profile(context.Background(), "GONE")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if prof != nil {
		t.Errorf("expected nil profile, got %+v", prof)
	}
}

func TestProfileServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := p.Profile(context.Background(), "ABCD"); err == nil {
		t.Error("expected error on 502")
	}
}
