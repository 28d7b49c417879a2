package filings

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seenimoa/secfilter/internal/logging"
	"github.com/seenimoa/secfilter/internal/providers/fmp"
	"github.com/seenimoa/secfilter/internal/providers/sec"
	"github.com/seenimoa/secfilter/pkg/models"
)

var discard = logging.Discard()

func ptr(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeSearcher stands in for FMP ticker lookups.
type fakeSearcher struct {
	list      []models.StockListing
	listErr   error
	byCIK     map[string]string
	byName    map[string]string
	searchErr error

	listCalls atomic.Int32
	cikCalls  atomic.Int32
	nameCalls atomic.Int32

	mu          sync.Mutex
	cikQueries  []string
	nameQueries []string
}

func (f *fakeSearcher) StockList(ctx context.Context) ([]models.StockListing, error) {
	f.listCalls.Add(1)
	return f.list, f.listErr
}

func (f *fakeSearcher) CIKSearch(ctx context.Context, cik string) (string, error) {
	f.cikCalls.Add(1)
	f.mu.Lock()
	f.cikQueries = append(f.cikQueries, cik)
	f.mu.Unlock()
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return f.byCIK[cik], nil
}

func (f *fakeSearcher) NameSearch(ctx context.Context, query string) (string, error) {
	f.nameCalls.Add(1)
	f.mu.Lock()
	f.nameQueries = append(f.nameQueries, query)
	f.mu.Unlock()
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return f.byName[query], nil
}

type fakeLister struct {
	list  []models.StockListing
	err   error
	calls atomic.Int32
}

func (f *fakeLister) SymbolList(ctx context.Context) ([]models.StockListing, error) {
	f.calls.Add(1)
	return f.list, f.err
}

// memStore is an in-memory TickerStore.
type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore { return &memStore{m: make(map[string]string)} }

func (s *memStore) Get(ctx context.Context, cik string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[cik]
	return t, ok, nil
}

func (s *memStore) Set(ctx context.Context, cik, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[cik] = ticker
	return nil
}

// fakeProfiles serves profiles from a map.
type fakeProfiles struct {
	profiles map[string]*models.Profile
	err      error
	calls    atomic.Int32
}

func (f *fakeProfiles) Profile(ctx context.Context, ticker string) (*models.Profile, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[ticker], nil
}

// fakeResolver resolves from a map and tracks peak concurrency.
type fakeResolver struct {
	tickers map[string]string
	err     error
	delay   time.Duration

	inflight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (f *fakeResolver) Resolve(ctx context.Context, cik, nameHint string) (string, error) {
	f.calls.Add(1)
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.tickers[cik], nil
}

// fakeRecent records near-real-time queries.
type fakeRecent struct {
	filings []models.Filing
	err     error

	mu      sync.Mutex
	queries []sec.RecentQuery
}

func (f *fakeRecent) FetchRecent(ctx context.Context, q sec.RecentQuery) ([]models.Filing, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.filings, f.err
}

func (f *fakeRecent) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeHistorical records historical queries and probes.
type fakeHistorical struct {
	available bool
	probeErr  error
	filings   []models.Filing
	err       error

	probes  atomic.Int32
	mu      sync.Mutex
	queries []fmp.HistoricalQuery
}

func (f *fakeHistorical) FetchHistorical(ctx context.Context, q fmp.HistoricalQuery) ([]models.Filing, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.filings, f.err
}

func (f *fakeHistorical) ProbeHistorical(ctx context.Context) (bool, error) {
	f.probes.Add(1)
	return f.available, f.probeErr
}

func (f *fakeHistorical) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}
