package filings

import "time"

// Status is a point-in-time view of the pipeline's caches, for status
// reporting. Nothing here triggers a load.
type Status struct {
	HistoricalFeed string                     `json:"historical_feed"` // available, unavailable or unknown
	TickerMemo     int                        `json:"ticker_memo_entries"`
	References     map[string]ReferenceStatus `json:"reference_lists"`
}

// ReferenceStatus describes one reference stock list.
type ReferenceStatus struct {
	Loaded  bool    `json:"loaded"`
	Entries int     `json:"entries"`
	AgeSecs float64 `json:"age_seconds,omitempty"`
}

// CurrentStatus collects Status from the source and the resolver. Either
// may be nil. Expired memo entries are pruned on the way.
func CurrentStatus(src *HybridSource, r *TickerResolver) Status {
	st := Status{HistoricalFeed: "unknown", References: map[string]ReferenceStatus{}}
	if src != nil {
		if avail, known := src.HistoricalAvailable(); known {
			st.HistoricalFeed = "unavailable"
			if avail {
				st.HistoricalFeed = "available"
			}
		}
	}
	if r != nil {
		st.TickerMemo = r.Prune()
		sizes := r.ReferenceSizes()
		for name, age := range r.ReferenceAges() {
			rs := ReferenceStatus{Loaded: age >= 0, Entries: sizes[name]}
			if rs.Loaded {
				rs.AgeSecs = age.Round(time.Second).Seconds()
			}
			st.References[name] = rs
		}
	}
	return st
}
