// Package perf keeps a bounded window of request and query timings for the
// admin perf endpoint.
package perf

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCapacity is the ring size used when none is given.
const DefaultCapacity = 4096

// Kind separates HTTP requests from database statements.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

// Sample is one timed operation.
type Sample struct {
	Kind     Kind
	Label    string // "GET /api/weeks/{date}" or "SELECT week"
	Status   int    // HTTP status, zero for queries
	Duration time.Duration
	At       time.Time
}

// Collector is a fixed-size ring of samples. Record overwrites the oldest
// sample once full; aggregation happens in Report.
type Collector struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	total   atomic.Int64
}

// NewCollector creates a collector holding up to capacity samples.
func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collector{samples: make([]Sample, capacity)}
}

// Record stores a sample.
// POST: the oldest sample is dropped when the ring is full
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	c.samples[c.next] = s
	c.next = (c.next + 1) % len(c.samples)
	c.mu.Unlock()
	c.total.Add(1)
}

// Total returns the number of samples ever recorded.
func (c *Collector) Total() int64 {
	return c.total.Load()
}

// LabelStats aggregates the samples sharing one label.
type LabelStats struct {
	Label     string  `json:"label"`
	Count     int     `json:"count"`
	AvgMs     float64 `json:"avgMs"`
	MaxMs     float64 `json:"maxMs"`
	ErrorRate float64 `json:"errorRate,omitempty"`
	totalMs   float64
	errors    int
}

// Report is the aggregated view of the ring since a point in time.
type Report struct {
	Since          time.Time    `json:"since"`
	Recorded       int64        `json:"recorded"`
	Requests       int          `json:"requests"`
	RequestP50Ms   float64      `json:"requestP50Ms"`
	RequestP95Ms   float64      `json:"requestP95Ms"`
	RequestP99Ms   float64      `json:"requestP99Ms"`
	SlowestRoutes  []LabelStats `json:"slowestRoutes"`
	SlowestQueries []LabelStats `json:"slowestQueries"`
}

// Report aggregates samples taken at or after since, keeping the topN
// slowest labels of each kind by average duration.
func (c *Collector) Report(since time.Time, topN int) Report {
	c.mu.Lock()
	buf := slices.Clone(c.samples)
	c.mu.Unlock()

	routes := map[string]*LabelStats{}
	queries := map[string]*LabelStats{}
	var durations []float64

	for _, s := range buf {
		if s.At.IsZero() || s.At.Before(since) {
			continue
		}
		ms := float64(s.Duration.Microseconds()) / 1000.0
		group := queries
		if s.Kind == KindRequest {
			group = routes
			durations = append(durations, ms)
		}
		st, ok := group[s.Label]
		if !ok {
			st = &LabelStats{Label: s.Label}
			group[s.Label] = st
		}
		st.Count++
		st.totalMs += ms
		st.MaxMs = max(st.MaxMs, ms)
		if s.Status >= 500 {
			st.errors++
		}
	}

	r := Report{
		Since:          since,
		Recorded:       c.Total(),
		Requests:       len(durations),
		SlowestRoutes:  slowest(routes, topN),
		SlowestQueries: slowest(queries, topN),
	}
	if len(durations) > 0 {
		slices.Sort(durations)
		r.RequestP50Ms = percentile(durations, 50)
		r.RequestP95Ms = percentile(durations, 95)
		r.RequestP99Ms = percentile(durations, 99)
	}
	return r
}

// percentile interpolates the p-th percentile of an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	idx := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func slowest(stats map[string]*LabelStats, n int) []LabelStats {
	out := make([]LabelStats, 0, len(stats))
	for _, st := range stats {
		st.AvgMs = st.totalMs / float64(st.Count)
		st.ErrorRate = float64(st.errors) / float64(st.Count)
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b LabelStats) int {
		switch {
		case a.AvgMs > b.AvgMs:
			return -1
		case a.AvgMs < b.AvgMs:
			return 1
		}
		return cmpString(a.Label, b.Label)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
