// Package metrics keeps in-process counters of pipeline runs.
package metrics

import (
	"sync"
	"time"
)

// window is how many recent run durations feed the summary.
const window = 100

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Runs       int64            `json:"runs"`
	Accepted   int64            `json:"accepted"`
	Rejected   map[string]int64 `json:"rejected"`
	Cancelled  int64            `json:"cancelled"`
	Proposals  int64            `json:"proposals"`
	CacheHits  int64            `json:"cache_hits"`
	Warnings   int64            `json:"warnings"`
	RunSeconds MetricSummary    `json:"run_seconds"`
	Since      time.Time        `json:"since"`
}

// MetricSummary summarizes the recent values of one measurement.
type MetricSummary struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	Average float64 `json:"average"`
	Peak    float64 `json:"peak"`
	Minimum float64 `json:"minimum"`
	Current float64 `json:"current"`
	Trend   string  `json:"trend"` // "increasing", "decreasing", "stable"
	Samples int     `json:"samples"`
}

// Recorder is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	runs      int64
	accepted  int64
	rejected  map[string]int64
	cancelled int64
	proposals int64
	cacheHits int64
	warnings  int64
	durations []float64
	since     time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{rejected: make(map[string]int64), since: time.Now()}
}

// Accepted records a run that produced an analysis.
func (r *Recorder) Accepted(proposals, warnings int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.accepted++
	r.proposals += int64(proposals)
	r.warnings += int64(warnings)
	r.observe(d)
}

// Rejected records a run that ended without an analysis.
func (r *Recorder) Rejected(reason string, proposals int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.rejected[reason]++
	r.proposals += int64(proposals)
	r.observe(d)
}

// Cancelled records a run abandoned by its caller.
func (r *Recorder) Cancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.cancelled++
}

// CacheHit records a request answered from the store.
func (r *Recorder) CacheHit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cacheHits++
}

func (r *Recorder) observe(d time.Duration) {
	r.durations = append(r.durations, d.Seconds())
	if len(r.durations) > window {
		r.durations = r.durations[len(r.durations)-window:]
	}
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		Runs:       r.runs,
		Accepted:   r.accepted,
		Rejected:   make(map[string]int64, len(r.rejected)),
		Cancelled:  r.cancelled,
		Proposals:  r.proposals,
		CacheHits:  r.cacheHits,
		Warnings:   r.warnings,
		RunSeconds: summarize("run_duration", "seconds", r.durations),
		Since:      r.since,
	}
	for k, v := range r.rejected {
		s.Rejected[k] = v
	}
	return s
}

func summarize(name, unit string, values []float64) MetricSummary {
	m := MetricSummary{Name: name, Unit: unit, Trend: calculateTrend(values), Samples: len(values)}
	if len(values) == 0 {
		return m
	}
	m.Peak, m.Minimum = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		sum += v
		if v > m.Peak {
			m.Peak = v
		}
		if v < m.Minimum {
			m.Minimum = v
		}
	}
	m.Average = sum / float64(len(values))
	m.Current = values[len(values)-1]
	return m
}

// calculateTrend compares the last value against the first.
func calculateTrend(values []float64) string {
	if len(values) < 2 {
		return "stable"
	}

	first := values[0]
	last := values[len(values)-1]
	diff := last - first

	if diff > first*0.1 {
		return "increasing"
	} else if diff < -first*0.1 {
		return "decreasing"
	}
	return "stable"
}
