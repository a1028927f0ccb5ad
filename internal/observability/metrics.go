package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	sweep        SweepStats
}

// SweepStats accumulates breach detector counters across sweeps.
type SweepStats struct {
	Sweeps             int64
	CandidatesSeen     int64
	ResponseBreaches   int64
	ResolutionBreaches int64
	Reassignments      int64
	LostRaces          int64
	NoTechnician       int64
	Failures           int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSweep folds one sweep's outcome into the running totals.
func (m *Metrics) RecordSweep(delta SweepStats) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep.Sweeps++
	m.sweep.CandidatesSeen += delta.CandidatesSeen
	m.sweep.ResponseBreaches += delta.ResponseBreaches
	m.sweep.ResolutionBreaches += delta.ResolutionBreaches
	m.sweep.Reassignments += delta.Reassignments
	m.sweep.LostRaces += delta.LostRaces
	m.sweep.NoTechnician += delta.NoTechnician
	m.sweep.Failures += delta.Failures
}

// SweepSnapshot returns a copy of the accumulated sweep counters.
func (m *Metrics) SweepSnapshot() SweepStats {
	if m == nil {
		return SweepStats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweep
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
