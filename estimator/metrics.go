package estimator

import (
	"fmt"
	"sync"
)

// Metrics aggregates engine counters for reporting and diagnostics.
// Counters are cumulative over the Estimator instance's lifetime.
type Metrics struct {
	mu sync.Mutex

	CacheHits     int // experiment cache hits
	CacheMisses   int // experiment cache misses (grouping recomputed)
	FamiliesBuilt int // families produced across all cache misses
	ExecutedUnits int // execution units submitted to the executor
	TotalShots    int // shots consumed across all sampling requests
	SkippedTerms  int // terms dropped by dense-grouping degradation
	// SignFallbacks counts sign/coefficient mismatches recovered with
	// neutral signs. Nonzero values indicate an upstream grouping
	// defect and deserve investigation.
	SignFallbacks int
}

// NewMetrics creates a zeroed metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) AddCacheHit()  { m.mu.Lock(); m.CacheHits++; m.mu.Unlock() }
func (m *Metrics) AddCacheMiss() { m.mu.Lock(); m.CacheMisses++; m.mu.Unlock() }

func (m *Metrics) AddFamilies(n int) { m.mu.Lock(); m.FamiliesBuilt += n; m.mu.Unlock() }

func (m *Metrics) AddExecutedUnits(n int) { m.mu.Lock(); m.ExecutedUnits += n; m.mu.Unlock() }

func (m *Metrics) AddShots(n int) { m.mu.Lock(); m.TotalShots += n; m.mu.Unlock() }

func (m *Metrics) AddSkippedTerm() { m.mu.Lock(); m.SkippedTerms++; m.mu.Unlock() }

func (m *Metrics) AddSignFallback() { m.mu.Lock(); m.SignFallbacks++; m.mu.Unlock() }

// Snapshot returns a copy safe to read without holding the lock.
func (m *Metrics) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		CacheHits:     m.CacheHits,
		CacheMisses:   m.CacheMisses,
		FamiliesBuilt: m.FamiliesBuilt,
		ExecutedUnits: m.ExecutedUnits,
		TotalShots:    m.TotalShots,
		SkippedTerms:  m.SkippedTerms,
		SignFallbacks: m.SignFallbacks,
	}
}

// Print displays the collected counters.
func (m *Metrics) Print() {
	s := m.Snapshot()
	fmt.Println("=== Estimator Metrics ===")
	fmt.Printf("Cache hits           : %d\n", s.CacheHits)
	fmt.Printf("Cache misses         : %d\n", s.CacheMisses)
	fmt.Printf("Families built       : %d\n", s.FamiliesBuilt)
	fmt.Printf("Execution units      : %d\n", s.ExecutedUnits)
	fmt.Printf("Total shots          : %d\n", s.TotalShots)
	if s.SkippedTerms > 0 {
		fmt.Printf("Skipped terms        : %d\n", s.SkippedTerms)
	}
	if s.SignFallbacks > 0 {
		fmt.Printf("Sign fallbacks       : %d (investigate grouping)\n", s.SignFallbacks)
	}
}
