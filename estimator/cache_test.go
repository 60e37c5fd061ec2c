package estimator

import (
	"testing"
)

func TestCacheKey_DistinguishesRequestShapes(t *testing.T) {
	keys := map[string]bool{
		cacheKey([]int{0}, []int{0}, false):       true,
		cacheKey([]int{0}, []int{1}, false):       true,
		cacheKey([]int{1}, []int{0}, false):       true,
		cacheKey([]int{0, 1}, []int{0, 0}, false): true,
		cacheKey([]int{0}, []int{0}, true):        true,
	}
	if len(keys) != 5 {
		t.Errorf("expected 5 distinct keys, got %d", len(keys))
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := cacheKey([]int{3, 1}, []int{2, 2}, true)
	b := cacheKey([]int{3, 1}, []int{2, 2}, true)
	if a != b {
		t.Errorf("same inputs produced %q and %q", a, b)
	}
}

func TestExperimentCache_EvictsLeastRecentlyUsed(t *testing.T) {
	// GIVEN a cache with capacity 2 holding entries a and b
	cache, err := newExperimentCache(2)
	if err != nil {
		t.Fatalf("cache construction failed: %v", err)
	}
	cache.add("a", &CacheEntry{})
	cache.add("b", &CacheEntry{})

	// WHEN a is touched and a third entry is added
	if _, ok := cache.get("a"); !ok {
		t.Fatal("entry a must be present")
	}
	cache.add("c", &CacheEntry{})

	// THEN b (least recently used) is gone and a survives
	if _, ok := cache.get("b"); ok {
		t.Error("entry b should have been evicted")
	}
	if _, ok := cache.get("a"); !ok {
		t.Error("entry a should have survived")
	}
	if _, ok := cache.get("c"); !ok {
		t.Error("entry c should be present")
	}
}

func TestExperimentCache_ZeroSizeFallsBackToDefault(t *testing.T) {
	cache, err := newExperimentCache(0)
	if err != nil {
		t.Fatalf("cache construction failed: %v", err)
	}
	cache.add("k", &CacheEntry{})
	if _, ok := cache.get("k"); !ok {
		t.Error("default-sized cache must retain entries")
	}
}

func TestRun_RepeatedRequest_HitsCache(t *testing.T) {
	// GIVEN an estimator and one (circuit, observable) request
	exec := &fakeExecutor{}
	est, err := New(Config{Mode: GroupingQubitWise, Executor: exec})
	if err != nil {
		t.Fatalf("estimator construction failed: %v", err)
	}
	circ := &fakeCircuit{n: 1, key: "c1"}
	obs := mustObservable(1, obsTerm{"Z", 1})

	// WHEN the same request runs twice
	for i := 0; i < 2; i++ {
		if _, err := est.Run([]Circuit{circ}, []*Observable{obs}, [][]float64{nil},
			RunOptions{Shots: 100}); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}

	// THEN the second run reuses the first grouping
	m := est.Metrics.Snapshot()
	if m.CacheMisses != 1 {
		t.Errorf("expected 1 cache miss, got %d", m.CacheMisses)
	}
	if m.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", m.CacheHits)
	}
	if m.FamiliesBuilt != 1 {
		t.Errorf("grouping should have run once, families=%d", m.FamiliesBuilt)
	}
}
