package estimator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultShots is used by sampling mode when the caller leaves the shot
// count unset.
const DefaultShots = 1024

// Config groups Estimator construction options.
type Config struct {
	// Mode selects the grouping strategy. Empty defaults to qubit-wise.
	Mode GroupingMode
	// Approximation switches Run to the analytic / normal-approximation
	// paths instead of histogram sampling.
	Approximation bool
	// CacheSize bounds the experiment cache (LRU eviction). Zero means
	// DefaultCacheSize.
	CacheSize int
	// Provider supplies fixed dense-family partitions. Required for
	// GroupingDense, ignored otherwise.
	Provider PartitionProvider
	// Executor runs measurement batches. Required unless Approximation
	// is set.
	Executor Executor
}

// RunOptions carries per-call options.
type RunOptions struct {
	// Shots is the sampling budget per measurement basis. In sampling
	// mode, zero falls back to DefaultShots with a warning. In
	// approximation mode, zero selects the exact path.
	Shots int
	// Seed makes sampling and the normal-approximation draw
	// reproducible. Results never depend on wall-clock time.
	Seed int64
}

// Estimator estimates observable expectation values against circuits
// while minimizing distinct measurement settings. One instance owns its
// experiment cache and identity registries; concurrent Run calls on a
// shared instance serialize around registry and cache mutation.
type Estimator struct {
	mu sync.Mutex

	mode          GroupingMode
	approximation bool
	provider      PartitionProvider
	executor      Executor
	cache         *experimentCache

	// Identity registries grow monotonically: indices are appended,
	// never removed, so cache keys stay stable across calls.
	circuitIDs    map[string]int
	circuits      []Circuit
	params        [][]string
	observableIDs map[string]int
	observables   []*Observable

	Metrics *Metrics
}

// New creates an Estimator from a validated configuration.
func New(cfg Config) (*Estimator, error) {
	if cfg.Mode == "" {
		cfg.Mode = GroupingQubitWise
	}
	if !ValidGroupingModes[cfg.Mode] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrouping, cfg.Mode)
	}
	if cfg.Mode == GroupingDense && cfg.Provider == nil {
		return nil, fmt.Errorf("dense grouping requires a partition provider")
	}
	if !cfg.Approximation && cfg.Executor == nil {
		return nil, fmt.Errorf("sampling mode requires an executor")
	}
	cache, err := newExperimentCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Estimator{
		mode:          cfg.Mode,
		approximation: cfg.Approximation,
		provider:      cfg.Provider,
		executor:      cfg.Executor,
		cache:         cache,
		circuitIDs:    make(map[string]int),
		observableIDs: make(map[string]int),
		Metrics:       NewMetrics(),
	}, nil
}

// Run estimates one expectation value per (circuit, observable,
// parameter values) triple, preserving input order. On any fatal error
// no partial results are returned.
func (e *Estimator) Run(circuits []Circuit, observables []*Observable, parameterValues [][]float64, opts RunOptions) ([]Result, error) {
	if len(circuits) != len(observables) || len(circuits) != len(parameterValues) {
		return nil, fmt.Errorf("mismatched input lengths: %d circuits, %d observables, %d parameter sets",
			len(circuits), len(observables), len(parameterValues))
	}
	if len(circuits) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	circIdxs := e.registerCircuits(circuits)
	obsIdxs := e.registerObservables(observables)

	if e.approximation {
		results, err := e.runApproximation(circIdxs, obsIdxs, parameterValues, opts)
		e.mu.Unlock()
		return results, err
	}

	shots := opts.Shots
	if shots <= 0 {
		logrus.Warnf("shots unset in sampling mode, defaulting to %d", DefaultShots)
		shots = DefaultShots
	}

	key := cacheKey(circIdxs, obsIdxs, false)
	entry, hit := e.cache.get(key)
	if hit {
		e.Metrics.AddCacheHit()
	} else {
		var err error
		entry, err = e.buildEntry(circIdxs, obsIdxs)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		e.cache.add(key, entry)
		e.Metrics.AddCacheMiss()
	}

	plan, err := e.flatten(entry, circIdxs, obsIdxs, parameterValues)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// The executor call blocks outside the critical section; cache
	// entries are immutable once built, so only registry access below
	// needs the lock again.
	var res *ExecResult
	if len(plan.Request.Units) > 0 {
		res, err = e.executor.Submit(plan.Request, ExecOptions{Shots: shots, Seed: opts.Seed})
		if err != nil {
			return nil, fmt.Errorf("executor: %w", err)
		}
		if len(res.Units) != len(plan.Request.Units) {
			return nil, fmt.Errorf("%w: executor returned %d unit results for %d units",
				ErrRouting, len(res.Units), len(plan.Request.Units))
		}
		e.Metrics.AddExecutedUnits(len(plan.Request.Units))
	} else {
		res = &ExecResult{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	results := make([]Result, len(circIdxs))
	for r := range circIdxs {
		results[r], err = e.postProcess(entry, plan, res, r, circIdxs[r], obsIdxs[r])
		if err != nil {
			return nil, err
		}
		e.Metrics.AddShots(results[r].Metadata.Shots)
	}
	return results, nil
}

// registerCircuits assigns (or reuses) a stable identity index per
// circuit key. Caller holds e.mu.
func (e *Estimator) registerCircuits(circuits []Circuit) []int {
	idxs := make([]int, len(circuits))
	for i, c := range circuits {
		key := c.Key()
		idx, ok := e.circuitIDs[key]
		if !ok {
			idx = len(e.circuits)
			e.circuitIDs[key] = idx
			e.circuits = append(e.circuits, c)
			e.params = append(e.params, c.Parameters())
		}
		idxs[i] = idx
	}
	return idxs
}

// registerObservables mirrors registerCircuits for observables.
func (e *Estimator) registerObservables(observables []*Observable) []int {
	idxs := make([]int, len(observables))
	for i, o := range observables {
		key := o.Key()
		idx, ok := e.observableIDs[key]
		if !ok {
			idx = len(e.observables)
			e.observableIDs[key] = idx
			e.observables = append(e.observables, o)
		}
		idxs[i] = idx
	}
	return idxs
}

// buildEntry groups the union of non-identity terms per circuit, builds
// one measurement template per family, and records the term-to-basis
// routing per observable. Caller holds e.mu.
func (e *Estimator) buildEntry(circIdxs, obsIdxs []int) (*CacheEntry, error) {
	// Aggregate observables per circuit so a circuit shared by several
	// requests is grouped once.
	var circOrder []int
	circObs := make(map[int][]int)
	for r, ci := range circIdxs {
		if len(circObs[ci]) == 0 {
			circOrder = append(circOrder, ci)
		}
		circObs[ci] = append(circObs[ci], obsIdxs[r])
	}

	entry := &CacheEntry{
		Families:  make(map[int][]Family),
		Templates: make(map[int][]*Procedure),
		ObsMaps:   make(map[int]map[int][]int),
	}

	for _, ci := range circOrder {
		n := e.circuits[ci].NumQubits()

		// Union of non-identity terms across this circuit's
		// observables, first-seen order, duplicates dropped.
		var union []Pauli
		seen := make(map[Pauli]bool)
		for _, oi := range circObs[ci] {
			for _, t := range e.observables[oi].Terms() {
				if t.Pauli.IsIdentity() || seen[t.Pauli] {
					continue
				}
				seen[t.Pauli] = true
				union = append(union, t.Pauli)
			}
		}

		fams, assign, err := GroupTerms(union, e.mode, e.provider, n)
		if err != nil {
			return nil, err
		}
		e.Metrics.AddFamilies(len(fams))

		templates := make([]*Procedure, len(fams))
		for fi := range fams {
			if fams[fi].Diag != nil {
				templates[fi] = fams[fi].Diag
			} else {
				templates[fi] = BuildMeasurement(fams[fi].Basis)
			}
		}

		obsMap := make(map[int][]int)
		for _, oi := range circObs[ci] {
			if _, done := obsMap[oi]; done {
				continue
			}
			terms := e.observables[oi].Terms()
			row := make([]int, len(terms))
			for ti, t := range terms {
				switch {
				case t.Pauli.IsIdentity():
					row[ti] = basisIdentity
				default:
					if b, ok := assign[t.Pauli]; ok {
						row[ti] = b
					} else {
						row[ti] = basisSkipped
						e.Metrics.AddSkippedTerm()
					}
				}
			}
			obsMap[oi] = row
		}

		entry.Families[ci] = fams
		entry.Templates[ci] = templates
		entry.ObsMaps[ci] = obsMap
	}
	return entry, nil
}
