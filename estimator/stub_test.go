package estimator

import (
	"fmt"
	"strings"
)

// fakeCircuit is a minimal Circuit for engine tests: identity is the
// key string, no simulation behind it.
type fakeCircuit struct {
	n      int
	key    string
	params []string
}

func (f *fakeCircuit) NumQubits() int       { return f.n }
func (f *fakeCircuit) Parameters() []string { return f.params }
func (f *fakeCircuit) Key() string          { return f.key }

// analyticCircuit adds a canned analytic oracle on top of fakeCircuit.
type analyticCircuit struct {
	fakeCircuit
	expectation func(obs *Observable, values []float64) (complex128, error)
}

func (a *analyticCircuit) AnalyticExpectation(obs *Observable, values []float64) (complex128, error) {
	return a.expectation(obs, values)
}

// fakeExecutor answers every binding of every unit with the same
// histogram and records the batches it saw.
type fakeExecutor struct {
	hist    Histogram
	batches []*BatchRequest
	err     error
}

func (f *fakeExecutor) Submit(batch *BatchRequest, opts ExecOptions) (*ExecResult, error) {
	f.batches = append(f.batches, batch)
	if f.err != nil {
		return nil, f.err
	}
	res := &ExecResult{}
	for ui, unit := range batch.Units {
		ur := UnitResult{Metadata: map[string]any{"unit": ui}}
		for range unit.ParamSets {
			hist := f.hist
			if hist == nil {
				// All-zeros outcome with the requested shot count.
				hist = Histogram{strings.Repeat("0", unit.Measurement.NumBits()): opts.Shots}
			}
			ur.Histograms = append(ur.Histograms, hist)
		}
		res.Units = append(res.Units, ur)
	}
	return res, nil
}

// constantExpectation builds an oracle returning the same value for any
// observable.
func constantExpectation(v complex128) func(*Observable, []float64) (complex128, error) {
	return func(*Observable, []float64) (complex128, error) { return v, nil }
}

// obsTerm is one (label, coefficient) pair for test observables. A
// slice keeps term order deterministic, unlike a map literal.
type obsTerm struct {
	label string
	coeff complex128
}

func mustObservable(n int, terms ...obsTerm) *Observable {
	obs := NewObservable(n)
	for _, t := range terms {
		if err := obs.Add(t.label, t.coeff); err != nil {
			panic(fmt.Sprintf("bad test observable: %v", err))
		}
	}
	return obs
}
