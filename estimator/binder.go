package estimator

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrParameterLength is returned when a requested parameter value vector
// does not match the circuit's declared parameter count.
var ErrParameterLength = errors.New("parameter length mismatch")

// ErrRouting marks an internal invariant violation: a routing lookup
// failed to find an expected batch position. It indicates an engine bug
// and is never recovered.
var ErrRouting = errors.New("batch routing lookup failed")

// planKey addresses one execution unit by circuit identity index and
// basis index within that circuit's grouping.
type planKey struct {
	circ  int
	basis int
}

// BatchPlan is the flattened batch plus the routing needed to locate
// each original request's results after execution: unitIndex maps a
// (circuit, basis) pair to its unit position, valuePos records per
// request the position of its value vector inside each touched unit.
type BatchPlan struct {
	Request   *BatchRequest
	unitIndex map[planKey]int
	valuePos  []map[planKey]int
}

// locate returns the unit index and value position for one request and
// basis. A miss is an ErrRouting invariant violation.
func (p *BatchPlan) locate(reqIdx int, key planKey) (unit, pos int, err error) {
	unit, ok := p.unitIndex[key]
	if !ok {
		return 0, 0, fmt.Errorf("%w: no unit for circuit %d basis %d", ErrRouting, key.circ, key.basis)
	}
	pos, ok = p.valuePos[reqIdx][key]
	if !ok {
		return 0, 0, fmt.Errorf("%w: request %d has no value position for circuit %d basis %d",
			ErrRouting, reqIdx, key.circ, key.basis)
	}
	return unit, pos, nil
}

// flatten validates parameter vectors and aggregates the requests into
// one execution unit per (circuit, basis) pair. Distinct value vectors
// for a pair accumulate in first-seen order; repeated vectors share a
// batch position. Circuits whose grouping produced no measurable basis
// (identity-only observables) contribute no units.
func (e *Estimator) flatten(entry *CacheEntry, circIdxs, obsIdxs []int, parameterValues [][]float64) (*BatchPlan, error) {
	plan := &BatchPlan{
		Request:   &BatchRequest{},
		unitIndex: make(map[planKey]int),
		valuePos:  make([]map[planKey]int, len(circIdxs)),
	}

	for r := range circIdxs {
		ci, oi := circIdxs[r], obsIdxs[r]
		values := parameterValues[r]
		params := e.params[ci]
		if len(values) != len(params) {
			return nil, fmt.Errorf("%w: circuit %q declares %d parameters, got %d values",
				ErrParameterLength, e.circuits[ci].Key(), len(params), len(values))
		}

		plan.valuePos[r] = make(map[planKey]int)
		for _, basisInd := range usedBases(entry.ObsMaps[ci][oi]) {
			key := planKey{circ: ci, basis: basisInd}
			ui, ok := plan.unitIndex[key]
			if !ok {
				ui = len(plan.Request.Units)
				plan.unitIndex[key] = ui
				plan.Request.Units = append(plan.Request.Units, ExecUnit{
					ID:          uuid.New(),
					Circuit:     e.circuits[ci],
					Measurement: entry.Templates[ci][basisInd],
					Params:      params,
				})
			}
			unit := &plan.Request.Units[ui]
			pos := valueSetIndex(unit.ParamSets, values)
			if pos < 0 {
				pos = len(unit.ParamSets)
				unit.ParamSets = append(unit.ParamSets, values)
			}
			plan.valuePos[r][key] = pos
		}
	}
	return plan, nil
}

// usedBases returns the distinct non-sentinel basis indices of one
// observable's routing row, preserving first-seen order.
func usedBases(termBases []int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, b := range termBases {
		if b < 0 || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// valueSetIndex finds values inside sets, or -1. Zero-parameter circuits
// compare as equal empty vectors, so they always share position 0.
func valueSetIndex(sets [][]float64, values []float64) int {
	for i, s := range sets {
		if floatsEqual(s, values) {
			return i
		}
	}
	return -1
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
