package estimator

import "github.com/google/uuid"

// Histogram maps outcome bitstrings to counts. Bitstrings follow the
// Procedure convention: classical bit 0 is the rightmost character.
type Histogram map[string]int

// Shots returns the total count across all outcomes.
func (h Histogram) Shots() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

// ExecUnit is one execution unit of a batch: a circuit, the measurement
// procedure to append, and every distinct parameter value vector bound
// to the pair, in first-seen order.
type ExecUnit struct {
	ID          uuid.UUID
	Circuit     Circuit
	Measurement *Procedure
	Params      []string
	ParamSets   [][]float64
}

// BatchRequest is the ordered unit list submitted to the executor in one
// call.
type BatchRequest struct {
	Units []ExecUnit
}

// ExecOptions carries run options the executor needs.
type ExecOptions struct {
	Shots int
	Seed  int64
}

// UnitResult holds the executor's output for one unit: one histogram per
// bound parameter set (index-aligned with ExecUnit.ParamSets) plus
// free-form backend metadata.
type UnitResult struct {
	Histograms []Histogram
	Metadata   map[string]any
}

// ExecResult is the executor's response, index-aligned with the
// submitted units.
type ExecResult struct {
	Units []UnitResult
}

// Executor runs measurement batches. Implementations may parallelize
// internally; Submit blocks until every unit has results. The engine
// performs no retries: an executor error fails the whole call.
type Executor interface {
	Submit(batch *BatchRequest, opts ExecOptions) (*ExecResult, error)
}
