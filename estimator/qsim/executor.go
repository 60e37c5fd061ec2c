package qsim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/atlytle/dense-ev/estimator"
)

// Executor is a statevector-backed estimator.Executor. It simulates
// every unit circuit exactly, appends the unit's measurement procedure,
// and samples shot outcomes from the resulting distribution with a
// partitioned RNG so each (unit, binding) pair draws from an isolated
// stream.
type Executor struct{}

// NewExecutor creates a statevector executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Submit simulates every unit in the batch and returns one histogram
// per bound parameter set. Units must carry *qsim.Circuit payloads.
func (ex *Executor) Submit(batch *estimator.BatchRequest, opts estimator.ExecOptions) (*estimator.ExecResult, error) {
	if opts.Shots <= 0 {
		return nil, fmt.Errorf("qsim: shots must be positive, got %d", opts.Shots)
	}
	prng := NewPartitionedRNG(NewSamplingKey(opts.Seed))
	result := &estimator.ExecResult{
		Units: make([]estimator.UnitResult, 0, len(batch.Units)),
	}
	for ui, unit := range batch.Units {
		qc, ok := unit.Circuit.(*Circuit)
		if !ok {
			return nil, fmt.Errorf("qsim: unit %d carries a %T, want *qsim.Circuit",
				ui, unit.Circuit)
		}
		ur := estimator.UnitResult{
			Histograms: make([]estimator.Histogram, 0, len(unit.ParamSets)),
			Metadata: map[string]any{
				"method": "statevector",
				"job_id": unit.ID.String(),
				"shots":  opts.Shots,
			},
		}
		for bi, values := range unit.ParamSets {
			hist, err := ex.runBinding(qc, unit.Measurement, values, opts.Shots,
				prng.ForSubsystem(SubsystemUnit(ui, bi)))
			if err != nil {
				return nil, fmt.Errorf("qsim: unit %d binding %d: %w", ui, bi, err)
			}
			ur.Histograms = append(ur.Histograms, hist)
		}
		logrus.Debugf("qsim: unit %d (%s) simulated, %d bindings, %d shots each",
			ui, unit.ID, len(unit.ParamSets), opts.Shots)
		result.Units = append(result.Units, ur)
	}
	return result, nil
}

// runBinding simulates one parameter binding of a unit and samples its
// measurement histogram.
func (ex *Executor) runBinding(qc *Circuit, proc *estimator.Procedure, values []float64, shots int, rng *rand.Rand) (estimator.Histogram, error) {
	state, err := qc.run(values)
	if err != nil {
		return nil, err
	}
	if proc != nil {
		for _, g := range proc.Gates {
			if err := applyGate(state, g); err != nil {
				return nil, err
			}
		}
	}
	var measured []int
	if proc != nil {
		measured = proc.MeasuredQubits
	}
	return sampleHistogram(state, measured, shots, rng), nil
}

// sampleHistogram draws shot outcomes from the statevector's Born
// distribution and marginalizes each outcome to the measured qubits.
// Classical bit k reads qubit measured[k] and lands at the rightmost-k
// position of the bitstring.
func sampleHistogram(state []complex128, measured []int, shots int, rng *rand.Rand) estimator.Histogram {
	cum := make([]float64, len(state))
	total := 0.0
	for i, amp := range state {
		total += real(amp)*real(amp) + imag(amp)*imag(amp)
		cum[i] = total
	}
	hist := make(estimator.Histogram)
	for s := 0; s < shots; s++ {
		r := rng.Float64() * total
		outcome := sort.SearchFloat64s(cum, r)
		if outcome == len(state) {
			outcome = len(state) - 1
		}
		hist[bitstring(outcome, measured)]++
	}
	return hist
}

// bitstring extracts the measured qubits from a basis-state index into
// an outcome string, clbit 0 rightmost.
func bitstring(outcome int, measured []int) string {
	if len(measured) == 0 {
		return ""
	}
	buf := make([]byte, len(measured))
	for k, q := range measured {
		if outcome>>uint(q)&1 == 1 {
			buf[len(measured)-1-k] = '1'
		} else {
			buf[len(measured)-1-k] = '0'
		}
	}
	return string(buf)
}
