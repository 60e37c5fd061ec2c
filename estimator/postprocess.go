package estimator

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Result is one estimation outcome, returned in input order.
type Result struct {
	// Value is the combined expectation. A near-real imaginary part is
	// clipped to zero within floating tolerance.
	Value    complex128
	Metadata ResultMetadata
}

// ResultMetadata carries the statistical context of a Result.
type ResultMetadata struct {
	// Shots consumed across every basis measured for this request.
	// Identity-only observables consume zero.
	Shots int
	// Variance is the combined variance under the per-basis
	// independence assumption (each basis runs on its own shot batch).
	Variance float64
	// BackendMetadata is the executor's free-form metadata for every
	// unit this request touched.
	BackendMetadata []map[string]any
}

// postProcess converts the executor's histograms into one request's
// combined expectation value and variance.
func (e *Estimator) postProcess(entry *CacheEntry, plan *BatchPlan, res *ExecResult, reqIdx, circIdx, obsIdx int) (Result, error) {
	obs := e.observables[obsIdx]
	terms := obs.Terms()
	termBases := entry.ObsMaps[circIdx][obsIdx]

	var combined complex128
	var variance float64
	totalShots := 0
	var backendMeta []map[string]any

	// Identity terms contribute directly: expectation 1, variance 0,
	// zero shots. Skipped terms contribute nothing.
	basisOrder, basisTerms := groupTermsByBasis(termBases)
	for ti, b := range termBases {
		if b == basisIdentity {
			combined += terms[ti].Coeff
		}
	}

	for _, b := range basisOrder {
		idxs := basisTerms[b]
		fam := &entry.Families[circIdx][b]
		proc := entry.Templates[circIdx][b]

		unit, pos, err := plan.locate(reqIdx, planKey{circ: circIdx, basis: b})
		if err != nil {
			return Result{}, err
		}
		if unit >= len(res.Units) || pos >= len(res.Units[unit].Histograms) {
			return Result{}, fmt.Errorf("%w: result missing for unit %d position %d", ErrRouting, unit, pos)
		}
		ur := res.Units[unit]
		hist := ur.Histograms[pos]
		shots := hist.Shots()
		if shots == 0 {
			return Result{}, fmt.Errorf("executor returned empty histogram for unit %d position %d", unit, pos)
		}

		masks, signs := e.resolveMeasured(fam, terms, idxs)
		for j, ti := range idxs {
			clMask := proc.repackMask(masks[j])
			ev, err := histogramExpectation(hist, clMask, shots)
			if err != nil {
				return Result{}, err
			}
			coeff := terms[ti].Coeff
			combined += coeff * complex(signs[j]*ev, 0)
			variance += absSq(coeff) * (1 - ev*ev)
		}
		totalShots += shots
		backendMeta = append(backendMeta, ur.Metadata)
	}

	return Result{
		Value: realIfClose(combined),
		Metadata: ResultMetadata{
			Shots:           totalShots,
			Variance:        variance,
			BackendMetadata: backendMeta,
		},
	}, nil
}

// groupTermsByBasis collects term indices per basis index, preserving
// first-seen basis order and term order within each basis.
func groupTermsByBasis(termBases []int) ([]int, map[int][]int) {
	var order []int
	groups := make(map[int][]int)
	for ti, b := range termBases {
		if b < 0 {
			continue
		}
		if len(groups[b]) == 0 {
			order = append(order, b)
		}
		groups[b] = append(groups[b], ti)
	}
	return order, groups
}

// resolveMeasured returns, per grouped term, the qubit-space mask whose
// parity against outcomes gives the term's eigenvalue, and the ±1 sign
// correction. Qubit-wise and naive families measure each term on its own
// support with no sign. Dense families use the provider's diagonal
// image and sign, reordered to the term ordering actually present; when
// any term cannot be matched to the family's canonical sign vector the
// whole group falls back to neutral signs and raw supports. That
// fallback masks an upstream grouping defect, so it is counted and
// logged rather than accepted silently.
func (e *Estimator) resolveMeasured(fam *Family, terms []Term, idxs []int) (masks []uint64, signs []float64) {
	masks = make([]uint64, len(idxs))
	signs = make([]float64, len(idxs))
	if fam.Signs == nil {
		for j, ti := range idxs {
			masks[j] = terms[ti].Pauli.Support()
			signs[j] = 1
		}
		return masks, signs
	}
	for j, ti := range idxs {
		mi := fam.MemberIndex(terms[ti].Pauli)
		if mi < 0 {
			e.Metrics.AddSignFallback()
			logrus.Warnf("sign vector mismatch in family %s: term %s has no canonical sign, substituting neutral signs",
				fam.ID, terms[ti].Pauli)
			for k, tk := range idxs {
				masks[k] = terms[tk].Pauli.Support()
				signs[k] = 1
			}
			return masks, signs
		}
		masks[j] = fam.MeasuredMasks[mi]
		signs[j] = fam.Signs[mi]
	}
	return masks, signs
}

// histogramExpectation computes sum over outcomes of
// count * (-1)^popcount(mask AND outcome), divided by total shots.
func histogramExpectation(hist Histogram, mask uint64, shots int) (float64, error) {
	sum := 0
	for bitstr, cnt := range hist {
		outcome, err := parseOutcome(bitstr)
		if err != nil {
			return 0, err
		}
		if parity(mask&outcome) == 1 {
			sum -= cnt
		} else {
			sum += cnt
		}
	}
	return float64(sum) / float64(shots), nil
}

func parseOutcome(bitstr string) (uint64, error) {
	if bitstr == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(bitstr, 2, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid outcome bitstring %q: %w", bitstr, err)
	}
	return v, nil
}

func absSq(c complex128) float64 {
	a := cmplx.Abs(c)
	return a * a
}

// realIfClose clips a negligible imaginary component, mirroring the
// tolerance behavior of numpy's real_if_close.
func realIfClose(v complex128) complex128 {
	if math.Abs(imag(v)) <= 1e-12*math.Max(1, math.Abs(real(v))) {
		return complex(real(v), 0)
	}
	return v
}
