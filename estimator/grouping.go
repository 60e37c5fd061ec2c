package estimator

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// GroupingMode selects how observable terms are partitioned into
// simultaneously measurable families.
type GroupingMode string

const (
	// GroupingNaive measures every term in its own basis.
	GroupingNaive GroupingMode = "naive"
	// GroupingQubitWise greedily merges terms that agree qubit-wise
	// with the family's accumulated basis (first-fit, no backtracking).
	GroupingQubitWise GroupingMode = "qubit-wise"
	// GroupingDense resolves terms against a precomputed partition of
	// the full Pauli algebra into commuting families.
	GroupingDense GroupingMode = "dense"
)

// ErrUnknownGrouping is returned for an unrecognized grouping mode.
var ErrUnknownGrouping = errors.New("unknown grouping mode")

// ValidGroupingModes is the set of recognized mode selectors.
var ValidGroupingModes = map[GroupingMode]bool{
	GroupingNaive:     true,
	GroupingQubitWise: true,
	GroupingDense:     true,
}

// GroupTerms partitions non-identity terms into families under the given
// mode and reports, per term, the index of the family it was assigned
// to. Terms must all act on the same qubit count. Identity terms must be
// filtered out by the caller. Under dense grouping, terms absent from
// the provider's enumeration are skipped (logged, not fatal) and do not
// appear in the assignment map; families left with no resolved members
// are dropped.
func GroupTerms(terms []Pauli, mode GroupingMode, provider PartitionProvider, numQubits int) ([]Family, map[Pauli]int, error) {
	switch mode {
	case GroupingNaive:
		return groupNaive(terms, numQubits), assignSingletons(terms), nil
	case GroupingQubitWise:
		return groupQubitWise(terms, numQubits)
	case GroupingDense:
		if provider == nil {
			return nil, nil, fmt.Errorf("dense grouping requires a partition provider")
		}
		return groupDense(terms, provider, numQubits)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownGrouping, mode)
	}
}

func groupNaive(terms []Pauli, numQubits int) []Family {
	fams := make([]Family, 0, len(terms))
	for _, t := range terms {
		fams = append(fams, Family{
			ID:      t.String(),
			N:       numQubits,
			Members: []Pauli{t},
			Basis:   t,
		})
	}
	return fams
}

func assignSingletons(terms []Pauli) map[Pauli]int {
	assign := make(map[Pauli]int, len(terms))
	for i, t := range terms {
		assign[t] = i
	}
	return assign
}

func groupQubitWise(terms []Pauli, numQubits int) ([]Family, map[Pauli]int, error) {
	var fams []Family
	assign := make(map[Pauli]int, len(terms))
	for _, t := range terms {
		placed := false
		for i := range fams {
			if t.QubitWiseCompatible(fams[i].Basis) {
				fams[i].Members = append(fams[i].Members, t)
				fams[i].Basis = fams[i].Basis.union(t)
				assign[t] = i
				placed = true
				break
			}
		}
		if !placed {
			assign[t] = len(fams)
			fams = append(fams, Family{
				N:       numQubits,
				Members: []Pauli{t},
				Basis:   t,
			})
		}
	}
	for i := range fams {
		fams[i].ID = fams[i].Basis.String()
	}
	return fams, assign, nil
}

func groupDense(terms []Pauli, provider PartitionProvider, numQubits int) ([]Family, map[Pauli]int, error) {
	partition, err := provider.Partition(numQubits)
	if err != nil {
		return nil, nil, fmt.Errorf("dense partition for %d qubits: %w", numQubits, err)
	}

	// Provider family index per operator.
	lookup := make(map[Pauli]int)
	for fi := range partition {
		for _, m := range partition[fi].Members {
			lookup[m] = fi
		}
	}

	resolved := make(map[int][]int) // provider family index -> member indices present
	var order []int
	for _, t := range terms {
		fi, ok := lookup[t]
		if !ok {
			logrus.Warnf("dense grouping: term %s not in the %d-qubit partition, skipping", t, numQubits)
			continue
		}
		mi := partition[fi].MemberIndex(t)
		if len(resolved[fi]) == 0 {
			order = append(order, fi)
		}
		resolved[fi] = append(resolved[fi], mi)
	}

	var fams []Family
	assign := make(map[Pauli]int, len(terms))
	for _, fi := range order {
		src := &partition[fi]
		// Keep canonical provider ordering for the resolved subset.
		indices := resolved[fi]
		present := make(map[int]bool, len(indices))
		for _, mi := range indices {
			present[mi] = true
		}
		fam := Family{ID: src.ID, N: numQubits, Diag: src.Diag}
		basis := Pauli{N: numQubits}
		for mi, m := range src.Members {
			if !present[mi] {
				continue
			}
			fam.Members = append(fam.Members, m)
			fam.MeasuredMasks = append(fam.MeasuredMasks, src.MeasuredMasks[mi])
			fam.Signs = append(fam.Signs, src.Signs[mi])
			basis = basis.union(m)
			assign[m] = len(fams)
		}
		fam.Basis = basis
		fams = append(fams, fam)
	}
	return fams, assign, nil
}
