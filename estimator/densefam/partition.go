package densefam

import (
	"fmt"
	"sync"

	"github.com/atlytle/dense-ev/estimator"
)

// MaxPartitionQubits caps the built-in partition: the construction
// enumerates all 4^m - 1 non-identity operators and checks pairwise
// commutation greedily, which is only sensible for small m.
const MaxPartitionQubits = 6

// Provider supplies fixed dense-family partitions, memoized per qubit
// count for the process lifetime. Safe for concurrent use.
type Provider struct {
	mu    sync.Mutex
	cache map[int][]estimator.Family
}

// NewProvider creates an empty, memoizing provider.
func NewProvider() *Provider {
	return &Provider{cache: make(map[int][]estimator.Family)}
}

// Partition returns the m-qubit partition of the full non-identity Pauli
// algebra into pairwise-commuting families. Each family carries its
// canonical member order, a simultaneous diagonalization procedure, and
// per-member measured Z-masks and signs. The result is shared across
// calls; callers must not mutate it.
func (p *Provider) Partition(numQubits int) ([]estimator.Family, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fams, ok := p.cache[numQubits]; ok {
		return fams, nil
	}
	fams, err := buildPartition(numQubits)
	if err != nil {
		return nil, err
	}
	p.cache[numQubits] = fams
	return fams, nil
}

// buildPartition greedily assigns every non-identity operator, in
// canonical enumeration order, to the first family all of whose members
// commute with it. The result is a valid partition into commuting
// families, though not necessarily one of minimum size.
func buildPartition(m int) ([]estimator.Family, error) {
	if m < 1 || m > MaxPartitionQubits {
		return nil, fmt.Errorf("dense partition supports 1..%d qubits, got %d", MaxPartitionQubits, m)
	}

	var groups [][]estimator.Pauli
	for _, p := range enumeratePaulis(m) {
		placed := false
		for gi := range groups {
			if commutesWithAll(p, groups[gi]) {
				groups[gi] = append(groups[gi], p)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []estimator.Pauli{p})
		}
	}

	fams := make([]estimator.Family, 0, len(groups))
	for _, members := range groups {
		diag, masks, signs, err := Diagonalize(members, m)
		if err != nil {
			return nil, fmt.Errorf("diagonalizing family %s: %w", members[0], err)
		}
		fams = append(fams, estimator.Family{
			ID:            members[0].String(),
			N:             m,
			Members:       members,
			Basis:         diag.Basis,
			Diag:          diag,
			MeasuredMasks: masks,
			Signs:         signs,
		})
	}
	return fams, nil
}

// enumeratePaulis lists the 4^m - 1 non-identity operators in canonical
// order: per qubit the digit sequence I, Z, X, Y with qubit 0 varying
// fastest. Family membership and sign resolution both depend on this
// ordering staying fixed.
func enumeratePaulis(m int) []estimator.Pauli {
	total := 1
	for i := 0; i < m; i++ {
		total *= 4
	}
	out := make([]estimator.Pauli, 0, total-1)
	for idx := 1; idx < total; idx++ {
		p := estimator.Pauli{N: m}
		v := idx
		for q := 0; q < m; q++ {
			switch v & 3 {
			case 1: // Z
				p.Z |= 1 << uint(q)
			case 2: // X
				p.X |= 1 << uint(q)
			case 3: // Y
				p.X |= 1 << uint(q)
				p.Z |= 1 << uint(q)
			}
			v >>= 2
		}
		out = append(out, p)
	}
	return out
}

func commutesWithAll(p estimator.Pauli, members []estimator.Pauli) bool {
	for _, m := range members {
		if !p.CommutesWith(m) {
			return false
		}
	}
	return true
}
