package estimator

// Family is a set of Pauli operators measurable under one diagonalizing
// basis. For naive and qubit-wise grouping the Basis mask (bitwise OR of
// member masks) fully determines the measurement procedure and Diag,
// MeasuredMasks and Signs are nil. Fixed-dense-family grouping attaches
// the provider's diagonalization circuit plus, per member, the Z-mask of
// its image under that circuit and the ±1 sign picked up by conjugation.
type Family struct {
	// ID is a canonical label for the family, distinct across a
	// partition. Providers use the first canonical member's label.
	ID string
	N  int
	// Members in canonical order. MeasuredMasks and Signs, when
	// present, are parallel to this slice.
	Members []Pauli
	// Basis covers the bitwise OR of member x/z masks.
	Basis Pauli
	// Diag is the simultaneous diagonalization procedure for dense
	// families; nil means the basis is qubit-wise and the measurement
	// builder derives the procedure from Basis.
	Diag          *Procedure
	MeasuredMasks []uint64
	Signs         []float64
}

// MemberIndex returns the position of p in the canonical member list, or
// -1 when p is not a member.
func (f *Family) MemberIndex(p Pauli) int {
	for i, m := range f.Members {
		if m == p {
			return i
		}
	}
	return -1
}

// PartitionProvider supplies, for a qubit count, a fixed partition of
// the full non-identity Pauli algebra into commuting families. It is a
// pure function of the qubit count and is expected to memoize across
// repeated calls.
type PartitionProvider interface {
	Partition(numQubits int) ([]Family, error)
}
