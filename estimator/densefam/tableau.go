package densefam

import (
	"fmt"
	"math/bits"

	"github.com/atlytle/dense-ev/estimator"
)

// tabRow is one Pauli tracked through Clifford conjugation in CHP form:
// the operator is (-1)^r * prod_q P_q with P_q read from the (x,z) bit
// pair at qubit q (both set means Y).
type tabRow struct {
	x, z uint64
	r    uint8
}

// Conjugation update rules (Aaronson-Gottesman). Each applies gate G to
// the row as P -> G P G†.

func (t *tabRow) applyH(q int) {
	xb := t.x >> uint(q) & 1
	zb := t.z >> uint(q) & 1
	t.r ^= uint8(xb & zb)
	t.x ^= (xb ^ zb) << uint(q)
	t.z ^= (xb ^ zb) << uint(q)
}

func (t *tabRow) applyS(q int) {
	xb := t.x >> uint(q) & 1
	zb := t.z >> uint(q) & 1
	t.r ^= uint8(xb & zb)
	t.z ^= xb << uint(q)
}

func (t *tabRow) applyCNOT(ctl, tgt int) {
	xa := t.x >> uint(ctl) & 1
	za := t.z >> uint(ctl) & 1
	xb := t.x >> uint(tgt) & 1
	zb := t.z >> uint(tgt) & 1
	t.r ^= uint8(xa & zb & (xb ^ za ^ 1))
	t.x ^= xa << uint(tgt)
	t.z ^= zb << uint(ctl)
}

func (t *tabRow) apply(g estimator.Gate) {
	switch g.Kind {
	case estimator.GateH:
		t.applyH(g.Q)
	case estimator.GateS:
		t.applyS(g.Q)
	case estimator.GateSdg:
		// S† = S³ in the conjugation rules.
		t.applyS(g.Q)
		t.applyS(g.Q)
		t.applyS(g.Q)
	case estimator.GateCNOT:
		t.applyCNOT(g.Q, g.Q2)
	}
}

// sympVec is a phase-free symplectic vector used for generator
// bookkeeping during elimination.
type sympVec struct {
	x, z uint64
}

func (v *sympVec) apply(g estimator.Gate) {
	switch g.Kind {
	case estimator.GateH:
		xb := v.x >> uint(g.Q) & 1
		zb := v.z >> uint(g.Q) & 1
		v.x ^= (xb ^ zb) << uint(g.Q)
		v.z ^= (xb ^ zb) << uint(g.Q)
	case estimator.GateS, estimator.GateSdg:
		v.z ^= (v.x >> uint(g.Q) & 1) << uint(g.Q)
	case estimator.GateCNOT:
		v.x ^= (v.x >> uint(g.Q) & 1) << uint(g.Q2)
		v.z ^= (v.z >> uint(g.Q2) & 1) << uint(g.Q)
	}
}

// independentGenerators extracts a maximal independent subset of the
// members' symplectic vectors by Gaussian elimination over GF(2).
// Reduced remainders are themselves symplectic images of products of
// members, so they generate the same group and inherit commutativity.
func independentGenerators(members []estimator.Pauli, m int) []sympVec {
	var basis []sympVec // echelon form, descending leading bits
	for _, p := range members {
		w := sympVec{x: p.X, z: p.Z}
		for _, b := range basis {
			if packed(w, m)&leadingPacked(b, m) != 0 {
				w.x ^= b.x
				w.z ^= b.z
			}
		}
		if w.x != 0 || w.z != 0 {
			basis = append(basis, w)
			sortByLeading(basis, m)
		}
	}
	return basis
}

func packed(v sympVec, m int) uint64 {
	return v.x | v.z<<uint(m)
}

func leadingPacked(v sympVec, m int) uint64 {
	p := packed(v, m)
	if p == 0 {
		return 0
	}
	return 1 << uint(63-bits.LeadingZeros64(p))
}

func sortByLeading(basis []sympVec, m int) {
	// Insertion keeps vectors ordered by descending leading bit so a
	// single reduction pass per candidate suffices.
	for i := len(basis) - 1; i > 0; i-- {
		if leadingPacked(basis[i], m) > leadingPacked(basis[i-1], m) {
			basis[i], basis[i-1] = basis[i-1], basis[i]
		} else {
			break
		}
	}
}

// Diagonalize computes a Clifford procedure mapping every member of a
// pairwise-commuting family to a signed Z-string, together with each
// member's diagonal Z-mask and ±1 sign. The procedure measures all m
// qubits.
func Diagonalize(members []estimator.Pauli, m int) (*estimator.Procedure, []uint64, []float64, error) {
	rows := make([]tabRow, len(members))
	for i, p := range members {
		rows[i] = tabRow{x: p.X, z: p.Z}
	}
	gens := independentGenerators(members, m)

	var gates []estimator.Gate
	emit := func(g estimator.Gate) {
		gates = append(gates, g)
		for i := range rows {
			rows[i].apply(g)
		}
		for i := range gens {
			gens[i].apply(g)
		}
	}

	// Sequential symplectic elimination: each generator with x-support
	// is compressed onto a single pivot qubit and rotated into Z.
	// Commutation with already-diagonalized generators guarantees the
	// pivot column stays clean, so earlier generators remain diagonal.
	for i := range gens {
		if gens[i].x == 0 {
			continue
		}
		pivot := bits.TrailingZeros64(gens[i].x)
		xbits := gens[i].x
		for q := 0; q < m; q++ {
			if q == pivot || xbits&(1<<uint(q)) == 0 {
				continue
			}
			emit(estimator.Gate{Kind: estimator.GateCNOT, Q: pivot, Q2: q})
		}
		if gens[i].z&(1<<uint(pivot)) != 0 {
			emit(estimator.Gate{Kind: estimator.GateS, Q: pivot})
		}
		emit(estimator.Gate{Kind: estimator.GateH, Q: pivot})
	}

	masks := make([]uint64, len(rows))
	signs := make([]float64, len(rows))
	for i, row := range rows {
		if row.x != 0 {
			return nil, nil, nil, fmt.Errorf("diagonalization left member %s with x-support %b",
				members[i], row.x)
		}
		masks[i] = row.z
		signs[i] = 1
		if row.r == 1 {
			signs[i] = -1
		}
	}

	measured := make([]int, m)
	for q := range measured {
		measured[q] = q
	}
	basis := estimator.Pauli{N: m}
	for _, p := range members {
		basis.X |= p.X
		basis.Z |= p.Z
	}
	proc := &estimator.Procedure{Gates: gates, MeasuredQubits: measured, Basis: basis}
	return proc, masks, signs, nil
}
