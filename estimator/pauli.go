package estimator

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxQubits bounds the bit-mask Pauli representation. Masks are single
// uint64 words, so operators on more than 64 qubits are rejected at parse
// time.
const MaxQubits = 64

// Pauli is an m-qubit Pauli operator in symplectic form: bit q of X and Z
// encode the single-qubit operator acting on qubit q.
//
//	X=0, Z=0: I    X=1, Z=0: X    X=0, Z=1: Z    X=1, Z=1: Y
//
// Labels follow the little-endian string convention: the rightmost
// character of "XYZ" acts on qubit 0. Equality of two Pauli values
// compares (N, X, Z), so Pauli is directly usable as a map key.
type Pauli struct {
	N int
	X uint64
	Z uint64
}

// ParsePauli converts a label over {I,X,Y,Z} into symplectic form.
func ParsePauli(label string) (Pauli, error) {
	n := len(label)
	if n == 0 {
		return Pauli{}, fmt.Errorf("empty Pauli label")
	}
	if n > MaxQubits {
		return Pauli{}, fmt.Errorf("Pauli label %q exceeds %d qubits", label, MaxQubits)
	}
	p := Pauli{N: n}
	for i := 0; i < n; i++ {
		// character i acts on qubit n-1-i
		q := uint(n - 1 - i)
		switch label[i] {
		case 'I':
		case 'X':
			p.X |= 1 << q
		case 'Y':
			p.X |= 1 << q
			p.Z |= 1 << q
		case 'Z':
			p.Z |= 1 << q
		default:
			return Pauli{}, fmt.Errorf("invalid Pauli character %q in %q", label[i], label)
		}
	}
	return p, nil
}

// String renders the canonical label, qubit N-1 leftmost.
func (p Pauli) String() string {
	var b strings.Builder
	for q := p.N - 1; q >= 0; q-- {
		x := p.X>>uint(q)&1 == 1
		z := p.Z>>uint(q)&1 == 1
		switch {
		case x && z:
			b.WriteByte('Y')
		case x:
			b.WriteByte('X')
		case z:
			b.WriteByte('Z')
		default:
			b.WriteByte('I')
		}
	}
	return b.String()
}

// IsIdentity reports whether every qubit position is I.
func (p Pauli) IsIdentity() bool {
	return p.X == 0 && p.Z == 0
}

// Support returns the mask of qubits where p acts non-trivially.
func (p Pauli) Support() uint64 {
	return p.X | p.Z
}

// Weight is the number of non-identity positions.
func (p Pauli) Weight() int {
	return bits.OnesCount64(p.Support())
}

// CommutesWith reports whether p and o commute as operators, using the
// symplectic inner product: they anticommute iff the product
// popcount(p.X&o.Z) + popcount(p.Z&o.X) is odd.
func (p Pauli) CommutesWith(o Pauli) bool {
	return (bits.OnesCount64(p.X&o.Z)+bits.OnesCount64(p.Z&o.X))%2 == 0
}

// QubitWiseCompatible reports whether p can join a family whose
// accumulated basis is b: at every qubit, p must be identity or act with
// the same single-qubit operator as b (where b is non-identity).
func (p Pauli) QubitWiseCompatible(b Pauli) bool {
	both := p.Support() & b.Support()
	return ((p.X^b.X)|(p.Z^b.Z))&both == 0
}

// union accumulates another operator's masks into a basis.
func (p Pauli) union(o Pauli) Pauli {
	return Pauli{N: p.N, X: p.X | o.X, Z: p.Z | o.Z}
}

// parity returns popcount(v) mod 2 as an int (0 or 1).
func parity(v uint64) int {
	return bits.OnesCount64(v) & 1
}
