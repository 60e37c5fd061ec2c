package estimator

import (
	"fmt"
	"strings"
)

// Term is one weighted Pauli operator inside an Observable.
type Term struct {
	Pauli Pauli
	Coeff complex128
}

// Observable is an ordered, duplicate-free weighted sum of Pauli
// operators. Adding a term whose operator is already present folds the
// coefficients instead of appending, so term order is first-insertion
// order. The all-identity operator is a legal term and is handled
// specially by the engine (it contributes its coefficient directly,
// with zero variance and zero shots).
type Observable struct {
	n     int
	terms []Term
	index map[Pauli]int
}

// NewObservable creates an empty observable on n qubits.
func NewObservable(n int) *Observable {
	return &Observable{n: n, index: make(map[Pauli]int)}
}

// NumQubits returns the qubit count the observable acts on.
func (o *Observable) NumQubits() int {
	return o.n
}

// Add parses a Pauli label and adds it with the given coefficient.
func (o *Observable) Add(label string, coeff complex128) error {
	p, err := ParsePauli(label)
	if err != nil {
		return err
	}
	return o.AddPauli(p, coeff)
}

// AddPauli adds a term in symplectic form, folding duplicates.
func (o *Observable) AddPauli(p Pauli, coeff complex128) error {
	if p.N != o.n {
		return fmt.Errorf("term %s has %d qubits, observable has %d", p, p.N, o.n)
	}
	if i, ok := o.index[p]; ok {
		o.terms[i].Coeff += coeff
		return nil
	}
	o.index[p] = len(o.terms)
	o.terms = append(o.terms, Term{Pauli: p, Coeff: coeff})
	return nil
}

// Terms returns the ordered term list. The slice is shared; callers must
// not mutate it.
func (o *Observable) Terms() []Term {
	return o.terms
}

// Len returns the number of distinct terms.
func (o *Observable) Len() int {
	return len(o.terms)
}

// Key returns a stable structural identity string usable as a cache key.
// Two observables with identical term sequences and coefficients share a
// key.
func (o *Observable) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:", o.n)
	for i, t := range o.terms {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s=%v", t.Pauli, t.Coeff)
	}
	return b.String()
}
