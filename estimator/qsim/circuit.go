package qsim

import (
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"
	"strings"

	"github.com/atlytle/dense-ev/estimator"
)

type opKind int

const (
	opH opKind = iota
	opX
	opS
	opSdg
	opCX
	opCZ
	opRX
	opRY
	opRZ
)

var opNames = map[opKind]string{
	opH:   "h",
	opX:   "x",
	opS:   "s",
	opSdg: "sdg",
	opCX:  "cx",
	opCZ:  "cz",
	opRX:  "rx",
	opRY:  "ry",
	opRZ:  "rz",
}

// op is one gate in a Circuit. Rotation gates either carry a fixed
// angle or reference a named free parameter (param != "").
type op struct {
	kind  opKind
	q     int
	q2    int
	theta float64
	param string
}

// Circuit is a small statevector-simulated quantum circuit. It
// implements estimator.Circuit and estimator.AnalyticCapability, which
// makes it usable both as an execution payload and as an exact
// expectation oracle.
//
// Free parameters are declared by name through the *P rotation
// builders; Parameters() reports them in first-use order, which is the
// order parameter value vectors must follow.
type Circuit struct {
	n        int
	ops      []op
	params   []string
	paramIdx map[string]int
}

// NewCircuit creates an empty circuit on n qubits. Panics if n is not
// in [1, estimator.MaxQubits].
func NewCircuit(n int) *Circuit {
	if n < 1 || n > estimator.MaxQubits {
		panic(fmt.Sprintf("qsim: invalid qubit count %d", n))
	}
	return &Circuit{
		n:        n,
		paramIdx: make(map[string]int),
	}
}

// H appends a Hadamard gate on qubit q.
func (c *Circuit) H(q int) *Circuit { return c.append1(opH, q) }

// X appends a Pauli-X gate on qubit q.
func (c *Circuit) X(q int) *Circuit { return c.append1(opX, q) }

// S appends a phase gate on qubit q.
func (c *Circuit) S(q int) *Circuit { return c.append1(opS, q) }

// Sdg appends an inverse phase gate on qubit q.
func (c *Circuit) Sdg(q int) *Circuit { return c.append1(opSdg, q) }

// CX appends a CNOT with control ctl and target tgt.
func (c *Circuit) CX(ctl, tgt int) *Circuit { return c.append2(opCX, ctl, tgt) }

// CZ appends a controlled-Z between qubits a and b.
func (c *Circuit) CZ(a, b int) *Circuit { return c.append2(opCZ, a, b) }

// RX appends a fixed-angle X rotation on qubit q.
func (c *Circuit) RX(q int, theta float64) *Circuit { return c.appendRot(opRX, q, theta, "") }

// RY appends a fixed-angle Y rotation on qubit q.
func (c *Circuit) RY(q int, theta float64) *Circuit { return c.appendRot(opRY, q, theta, "") }

// RZ appends a fixed-angle Z rotation on qubit q.
func (c *Circuit) RZ(q int, theta float64) *Circuit { return c.appendRot(opRZ, q, theta, "") }

// RXP appends an X rotation on qubit q bound to the named parameter.
func (c *Circuit) RXP(q int, name string) *Circuit { return c.appendRot(opRX, q, 0, name) }

// RYP appends a Y rotation on qubit q bound to the named parameter.
func (c *Circuit) RYP(q int, name string) *Circuit { return c.appendRot(opRY, q, 0, name) }

// RZP appends a Z rotation on qubit q bound to the named parameter.
func (c *Circuit) RZP(q int, name string) *Circuit { return c.appendRot(opRZ, q, 0, name) }

func (c *Circuit) append1(kind opKind, q int) *Circuit {
	c.checkQubit(q)
	c.ops = append(c.ops, op{kind: kind, q: q})
	return c
}

func (c *Circuit) append2(kind opKind, q, q2 int) *Circuit {
	c.checkQubit(q)
	c.checkQubit(q2)
	if q == q2 {
		panic(fmt.Sprintf("qsim: two-qubit gate with identical qubits %d", q))
	}
	c.ops = append(c.ops, op{kind: kind, q: q, q2: q2})
	return c
}

func (c *Circuit) appendRot(kind opKind, q int, theta float64, name string) *Circuit {
	c.checkQubit(q)
	if name != "" {
		if _, ok := c.paramIdx[name]; !ok {
			c.paramIdx[name] = len(c.params)
			c.params = append(c.params, name)
		}
	}
	c.ops = append(c.ops, op{kind: kind, q: q, theta: theta, param: name})
	return c
}

func (c *Circuit) checkQubit(q int) {
	if q < 0 || q >= c.n {
		panic(fmt.Sprintf("qsim: qubit %d out of range for %d-qubit circuit", q, c.n))
	}
}

// NumQubits returns the circuit width.
func (c *Circuit) NumQubits() int { return c.n }

// Parameters returns the free parameter names in first-use order.
func (c *Circuit) Parameters() []string {
	out := make([]string, len(c.params))
	copy(out, c.params)
	return out
}

// Key returns a structural identity string: two circuits with the same
// gate sequence on the same width produce the same key.
func (c *Circuit) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "q%d:", c.n)
	for i, o := range c.ops {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(opNames[o.kind])
		switch o.kind {
		case opCX, opCZ:
			fmt.Fprintf(&b, "%d,%d", o.q, o.q2)
		case opRX, opRY, opRZ:
			if o.param != "" {
				fmt.Fprintf(&b, "%d(%s)", o.q, o.param)
			} else {
				fmt.Fprintf(&b, "%d(%.12g)", o.q, o.theta)
			}
		default:
			fmt.Fprintf(&b, "%d", o.q)
		}
	}
	return b.String()
}

// run simulates the circuit with the given parameter values (aligned
// with Parameters() order) and returns the final statevector. Basis
// index bit k is qubit k.
func (c *Circuit) run(values []float64) ([]complex128, error) {
	if len(values) != len(c.params) {
		return nil, fmt.Errorf("qsim: circuit has %d parameters, got %d values",
			len(c.params), len(values))
	}
	state := make([]complex128, 1<<uint(c.n))
	state[0] = 1
	for _, o := range c.ops {
		theta := o.theta
		if o.param != "" {
			theta = values[c.paramIdx[o.param]]
		}
		applyOp(state, o, theta)
	}
	return state, nil
}

var invSqrt2 = complex(1/math.Sqrt2, 0)

func applyOp(state []complex128, o op, theta float64) {
	switch o.kind {
	case opH:
		apply1(state, o.q, [2][2]complex128{
			{invSqrt2, invSqrt2},
			{invSqrt2, -invSqrt2},
		})
	case opX:
		apply1(state, o.q, [2][2]complex128{{0, 1}, {1, 0}})
	case opS:
		apply1(state, o.q, [2][2]complex128{{1, 0}, {0, 1i}})
	case opSdg:
		apply1(state, o.q, [2][2]complex128{{1, 0}, {0, -1i}})
	case opCX:
		ctl, tgt := 1<<uint(o.q), 1<<uint(o.q2)
		for i := range state {
			if i&ctl != 0 && i&tgt == 0 {
				state[i|tgt], state[i] = state[i], state[i|tgt]
			}
		}
	case opCZ:
		both := 1<<uint(o.q) | 1<<uint(o.q2)
		for i := range state {
			if i&both == both {
				state[i] = -state[i]
			}
		}
	case opRX:
		cos := complex(math.Cos(theta/2), 0)
		isin := complex(0, -math.Sin(theta/2))
		apply1(state, o.q, [2][2]complex128{{cos, isin}, {isin, cos}})
	case opRY:
		cos := complex(math.Cos(theta/2), 0)
		sin := complex(math.Sin(theta/2), 0)
		apply1(state, o.q, [2][2]complex128{{cos, -sin}, {sin, cos}})
	case opRZ:
		apply1(state, o.q, [2][2]complex128{
			{cmplx.Exp(complex(0, -theta/2)), 0},
			{0, cmplx.Exp(complex(0, theta/2))},
		})
	}
}

// apply1 applies a single-qubit unitary to qubit q of the statevector.
func apply1(state []complex128, q int, u [2][2]complex128) {
	bit := 1 << uint(q)
	for i := range state {
		if i&bit != 0 {
			continue
		}
		a, b := state[i], state[i|bit]
		state[i] = u[0][0]*a + u[0][1]*b
		state[i|bit] = u[1][0]*a + u[1][1]*b
	}
}

// applyGate applies one measurement-procedure gate to the statevector.
func applyGate(state []complex128, g estimator.Gate) error {
	switch g.Kind {
	case estimator.GateH:
		applyOp(state, op{kind: opH, q: g.Q}, 0)
	case estimator.GateS:
		applyOp(state, op{kind: opS, q: g.Q}, 0)
	case estimator.GateSdg:
		applyOp(state, op{kind: opSdg, q: g.Q}, 0)
	case estimator.GateCNOT:
		applyOp(state, op{kind: opCX, q: g.Q, q2: g.Q2}, 0)
	default:
		return fmt.Errorf("qsim: unsupported gate kind %v", g.Kind)
	}
	return nil
}

// AnalyticExpectation computes the exact expectation value of obs on
// the state prepared by this circuit under the given parameter values.
// This is the oracle behind the estimator's exact approximation mode.
func (c *Circuit) AnalyticExpectation(obs *estimator.Observable, values []float64) (complex128, error) {
	if obs.NumQubits() != c.n {
		return 0, fmt.Errorf("qsim: observable on %d qubits, circuit on %d",
			obs.NumQubits(), c.n)
	}
	state, err := c.run(values)
	if err != nil {
		return 0, err
	}
	var total complex128
	for _, term := range obs.Terms() {
		total += term.Coeff * pauliExpectation(state, term.Pauli)
	}
	return total, nil
}

// pauliExpectation computes <psi|P|psi> by applying P to the state and
// taking the inner product. P acts on a basis state |b> as
// i^|Y| * (-1)^popcount(z&b) * |b^x>.
func pauliExpectation(state []complex128, p estimator.Pauli) complex128 {
	yCount := bits.OnesCount64(p.X & p.Z)
	phase := complex128(1)
	switch yCount % 4 {
	case 1:
		phase = 1i
	case 2:
		phase = -1
	case 3:
		phase = -1i
	}
	var total complex128
	x := int(p.X)
	for b, amp := range state {
		if amp == 0 {
			continue
		}
		sign := complex128(1)
		if bits.OnesCount64(uint64(b)&p.Z)%2 == 1 {
			sign = -1
		}
		// contribution of |b> to amplitude at b^x
		total += cmplx.Conj(state[b^x]) * phase * sign * amp
	}
	return total
}
