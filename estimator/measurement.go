package estimator

import "fmt"

// GateKind enumerates the Clifford gates a measurement procedure may
// contain. Executors must implement all of them.
type GateKind int

const (
	GateH GateKind = iota
	GateS
	GateSdg
	GateCNOT
)

func (k GateKind) String() string {
	switch k {
	case GateH:
		return "h"
	case GateS:
		return "s"
	case GateSdg:
		return "sdg"
	case GateCNOT:
		return "cx"
	}
	return fmt.Sprintf("gate(%d)", int(k))
}

// Gate is one operation in a measurement procedure. Q2 is only
// meaningful for two-qubit kinds (control Q, target Q2).
type Gate struct {
	Kind GateKind
	Q    int
	Q2   int
}

// Procedure is the diagonalizing routine appended to a circuit before
// readout: a basis-change gate list followed by measurement of
// MeasuredQubits. Classical bit k reads qubit MeasuredQubits[k], and
// outcome bitstrings place classical bit 0 rightmost. Basis is retained
// as metadata so the post-processor can realign qubit order.
type Procedure struct {
	Gates          []Gate
	MeasuredQubits []int
	Basis          Pauli
}

// NumBits returns the number of classical bits the procedure allocates.
func (p *Procedure) NumBits() int {
	return len(p.MeasuredQubits)
}

// BuildMeasurement constructs the diagonalizing procedure for a
// qubit-wise basis. Per qubit: no bit is allocated when the basis is
// identity there; X-basis qubits get an H rotation; Y-basis qubits get
// Sdg then H; Z-basis qubits are measured directly.
func BuildMeasurement(basis Pauli) *Procedure {
	proc := &Procedure{Basis: basis}
	for q := 0; q < basis.N; q++ {
		bit := uint64(1) << uint(q)
		if basis.Support()&bit == 0 {
			continue
		}
		if basis.X&bit != 0 {
			if basis.Z&bit != 0 {
				proc.Gates = append(proc.Gates, Gate{Kind: GateSdg, Q: q})
			}
			proc.Gates = append(proc.Gates, Gate{Kind: GateH, Q: q})
		}
		proc.MeasuredQubits = append(proc.MeasuredQubits, q)
	}
	return proc
}

// repackMask translates a qubit-indexed support mask into the classical
// bit order of the procedure: output bit k is set iff the input mask
// covers qubit MeasuredQubits[k]. Qubits without an allocated bit are
// dropped from both sides.
func (p *Procedure) repackMask(mask uint64) uint64 {
	var out uint64
	for k, q := range p.MeasuredQubits {
		if mask&(1<<uint(q)) != 0 {
			out |= 1 << uint(k)
		}
	}
	return out
}
