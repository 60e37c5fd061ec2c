package cmd

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/atlytle/dense-ev/estimator"
	"github.com/atlytle/dense-ev/estimator/qsim"
)

// demoObservable builds a random real-weighted observable spanning
// every non-identity Pauli string on n qubits, with coefficients drawn
// uniformly from [-1, 1) under the given seed.
func demoObservable(n int, seed int64) *estimator.Observable {
	rng := rand.New(rand.NewSource(seed))
	obs := estimator.NewObservable(n)
	total := 1
	for i := 0; i < n; i++ {
		total *= 4
	}
	letters := []byte{'I', 'X', 'Y', 'Z'}
	for idx := 1; idx < total; idx++ {
		label := make([]byte, n)
		v := idx
		// qubit 0 is the rightmost label character
		for q := 0; q < n; q++ {
			label[n-1-q] = letters[v%4]
			v /= 4
		}
		if err := obs.Add(string(label), complex(2*rng.Float64()-1, 0)); err != nil {
			logrus.Fatalf("Could not build demo observable: %v", err)
		}
	}
	return obs
}

// demoAnsatz builds a hardware-efficient trial circuit: alternating
// layers of parameterized RY rotations and a CNOT chain, plus seeded
// random angles for every parameter.
func demoAnsatz(n, depth int, seed int64) (*qsim.Circuit, []float64) {
	rng := rand.New(rand.NewSource(seed + 1))
	c := qsim.NewCircuit(n)
	for layer := 0; layer < depth; layer++ {
		for q := 0; q < n; q++ {
			c.RYP(q, fmt.Sprintf("theta_%d_%d", layer, q))
		}
		for q := 0; q+1 < n; q++ {
			c.CX(q, q+1)
		}
	}
	params := c.Parameters()
	values := make([]float64, len(params))
	for i := range values {
		values[i] = 2 * math.Pi * rng.Float64()
	}
	return c, values
}
