package estimator

// Circuit is the minimal contract the engine needs from a state
// preparation circuit. The engine never mutates circuits; measurement
// procedures are carried alongside the circuit in the batch request and
// composed by the executor.
type Circuit interface {
	// NumQubits returns the circuit width.
	NumQubits() int
	// Parameters returns the ordered list of free parameter names.
	// Parameter value vectors submitted to Run must match its length.
	Parameters() []string
	// Key returns a structural identity string: two circuits with the
	// same key are interchangeable for caching purposes.
	Key() string
}

// AnalyticCapability is the optional circuit capability used by the
// approximation engine: an exact expectation value of an observable for
// one bound parameter vector, free of sampling noise.
type AnalyticCapability interface {
	AnalyticExpectation(obs *Observable, params []float64) (complex128, error)
}
