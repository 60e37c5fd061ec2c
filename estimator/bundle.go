package estimator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ObservableBundle is a YAML-loadable observable description:
//
//	qubits: 2
//	terms:
//	  - pauli: XX
//	    coeff: 1.5
//	  - pauli: ZY
//	    coeff: 1.2
type ObservableBundle struct {
	Qubits int             `yaml:"qubits"`
	Terms  []TermSpec      `yaml:"terms"`
	Run    *RunOptionsSpec `yaml:"run,omitempty"`
}

// TermSpec is one weighted Pauli term in an ObservableBundle.
type TermSpec struct {
	Pauli string  `yaml:"pauli"`
	Coeff float64 `yaml:"coeff"`
	// Imag optionally supplies an imaginary coefficient component.
	Imag float64 `yaml:"imag,omitempty"`
}

// RunOptionsSpec optionally embeds run options in the bundle.
type RunOptionsSpec struct {
	Shots int   `yaml:"shots"`
	Seed  int64 `yaml:"seed"`
}

// LoadObservableBundle reads and parses a YAML observable file.
func LoadObservableBundle(path string) (*ObservableBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading observable file: %w", err)
	}
	var bundle ObservableBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing observable file: %w", err)
	}
	return &bundle, nil
}

// Validate checks structural constraints before conversion.
func (b *ObservableBundle) Validate() error {
	if b.Qubits <= 0 || b.Qubits > MaxQubits {
		return fmt.Errorf("qubits must be in [1, %d], got %d", MaxQubits, b.Qubits)
	}
	if len(b.Terms) == 0 {
		return fmt.Errorf("observable has no terms")
	}
	for i, t := range b.Terms {
		if len(t.Pauli) != b.Qubits {
			return fmt.Errorf("term %d: label %q does not match %d qubits", i, t.Pauli, b.Qubits)
		}
	}
	return nil
}

// ToObservable converts the bundle into an Observable, folding duplicate
// labels.
func (b *ObservableBundle) ToObservable() (*Observable, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	obs := NewObservable(b.Qubits)
	for _, t := range b.Terms {
		if err := obs.Add(t.Pauli, complex(t.Coeff, t.Imag)); err != nil {
			return nil, err
		}
	}
	return obs, nil
}
