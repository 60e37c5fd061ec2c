// Package estimator estimates expectation values of weighted Pauli-sum
// observables against parameterized circuits while minimizing the number
// of distinct physical measurement settings.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - pauli.go / observable.go: the symplectic bit-mask data model
//   - grouping.go: partitioning terms into simultaneously measurable families
//   - estimator.go: the Run pipeline (cache, batch, execute, post-process)
//
// # Architecture
//
// The package defines contracts; implementations live in sub-packages:
//   - estimator/densefam: fixed dense-family partition provider with
//     stabilizer-tableau diagonalization
//   - estimator/qsim: statevector simulator providing reference Circuit
//     and Executor implementations
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Circuit: qubit count, ordered free parameters, structural identity
//   - AnalyticCapability: optional exact expectation values, used by the
//     approximation engine
//   - Executor: runs a measurement batch, returns outcome histograms
//   - PartitionProvider: fixed partition of the full Pauli algebra into
//     commuting families, keyed by qubit count
//
// A Run call moves through Submitted, Cached-or-Built, Batched,
// Executed, Post-processed and Returned; no stage is retried, and a
// failure at any stage surfaces to the caller with no partial results.
package estimator
