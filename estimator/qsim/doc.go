// Package qsim provides a small statevector simulator used as the
// reference backend for the estimator engine.
//
// Circuit is a gate-list circuit (H, X, S, Sdg, CX, CZ and the RX/RY/RZ
// rotations) with named free parameters. It implements both
// estimator.Circuit and estimator.AnalyticCapability, so the same
// payload serves the sampled and the exact code paths. Executor
// implements estimator.Executor by simulating each unit, appending its
// measurement procedure, and sampling seeded histograms.
//
// Sampling is deterministic: the PartitionedRNG derives one isolated
// stream per (unit, binding) pair from the run seed, so identical
// batches under the same seed reproduce identical histograms.
package qsim
