// Package densefam provides the fixed dense-family partition: for a
// qubit count m, a partition of all 4^m - 1 non-identity Pauli operators
// into pairwise-commuting families, each equipped with a simultaneous
// diagonalization circuit and per-member sign corrections computed by
// stabilizer-tableau elimination.
package densefam
