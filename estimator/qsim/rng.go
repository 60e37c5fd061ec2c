package qsim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SamplingKey uniquely identifies a reproducible sampling run. Two
// executions with the same SamplingKey and identical batches MUST
// produce bit-for-bit identical histograms.
type SamplingKey int64

// NewSamplingKey creates a SamplingKey from a seed value.
func NewSamplingKey(seed int64) SamplingKey {
	return SamplingKey(seed)
}

// SubsystemUnit returns the RNG subsystem name for one (unit, binding)
// pair, so every histogram draws from an isolated stream regardless of
// batch composition order.
func SubsystemUnit(unit, binding int) string {
	return fmt.Sprintf("unit_%d_bind_%d", unit, binding)
}

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, derived as masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from a single
// goroutine.
type PartitionedRNG struct {
	key        SamplingKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SamplingKey.
func NewPartitionedRNG(key SamplingKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
