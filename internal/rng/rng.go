// Package rng implements the two deterministic xorshift128+ streams that
// make a Hidra world reproducible. A world owns exactly two independent
// Streams: the simulation stream (consumed by HGL opcodes, mitosis
// jitter, stochastic brain ops) and the metrics stream (consumed only by
// sampling decisions), so that turning metrics sampling on or off never
// perturbs the simulation itself.
package rng

import "github.com/cespare/xxhash/v2"

// defaultSeed0/1 are the fixed non-zero constants new worlds fall back to
// when no explicit seed is given and auto-reseed is disabled. A zero
// state is invalid for xorshift128+ (it is a fixed point), so these are
// never both zero.
const (
	defaultSeed0 uint64 = 0x9E3779B97F4A7C15
	defaultSeed1 uint64 = 0xBF58476D1CE4E5B9
)

// Stream is one xorshift128+ generator. Its full state is (s0, s1); that
// pair is exactly what gets persisted into a snapshot and restored
// byte-for-byte.
type Stream struct {
	s0, s1 uint64
}

// NewStream constructs a stream from explicit state, rejecting the
// all-zero state (a fixed point of xorshift128+ that would never advance).
// A zero state is replaced with the package default rather than panicking,
// since this constructor is also used to rehydrate snapshots written by
// older, possibly buggy, producers — load-time invariant violations still
// belong to the caller (internal/snapshot) to report as configuration
// errors, not to rng itself, which must stay side-effect free.
func NewStream(s0, s1 uint64) *Stream {
	if s0 == 0 && s1 == 0 {
		return &Stream{s0: defaultSeed0, s1: defaultSeed1}
	}
	return &Stream{s0: s0, s1: s1}
}

// SeedFromExperiment derives a non-zero seed pair from an experiment
// identity string using a documented, portable 64-bit hash
// (github.com/cespare/xxhash/v2), stable across Go versions and
// platforms, so the same experiment ID always reseeds identically.
func SeedFromExperiment(experimentID string) *Stream {
	h0 := xxhash.Sum64String(experimentID)
	h1 := xxhash.Sum64String(experimentID + "\x00hidra-metrics")
	return NewStream(h0, h1^defaultSeed1)
}

// State returns the stream's current (s0, s1) pair for persistence.
func (s *Stream) State() (uint64, uint64) { return s.s0, s.s1 }

// SetState restores a previously persisted (s0, s1) pair. Zero state is
// coerced to the package default, same as NewStream.
func (s *Stream) SetState(s0, s1 uint64) {
	if s0 == 0 && s1 == 0 {
		s.s0, s.s1 = defaultSeed0, defaultSeed1
		return
	}
	s.s0, s.s1 = s0, s1
}

// NextUint64 advances the stream and returns the next 64-bit value. This
// is the canonical xorshift128+ transition; it must never change once a
// world's reproducibility is load-bearing — two runs from the same seed
// must stay byte-identical tick for tick.
func (s *Stream) NextUint64() uint64 {
	x := s.s0
	y := s.s1
	s.s0 = y
	x ^= x << 23
	x ^= x >> 17
	x ^= y ^ (y >> 26)
	s.s1 = x
	return x + y
}

// NextIntn returns a value in [lo, hi). Panics if hi <= lo, which is a
// caller bug (an HGL opcode or brain asking for an empty range), not a
// recoverable runtime condition.
func (s *Stream) NextIntn(lo, hi int64) int64 {
	if hi <= lo {
		panic("rng: NextIntn requires hi > lo")
	}
	span := uint64(hi - lo)
	return lo + int64(s.NextUint64()%span)
}

// NextFloat64 returns a value in [0, 1) with 53 bits of precision, the
// standard construction of a float from a 64-bit generator.
func (s *Stream) NextFloat64() float64 {
	return float64(s.NextUint64()>>11) / (1 << 53)
}
