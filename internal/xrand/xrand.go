// Package xrand provides the engine's seeded PRNG discipline: a single
// saved seed fans out into independent, deterministic sub-streams keyed by
// concern (drops, durations, thieving rolls, combat hits) so that adding a
// consumer of randomness never perturbs another's sequence (design doc
// Section 7.1: "PRNG sub-streams").
package xrand

import (
	"hash/fnv"
	"math/rand/v2"
	"sync"
)

// Stream names. Keep stable — renumbering or renaming shifts every saved
// game's future roll sequence.
const (
	StreamDrops    = "drops"
	StreamDuration = "duration"
	StreamThieving = "thieving"
	StreamCombat   = "combat"
	StreamDoubling = "doubling"
)

// Source is a seeded root from which named sub-streams are derived. Two
// Sources built from the same seed produce identical rolls on every stream,
// regardless of call order across streams (each stream advances its own
// independent generator). The stream cache is a reference type shared by
// every copy of a Source value, so a Source threaded by value through a
// call chain (planner search, chunked tick advances, repeated API
// requests) keeps each stream's cursor advancing rather than replaying the
// same rolls from the start on every call.
type Source struct {
	seed    uint64
	streams *streamCache
}

type streamCache struct {
	mu sync.Mutex
	m  map[string]*rand.Rand
}

// NewSource builds a root PRNG source from a 64-bit seed.
func NewSource(seed uint64) Source {
	return Source{seed: seed, streams: &streamCache{m: make(map[string]*rand.Rand)}}
}

// Stream returns the named sub-stream's generator, deterministically
// derived from the root seed and the stream name on first use, then cached
// on this Source so repeated calls continue the same sequence instead of
// restarting it.
func (s Source) Stream(name string) *rand.Rand {
	s.streams.mu.Lock()
	defer s.streams.mu.Unlock()
	if r, ok := s.streams.m[name]; ok {
		return r
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	mixed := h.Sum64() ^ s.seed
	r := rand.New(rand.NewPCG(s.seed, mixed))
	s.streams.m[name] = r
	return r
}

// Roll draws a single value in [0, 1) from the named stream's generator,
// advancing it by exactly one draw. Convenience for one-shot boolean
// chances; the planner and tick engine prefer to hold a *rand.Rand across
// many draws instead.
func (s Source) Roll(stream *rand.Rand) float64 {
	return stream.Float64()
}

// IntRange draws a uniform integer in [min, max] inclusive.
func IntRange(r *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.IntN(max-min+1)
}

// Chance reports whether a roll against probability p (in [0,1]) succeeds.
func Chance(r *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}
