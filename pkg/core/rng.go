package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	src := rand.NewPCG(uint64(seed), 0)
	return &RNG{src: src, r: rand.New(src)}
}

// Derive creates an RNG whose stream depends only on the seed and the given
// keys. Workers use it to get a per-chunk, per-tick stream that does not depend
// on goroutine scheduling.
func Derive(seed int64, keys ...uint64) *RNG {
	r := NewRNG(0)
	r.Reseed(seed, keys...)
	return r
}

// Reseed restarts the stream in place, avoiding an allocation per chunk.
func (r *RNG) Reseed(seed int64, keys ...uint64) {
	h := uint64(seed)
	for _, k := range keys {
		h = Mix(h ^ k)
	}
	r.src.Seed(h, Mix(h+0x9e3779b97f4a7c15))
}

// Mix is the splitmix64 finalizer.
func Mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Bool returns a random boolean value.
func (r *RNG) Bool() bool {
	return r.r.IntN(2) == 1
}

// Chance reports true with probability p. p <= 0 never fires, p >= 1 always does.
func (r *RNG) Chance(p float32) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.r.Float32() < p
}

// IntN returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Uint8n returns a random uint8 in [0, n).
func (r *RNG) Uint8n(n uint8) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(r.r.IntN(int(n)))
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
