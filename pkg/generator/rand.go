package generator

import (
	"math/rand/v2"
	"sync"
)

// Rand is the source of randomness used by the samplers.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniform int in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Uint64N returns a uniform uint64 in [0, n). It panics if n == 0.
	Uint64N(n uint64) uint64
	// Uint64 returns a uniform 64-bit value.
	Uint64() uint64
	// Float64 returns a uniform float64 in [0, 1).
	Float64() float64
}

// NewRand returns a deterministic source for the given seed.
// The returned source is not safe for concurrent use; wrap it with
// NewLockedRand to share it.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// globalRand draws from math/rand/v2's top-level functions.
type globalRand struct{}

func (globalRand) IntN(n int) int          { return rand.IntN(n) }
func (globalRand) Uint64N(n uint64) uint64 { return rand.Uint64N(n) }
func (globalRand) Uint64() uint64          { return rand.Uint64() }
func (globalRand) Float64() float64        { return rand.Float64() }

// LockedRand serializes access to a Rand.
type LockedRand struct {
	mu sync.Mutex
	r  Rand
}

// NewLockedRand wraps r so it can be shared between goroutines.
func NewLockedRand(r Rand) *LockedRand {
	return &LockedRand{r: r}
}

func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *LockedRand) Uint64N(n uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Uint64N(n)
}

func (l *LockedRand) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Uint64()
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

var (
	_ Rand = globalRand{}
	_ Rand = (*LockedRand)(nil)
	_ Rand = (*rand.Rand)(nil)
)
