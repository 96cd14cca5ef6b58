package generator

import "math"

// Alphabet is the character set of generated strings.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SampleInt returns a uniform integer in [lo, hi]. If hi < lo it returns lo.
// The span is computed in uint64, so any pair of ints is accepted.
func SampleInt(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int(r.Uint64())
	}
	return lo + int(r.Uint64N(span+1))
}

// SampleFloat returns a uniform float in [lo, hi). If hi <= lo it returns lo.
func SampleFloat(r Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	// Interpolating keeps the result finite when hi-lo overflows.
	u := r.Float64()
	v := lo*(1-u) + hi*u
	// Rounding can land on either bound for wide ranges.
	if v >= hi {
		v = math.Nextafter(hi, lo)
	}
	if v < lo {
		v = lo
	}
	return v
}

// SampleString returns a string of uniform length in [lo, hi] whose
// characters are drawn independently from Alphabet.
func SampleString(r Rand, lo, hi int) string {
	n := SampleInt(r, lo, hi)
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = Alphabet[r.IntN(len(Alphabet))]
	}
	return string(buf)
}
