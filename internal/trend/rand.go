package trend

import "math"

// SeededRand is a minimal reproducible generator: the fractional part of
// sin(register)*10000, register advancing by one per draw. Statistical
// quality is deliberately not a goal; the sequence being a pure function
// of the seed and the draw count is. Not safe for concurrent use;
// construct one per synthesis call.
type SeededRand struct {
	state float64
}

// NewSeededRand constructs a generator positioned at the given seed.
func NewSeededRand(seed uint32) *SeededRand {
	return &SeededRand{state: float64(seed)}
}

// Next returns the next value in [0, 1).
func (r *SeededRand) Next() float64 {
	x := math.Sin(r.state) * 10000
	r.state++
	return x - math.Floor(x)
}

// Range returns an integral value in [min, max] inclusive. Bounds are
// float64 because callers pass half-volatilities like 7.5; the result is
// still floor-truncated, so the draw distribution matches the reference
// generator exactly. max < min is a caller contract violation.
func (r *SeededRand) Range(min, max float64) float64 {
	return math.Floor(r.Next()*(max-min+1)) + min
}
