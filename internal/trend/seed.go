// Package trend implements the deterministic life-trend synthesis:
// seed derivation from birth data, a reproducible seeded generator, and
// the 81-point bounded random walk. Everything here is pure computation
// over immutable inputs; a fresh generator is built per synthesis call,
// so concurrent requests never share state.
package trend

// DeriveSeed hashes an identity key into the generator seed.
//
// The accumulator is 31*acc + codePoint over the string's code points,
// with native 32-bit signed wrap-around. The wrap behavior is part of
// the contract: the same birth data must produce the same seed across
// every implementation, which is the product's reproducibility promise.
// abs(MinInt32) is 2^31, hence the unsigned return.
func DeriveSeed(key string) uint32 {
	var acc int32
	for _, r := range key {
		acc = acc*31 + int32(r)
	}
	wide := int64(acc)
	if wide < 0 {
		wide = -wide
	}
	return uint32(wide)
}
