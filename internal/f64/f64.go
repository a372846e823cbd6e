// Package f64 holds scalar and slice kernels for depth-domain math
// shared by the sampling, resampling and compositing stages.
package f64

import "math"

// Clamp x between a and b, assume a <= b.
func Clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}

// Lerp does a linear interpolation from x to y, a = [0,1].
func Lerp(x, y, a float64) float64 {
	return x + a*(y-x)
}

// Linspace fills dst with len(dst) evenly spaced values over [a, b],
// endpoints included. A single-element dst receives a.
func Linspace(dst []float64, a, b float64) []float64 {
	n := len(dst)
	if n == 0 {
		return dst
	}
	if n == 1 {
		dst[0] = a
		return dst
	}
	step := (b - a) / float64(n-1)
	for i := range dst {
		dst[i] = a + float64(i)*step
	}
	dst[n-1] = b
	return dst
}

// CumProdExclusive writes the exclusive cumulative product of s into dst:
// dst[0] = 1, dst[i] = s[0]*...*s[i-1]. dst and s may alias.
func CumProdExclusive(dst, s []float64) []float64 {
	if len(dst) != len(s) {
		panic("f64: slice length mismatch")
	}
	acc := 1.0
	for i := range s {
		v := s[i]
		dst[i] = acc
		acc *= v
	}
	return dst
}

// SearchSorted returns the index of the first element of a strictly
// greater than v, so that a[i-1] <= v < a[i] for a sorted a. Returns
// len(a) when v is not less than every element.
func SearchSorted(a []float64, v float64) int {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if a[mid] <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Softplus is log(1+exp(x)) with a guard against overflow for large x.
func Softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// Sigmoid is the logistic function 1/(1+exp(-x)).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// NudgeUp returns the smallest float64 strictly greater than x.
func NudgeUp(x float64) float64 {
	return math.Nextafter(x, math.Inf(1))
}
