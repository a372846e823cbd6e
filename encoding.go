package mipnerf

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Positional encodings. The integrated variant computes the expectation
// of the Fourier features under a Gaussian-distributed position, which
// multiplies each feature by exp(-½·4ʲ·σ²): large sample footprints damp
// their own high frequencies instead of encoding aliasing noise.
//
// Feature ordering is frequency-major: for each degree j in [minDeg,
// maxDeg), for each axis in {x,y,z}, a sin/cos pair. Encoded length is
// therefore 2*3*(maxDeg-minDeg), plus 3 when the raw input is appended.

// encodeGaussian writes the integrated positional encoding of one
// Gaussian sample into dst, which must have length 2*3*(maxDeg-minDeg).
func encodeGaussian(dst []float64, g gaussian, minDeg, maxDeg int) {
	k := 0
	for j := minDeg; j < maxDeg; j++ {
		scale := math.Ldexp(1, j) // 2^j
		s2 := scale * scale
		for _, axis := range [3]struct{ x, v float64 }{
			{g.Mean.X, g.Cov.X}, {g.Mean.Y, g.Cov.Y}, {g.Mean.Z, g.Cov.Z},
		} {
			y := axis.x * scale
			att := math.Exp(-0.5 * s2 * axis.v)
			sin, cos := math.Sincos(y)
			dst[k] = att * sin
			dst[k+1] = att * cos
			k += 2
		}
	}
}

// encodeVec writes the plain positional encoding of v into dst, which
// must have length 2*3*(maxDeg-minDeg), plus 3 if appendIdentity.
func encodeVec(dst []float64, v r3.Vec, minDeg, maxDeg int, appendIdentity bool) {
	k := 0
	for j := minDeg; j < maxDeg; j++ {
		scale := math.Ldexp(1, j)
		for _, x := range [3]float64{v.X, v.Y, v.Z} {
			sin, cos := math.Sincos(x * scale)
			dst[k] = sin
			dst[k+1] = cos
			k += 2
		}
	}
	if appendIdentity {
		dst[k] = v.X
		dst[k+1] = v.Y
		dst[k+2] = v.Z
	}
}

// IntegratedPosEnc returns the expected sin/cos features of a position
// with mean and diagonal covariance cov over degrees [minDeg, maxDeg).
func IntegratedPosEnc(mean, cov r3.Vec, minDeg, maxDeg int) []float64 {
	dst := make([]float64, 2*3*(maxDeg-minDeg))
	encodeGaussian(dst, gaussian{Mean: mean, Cov: cov}, minDeg, maxDeg)
	return dst
}

// PosEnc returns the deterministic sin/cos features of v over degrees
// [minDeg, maxDeg), optionally appending the raw components of v.
func PosEnc(v r3.Vec, minDeg, maxDeg int, appendIdentity bool) []float64 {
	n := 2 * 3 * (maxDeg - minDeg)
	if appendIdentity {
		n += 3
	}
	dst := make([]float64, n)
	encodeVec(dst, v, minDeg, maxDeg, appendIdentity)
	return dst
}
