package mipnerf

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Conical frustum to Gaussian moment matching. A frustum between two
// depths has no closed-form expected sine under the Fourier features, so
// it is replaced by a Gaussian with matched first and second moments.
// Variances are kept in reduced form: one variance parallel to the ray
// and one perpendicular, since both solids are rotationally symmetric
// about the ray axis.

// frustum is the reduced-form Gaussian of one sample interval along a ray.
type frustum struct {
	TMean float64 // depth of the mean along the ray
	TVar  float64 // variance parallel to the ray
	RVar  float64 // variance perpendicular to the ray
}

// gaussian is a frustum lifted into world coordinates with a diagonal
// covariance.
type gaussian struct {
	Mean r3.Vec
	Cov  r3.Vec // diagonal of the 3x3 covariance
}

// coneFrustum matches moments of the conical frustum spanned by depths
// [t0,t1] of a cone with perpendicular radius `radius` at unit depth.
// Uses the numerically stable reparametrization around the interval
// midpoint mu and half-width hw; the naive polynomial form cancels
// catastrophically for hw << mu.
func coneFrustum(t0, t1, radius float64) frustum {
	mu := (t0 + t1) / 2
	hw := (t1 - t0) / 2
	mu2 := mu * mu
	hw2 := hw * hw
	denom := 3*mu2 + hw2
	tMean := mu + (2*mu*hw2)/denom
	tVar := hw2/3 - (4.0/15.0)*(hw2*hw2*(12*mu2-hw2))/(denom*denom)
	rVar := radius * radius * (mu2/4 + (5.0/12.0)*hw2 - (4.0/15.0)*hw2*hw2/denom)
	return frustum{TMean: tMean, TVar: tVar, RVar: rVar}
}

// cylinderFrustum matches moments of a cylinder section of constant
// perpendicular radius between depths [t0,t1].
func cylinderFrustum(t0, t1, radius float64) frustum {
	w := t1 - t0
	return frustum{
		TMean: (t0 + t1) / 2,
		TVar:  w * w / 12,
		RVar:  radius * radius / 4,
	}
}

// lift maps a reduced-form frustum Gaussian onto a world-space ray. The
// diagonal covariance decomposes into the parallel component tVar*(d⊙d)
// and the perpendicular component rVar*(1 - d⊙d/‖d‖²).
func (f frustum) lift(origin, dir r3.Vec) gaussian {
	dd := r3.Vec{X: dir.X * dir.X, Y: dir.Y * dir.Y, Z: dir.Z * dir.Z}
	n2 := math.Max(dd.X+dd.Y+dd.Z, 1e-10)
	return gaussian{
		Mean: r3.Add(origin, r3.Scale(f.TMean, dir)),
		Cov: r3.Vec{
			X: f.TVar*dd.X + f.RVar*(1-dd.X/n2),
			Y: f.TVar*dd.Y + f.RVar*(1-dd.Y/n2),
			Z: f.TVar*dd.Z + f.RVar*(1-dd.Z/n2),
		},
	}
}

// castGaussians converts the interval boundaries of one ray into one
// lifted Gaussian per interval. bounds has len(dst)+1 entries.
func castGaussians(dst []gaussian, origin, dir r3.Vec, radius float64, bounds []float64, shape RayShape) []gaussian {
	for i := range dst {
		var f frustum
		switch shape {
		case RayCylinder:
			f = cylinderFrustum(bounds[i], bounds[i+1], radius)
		default:
			f = coneFrustum(bounds[i], bounds[i+1], radius)
		}
		dst[i] = f.lift(origin, dir)
	}
	return dst
}
