package mipnerf

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rays is a struct-of-arrays batch of camera rays. Directions need not be
// unit length; sample widths are scaled by the direction norm during
// compositing. ViewDirs are the unit viewing directions and Radii the
// pixel footprint radius at unit depth along each ray.
type Rays struct {
	Origins    []r3.Vec
	Directions []r3.Vec
	ViewDirs   []r3.Vec
	Radii      []float64
	Near       []float64
	Far        []float64
}

// Len returns the number of rays in the batch.
func (r Rays) Len() int { return len(r.Origins) }

func (r Rays) validate() error {
	n := r.Len()
	if n == 0 {
		return errors.New("rays: empty batch")
	}
	if len(r.Directions) != n || len(r.ViewDirs) != n ||
		len(r.Radii) != n || len(r.Near) != n || len(r.Far) != n {
		return fmt.Errorf("rays: field lengths disagree: origins=%d directions=%d viewdirs=%d radii=%d near=%d far=%d",
			n, len(r.Directions), len(r.ViewDirs), len(r.Radii), len(r.Near), len(r.Far))
	}
	for i := 0; i < n; i++ {
		if !(r.Near[i] < r.Far[i]) {
			return fmt.Errorf("rays: ray %d has near=%g >= far=%g", i, r.Near[i], r.Far[i])
		}
		if r.Radii[i] <= 0 {
			return fmt.Errorf("rays: ray %d has non-positive radius %g", i, r.Radii[i])
		}
	}
	return nil
}
