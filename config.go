package mipnerf

import (
	"errors"
	"fmt"
)

// RayShape selects the solid swept by a pixel's ray between two depths.
type RayShape uint8

const (
	// RayCone models a diverging pixel cone: the perpendicular footprint
	// of a sample grows linearly with depth.
	RayCone RayShape = iota
	// RayCylinder keeps the footprint constant along depth. Use for
	// orthographic or reference rays where cone divergence is meaningless.
	RayCylinder
)

func (s RayShape) String() string {
	switch s {
	case RayCone:
		return "cone"
	case RayCylinder:
		return "cylinder"
	}
	return "unknown"
}

// Activation enumerates the supported nonlinearities. The set is closed:
// configurations naming anything else are rejected at construction.
type Activation uint8

const (
	ActReLU Activation = iota
	ActSigmoid
	ActSoftplus
)

func (a Activation) String() string {
	switch a {
	case ActReLU:
		return "relu"
	case ActSigmoid:
		return "sigmoid"
	case ActSoftplus:
		return "softplus"
	}
	return "unknown"
}

// Config fixes the shape of the rendering pipeline at model construction.
// Runtime behavior toggles (randomized, white background) are per-call
// arguments to Render instead.
type Config struct {
	NumLevels  int  // Number of sampling levels (1 coarse + fine repeats).
	NumSamples int  // Samples drawn per ray per level.
	Disparity  bool // Sample linearly in 1/depth instead of depth.

	RayShape RayShape // Solid swept between adjacent depths.

	MinDegPoint int // Lowest frequency degree of position encoding.
	MaxDegPoint int // One past the highest degree of position encoding.

	UseViewDirs    bool // Condition color on the encoded view direction.
	DegView        int  // Frequency degrees for view direction encoding.
	AppendIdentity bool // Append raw view direction to its encoding.

	DensityActivation Activation // Only ActSoftplus is implemented.
	DensityBias       float64    // Pre-activation density shift (scene starts empty).
	DensityNoise      float64    // Stddev of raw density noise when randomized.

	RGBActivation Activation // Only ActSigmoid is implemented.
	RGBPadding    float64    // Widens the color range to [-p, 1+p].

	ResamplePadding  float64 // Additive mass on every histogram bin before resampling.
	StopResampleGrad bool    // Treat fine sample positions as constants w.r.t. coarse weights.

	DisableIntegration bool // Zero covariances before encoding (plain PE everywhere).

	// MLP shape.
	NetDepth          int        // Trunk layer count.
	NetWidth          int        // Trunk layer width.
	NetDepthCondition int        // View-conditioned branch layer count.
	NetWidthCondition int        // View-conditioned branch width.
	SkipIndex         int        // Reinject encoded input every SkipIndex trunk layers.
	NumRGBChannels    int        // Color head output channels.
	NumDensityChannel int        // Density head output channels.
	NetActivation     Activation // Only ActReLU is implemented.
}

// DefaultConfig returns the reference mip-NeRF configuration.
func DefaultConfig() Config {
	return Config{
		NumLevels:         2,
		NumSamples:        128,
		Disparity:         false,
		RayShape:          RayCone,
		MinDegPoint:       0,
		MaxDegPoint:       16,
		UseViewDirs:       true,
		DegView:           4,
		AppendIdentity:    true,
		DensityActivation: ActSoftplus,
		DensityBias:       -1,
		DensityNoise:      0,
		RGBActivation:     ActSigmoid,
		RGBPadding:        0.001,
		ResamplePadding:   0.01,
		StopResampleGrad:  true,
		NetDepth:          8,
		NetWidth:          256,
		NetDepthCondition: 1,
		NetWidthCondition: 128,
		SkipIndex:         4,
		NumRGBChannels:    3,
		NumDensityChannel: 1,
		NetActivation:     ActReLU,
	}
}

// xyzDim is the length of the integrated position encoding.
func (c Config) xyzDim() int {
	return 2 * 3 * (c.MaxDegPoint - c.MinDegPoint)
}

// viewDim is the length of the view direction encoding.
func (c Config) viewDim() int {
	n := 2 * 3 * c.DegView
	if c.AppendIdentity {
		n += 3
	}
	return n
}

func (c Config) validate() error {
	if c.NumLevels < 1 {
		return errors.New("config: NumLevels must be at least 1")
	}
	if c.NumSamples < 2 {
		return errors.New("config: NumSamples must be at least 2")
	}
	if c.RayShape != RayCone && c.RayShape != RayCylinder {
		return fmt.Errorf("config: unsupported ray shape %d", c.RayShape)
	}
	if c.MaxDegPoint <= c.MinDegPoint || c.MinDegPoint < 0 {
		return fmt.Errorf("config: bad position encoding degrees [%d,%d)", c.MinDegPoint, c.MaxDegPoint)
	}
	if c.UseViewDirs && c.DegView < 1 {
		return errors.New("config: DegView must be at least 1 when view conditioning is on")
	}
	if c.DensityActivation != ActSoftplus {
		return fmt.Errorf("config: density activation %s not implemented", c.DensityActivation)
	}
	if c.RGBActivation != ActSigmoid {
		return fmt.Errorf("config: rgb activation %s not implemented", c.RGBActivation)
	}
	if c.NetActivation != ActReLU {
		return fmt.Errorf("config: net activation %s not implemented", c.NetActivation)
	}
	if c.RGBPadding < 0 || c.ResamplePadding < 0 || c.DensityNoise < 0 {
		return errors.New("config: padding and noise values must be non-negative")
	}
	if c.NetDepth < 1 || c.NetWidth < 1 {
		return errors.New("config: trunk depth and width must be positive")
	}
	if c.UseViewDirs && (c.NetDepthCondition < 1 || c.NetWidthCondition < 1) {
		return errors.New("config: condition branch depth and width must be positive")
	}
	if c.SkipIndex < 1 {
		return errors.New("config: SkipIndex must be positive")
	}
	if c.NetDepth > 1 && (c.NetDepth-1)%c.SkipIndex == 0 {
		return errors.New("config: trunk must not end on a skip reinjection (NetDepth-1 divisible by SkipIndex)")
	}
	if c.NumRGBChannels != 3 {
		return fmt.Errorf("config: NumRGBChannels must be 3, got %d", c.NumRGBChannels)
	}
	if c.NumDensityChannel != 1 {
		return fmt.Errorf("config: NumDensityChannel must be 1, got %d", c.NumDensityChannel)
	}
	return nil
}
