package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Framer default tuning. Distance grows linearly with the largest dimension
// of the framed box so the whole visible set stays in view.
const (
	DefaultBaseDistance    = 6.0
	DefaultDistancePerUnit = 0.9
	DefaultSmoothing       = 4.0 // larger approaches the target faster
)

// CameraPose is an orbit-style camera parameterization: a look-at target and
// a distance from it. Orientation easing is the renderer's business.
type CameraPose struct {
	Target   r3.Vec
	Distance float64
}

// Framer derives a camera pose from the settled registry state and
// approaches it smoothly. Frame never blocks the synchronizer: it only
// retargets, and the embedding render loop advances the approach by calling
// Step once per frame.
type Framer struct {
	base      float64
	perUnit   float64
	smoothing float64

	current CameraPose
	want    CameraPose
}

// NewFramer returns a framer with the given constants; zero values select
// the defaults.
func NewFramer(baseDistance, distancePerUnit, smoothing float64) *Framer {
	if baseDistance == 0 {
		baseDistance = DefaultBaseDistance
	}
	if distancePerUnit == 0 {
		distancePerUnit = DefaultDistancePerUnit
	}
	if smoothing == 0 {
		smoothing = DefaultSmoothing
	}
	f := &Framer{base: baseDistance, perUnit: distancePerUnit, smoothing: smoothing}
	f.current = CameraPose{Distance: baseDistance}
	f.want = f.current
	return f
}

// Frame computes the target pose from the axis-aligned bounding box of all
// enabled instance positions. With nothing enabled it falls back to the
// focus node's focal position, and failing that keeps the current target.
func (f *Framer) Frame(reg *Registry, focus NodeID) {
	var (
		lo, hi r3.Vec
		any    bool
	)
	reg.EachNodeInstance(func(inst *NodeInstance) bool {
		if !inst.Enabled {
			return true
		}
		p := inst.Position
		if !any {
			lo, hi = p, p
			any = true
			return true
		}
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		lo.Z = math.Min(lo.Z, p.Z)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
		hi.Z = math.Max(hi.Z, p.Z)
		return true
	})

	if !any {
		if inst, ok := reg.NodeInstance(focus, focus); ok {
			f.want = CameraPose{Target: inst.Position, Distance: f.base}
		}
		return
	}

	size := r3.Sub(hi, lo)
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	f.want = CameraPose{
		Target:   midpoint(lo, hi),
		Distance: f.base + f.perUnit*maxDim,
	}
}

// Step advances the current pose toward the wanted pose by dt seconds of
// exponential approach and returns the new pose.
func (f *Framer) Step(dt float64) CameraPose {
	if dt <= 0 {
		return f.current
	}
	// 1 - e^(-s*dt) gives a frame-rate independent approach factor.
	a := 1 - math.Exp(-f.smoothing*dt)
	f.current.Target = r3.Add(f.current.Target, r3.Scale(a, r3.Sub(f.want.Target, f.current.Target)))
	f.current.Distance += a * (f.want.Distance - f.current.Distance)
	return f.current
}

// Pose returns the current (smoothed) camera pose.
func (f *Framer) Pose() CameraPose { return f.current }

// Want returns the pose the framer is approaching.
func (f *Framer) Want() CameraPose { return f.want }
