// Package render defines the rendering contract consumed by the scene engine.
//
// The engine never touches geometry directly: it creates primitives through a
// Renderer, moves and toggles them by handle, and reads back only position and
// enabled state. Any backend (WebGL bridge, native engine, headless recorder)
// can sit behind the interface.
package render

import "gonum.org/v1/gonum/spatial/r3"

// Handle identifies one primitive owned by a Renderer.
// Zero is never a valid handle.
type Handle int64

// None is the absent handle.
const None Handle = 0

// Renderer is the minimal surface the scene engine needs from a rendering
// backend. Implementations are not required to be safe for concurrent use;
// the engine drives a Renderer from a single goroutine.
type Renderer interface {
	// CreateSphere creates a sphere primitive with the given diameter.
	CreateSphere(name string, diameter float64) Handle
	// CreateCylinder creates a cylinder primitive with the given height and diameter.
	CreateCylinder(name string, height, diameter float64) Handle
	// CreatePlane creates a flat plane primitive, typically used for labels.
	CreatePlane(name string, width, height float64) Handle

	// SetParent attaches child to parent so the child follows the parent's
	// transform. Passing None as parent detaches the child.
	SetParent(child, parent Handle)
	// SetPosition places the primitive. The position is relative to the
	// primitive's parent, or absolute if it has none.
	SetPosition(h Handle, pos r3.Vec)
	// SetEnabled toggles primitive visibility without destroying it.
	SetEnabled(h Handle, enabled bool)
	// OrientTowards rotates the primitive so its long axis runs from 'from' to 'to'.
	OrientTowards(h Handle, from, to r3.Vec)
	// Dispose destroys the primitive and releases its resources.
	// Disposing an unknown or already-disposed handle is a no-op.
	Dispose(h Handle)

	// Position reports the primitive's current position.
	Position(h Handle) r3.Vec
	// IsEnabled reports whether the primitive is currently enabled.
	IsEnabled(h Handle) bool
}
