package render

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// PrimitiveKind classifies headless primitives.
type PrimitiveKind string

const (
	KindSphere   PrimitiveKind = "sphere"
	KindCylinder PrimitiveKind = "cylinder"
	KindPlane    PrimitiveKind = "plane"
)

// Primitive is the recorded state of one headless primitive.
type Primitive struct {
	Kind     PrimitiveKind
	Name     string
	Size     [2]float64 // diameter / (height, diameter) / (width, height)
	Parent   Handle
	Position r3.Vec
	Enabled  bool
	// Axis is the last orientation requested via OrientTowards (to - from).
	Axis r3.Vec
}

// Headless is an in-memory Renderer that records every primitive and
// operation instead of drawing. It backs the engine tests and the scene
// introspection tools.
type Headless struct {
	mu       sync.Mutex
	next     Handle
	prims    map[Handle]*Primitive
	disposed int
}

// NewHeadless returns an empty headless renderer.
func NewHeadless() *Headless {
	return &Headless{
		next:  1,
		prims: make(map[Handle]*Primitive),
	}
}

func (r *Headless) create(kind PrimitiveKind, name string, a, b float64) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.next
	r.next++
	// New primitives start enabled, matching typical engine defaults.
	r.prims[h] = &Primitive{Kind: kind, Name: name, Size: [2]float64{a, b}, Enabled: true}
	return h
}

func (r *Headless) CreateSphere(name string, diameter float64) Handle {
	return r.create(KindSphere, name, diameter, diameter)
}

func (r *Headless) CreateCylinder(name string, height, diameter float64) Handle {
	return r.create(KindCylinder, name, height, diameter)
}

func (r *Headless) CreatePlane(name string, width, height float64) Handle {
	return r.create(KindPlane, name, width, height)
}

func (r *Headless) SetParent(child, parent Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prims[child]; ok {
		p.Parent = parent
	}
}

func (r *Headless) SetPosition(h Handle, pos r3.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prims[h]; ok {
		p.Position = pos
	}
}

func (r *Headless) SetEnabled(h Handle, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prims[h]; ok {
		p.Enabled = enabled
	}
}

func (r *Headless) OrientTowards(h Handle, from, to r3.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prims[h]; ok {
		p.Axis = r3.Sub(to, from)
	}
}

func (r *Headless) Dispose(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prims[h]; ok {
		delete(r.prims, h)
		r.disposed++
	}
}

func (r *Headless) Position(h Handle) r3.Vec {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prims[h]; ok {
		return p.Position
	}
	return r3.Vec{}
}

func (r *Headless) IsEnabled(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prims[h]; ok {
		return p.Enabled
	}
	return false
}

// --- Introspection helpers (not part of the Renderer contract) ---

// Live returns the number of primitives that have not been disposed.
func (r *Headless) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prims)
}

// DisposedCount returns how many primitives have been disposed so far.
func (r *Headless) DisposedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// Get returns a copy of the recorded primitive state for a handle.
func (r *Headless) Get(h Handle) (Primitive, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prims[h]; ok {
		return *p, true
	}
	return Primitive{}, false
}

// Each calls fn with every live primitive, in unspecified order.
func (r *Headless) Each(fn func(h Handle, p Primitive)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, p := range r.prims {
		fn(h, *p)
	}
}
