package scene

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/render"
)

// fakeProvider serves NodeViews from an in-memory tree and can be told to
// fail specific nodes.
type fakeProvider struct {
	nodes    map[NodeID]*Node
	children map[NodeID][]NodeID
	fail     map[NodeID]error
	calls    int

	// Optional gate: the first fetch of blockOn signals entered and parks
	// until release is closed. Lets tests interleave work mid-pass.
	blockOn NodeID
	entered chan struct{}
	release chan struct{}
	gated   bool
}

func (f *fakeProvider) GetNodeView(_ context.Context, _ string, id NodeID) (*NodeView, error) {
	f.calls++
	if id == f.blockOn && f.release != nil && !f.gated {
		f.gated = true
		close(f.entered)
		<-f.release
	}
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	node, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	view := &NodeView{Node: node}
	if node.ParentID != nil {
		view.Parent = f.nodes[*node.ParentID]
	}
	for _, cid := range f.children[id] {
		view.Children = append(view.Children, f.nodes[cid])
	}
	return view, nil
}

// testTree builds the reference chain 1(root) -> 2 -> 3 -> 4 with the
// centroids from the framing scenario, plus node 5 as a non-chain child of
// 2, and node 6 as a leaf child of 4.
//
//	1: [0,0,0]   2: [1,0,0]   3: [0,1,0]   4: [0,0,1]
//	5: [0,0,2]   6: [2,0,0]
func testTree() *fakeProvider {
	id := func(v NodeID) *NodeID { return &v }
	nodes := map[NodeID]*Node{
		1: {ID: 1, Namespace: "test", Depth: 0, ChildCount: 1, Label: "root", Centroid: [3]float64{0, 0, 0}},
		2: {ID: 2, Namespace: "test", ParentID: id(1), Depth: 1, ChildCount: 2, Label: "two", Centroid: [3]float64{1, 0, 0}},
		3: {ID: 3, Namespace: "test", ParentID: id(2), Depth: 2, ChildCount: 1, Label: "three", Centroid: [3]float64{0, 1, 0}},
		4: {ID: 4, Namespace: "test", ParentID: id(3), Depth: 3, ChildCount: 1, Label: "four", Centroid: [3]float64{0, 0, 1}},
		5: {ID: 5, Namespace: "test", ParentID: id(2), Depth: 2, ChildCount: 0, Label: "five", Centroid: [3]float64{0, 0, 2}},
		6: {ID: 6, Namespace: "test", ParentID: id(4), Depth: 4, ChildCount: 0, Label: "six", Centroid: [3]float64{2, 0, 0}},
	}
	return &fakeProvider{
		nodes: nodes,
		children: map[NodeID][]NodeID{
			1: {2},
			2: {3, 5},
			3: {4},
			4: {6},
		},
		fail: map[NodeID]error{},
	}
}

// newTestScene wires a registry, synchronizer, labels, and framer over a
// headless renderer.
func newTestScene(t *testing.T, provider *fakeProvider) (*render.Headless, *Registry, *Synchronizer) {
	t.Helper()
	hr := render.NewHeadless()
	log := slog.Default()
	reg := NewRegistry(hr, log)
	sync := NewSynchronizer(provider, reg, "test", Options{
		Labels: NewLabelSync(hr, log),
		Framer: NewFramer(0, 0, 0),
	})
	return hr, reg, sync
}

func vec(x, y, z float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: z} }

func approxEq(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}

func wantPos(t *testing.T, reg *Registry, clusterID, nodeID NodeID, x, y, z float64) {
	t.Helper()
	inst, ok := reg.NodeInstance(clusterID, nodeID)
	if !ok {
		t.Fatalf("instance (%d,%d) missing", clusterID, nodeID)
	}
	p := inst.Position
	if !approxEq(p.X, x) || !approxEq(p.Y, y) || !approxEq(p.Z, z) {
		t.Errorf("instance (%d,%d) position = [%g,%g,%g], want [%g,%g,%g]",
			clusterID, nodeID, p.X, p.Y, p.Z, x, y, z)
	}
}
