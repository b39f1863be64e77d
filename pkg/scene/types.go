// Package scene provides the cluster-based scene synchronization engine for
// the tree browser.
//
// The engine shows a focus node, its children, its parent, and the chain of
// ancestors back to the root at the same time. The same logical node can be
// rendered several times, once per cluster it participates in, each rendering
// with its own position. The package is organized around four parts:
//
//   - Registry: owns every visual instance, its cluster memberships, and the
//     currently visible cluster set.
//   - Calculator: computes cascaded instance positions, stretching the
//     ancestor chain relative to ordinary links.
//   - Synchronizer: orchestrates a focus change end to end, fetching data,
//     mutating the registry in a fixed order, and sweeping unreachable state.
//   - LabelSync and Framer: reposition label visuals and frame the camera
//     once the registry has settled.
//
// Basic usage:
//
//	reg := scene.NewRegistry(renderer, nil)
//	sync := scene.NewSynchronizer(provider, reg, "enwiki", scene.Options{})
//	if err := sync.FocusOn(ctx, nodeID); err != nil {
//	    log.Print(err)
//	}
package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/render"
)

// NodeID identifies a cluster-tree node. Cluster ids share this type because
// a cluster is identified by its focal node's id.
type NodeID int64

// Node is one cluster-tree node as served by the data provider.
// A Node is immutable once fetched.
type Node struct {
	ID         NodeID     `json:"node_id"`
	Namespace  string     `json:"namespace"`
	ParentID   *NodeID    `json:"parent_id"`
	Depth      int        `json:"depth"`
	DocCount   int        `json:"doc_count"`
	ChildCount int        `json:"child_count"`
	Label      string     `json:"final_label,omitempty"`
	Centroid   [3]float64 `json:"centroid_3d"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == nil }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.ChildCount == 0 }

// CentroidVec returns the node's centroid, expressed in the node's own local
// frame, as a vector.
func (n *Node) CentroidVec() r3.Vec {
	return r3.Vec{X: n.Centroid[0], Y: n.Centroid[1], Z: n.Centroid[2]}
}

// NodeView is the neighborhood document the synchronizer consumes: one node
// together with its children and parent.
type NodeView struct {
	Node     *Node   `json:"node"`
	Children []*Node `json:"children"`
	Parent   *Node   `json:"parent"`
}

// InstanceKey identifies one rendering of a node within one cluster context.
// The composite key is deliberate: a plain node id would alias the several
// simultaneous renderings a node can have.
type InstanceKey struct {
	Cluster NodeID
	Node    NodeID
}

// LinkKey identifies one rendered connector within one cluster context.
type LinkKey struct {
	Cluster NodeID
	Parent  NodeID
	Child   NodeID
}

// NodeInstance is one rendering of a node inside one cluster.
type NodeInstance struct {
	Key      InstanceKey
	Node     *Node
	Handle   render.Handle
	Label    render.Handle // created lazily by LabelSync
	Position r3.Vec
	Enabled  bool
	Degraded bool // position was computed without a resolved parent

	// refs counts the shown clusters currently keeping this instance alive.
	refs int
}

// Focal reports whether this is the node's rendering within its own cluster,
// which is the authoritative position source for the node.
func (ni *NodeInstance) Focal() bool { return ni.Key.Cluster == ni.Key.Node }

// LinkInstance is one rendered parent-child connector inside one cluster.
type LinkInstance struct {
	Key     LinkKey
	Handle  render.Handle
	Enabled bool
}

// VisibleSet is an immutable snapshot of the cluster ids currently shown.
// Because cluster id equals node id, a settled visible set is exactly the
// ancestor chain from the focus node to the root.
type VisibleSet map[NodeID]struct{}

// Has reports whether the cluster id is in the set.
func (v VisibleSet) Has(id NodeID) bool {
	_, ok := v[id]
	return ok
}

// nodeInstanceLess orders instances by (cluster, node) for the btree arena.
func nodeInstanceLess(a, b *NodeInstance) bool {
	if a.Key.Cluster != b.Key.Cluster {
		return a.Key.Cluster < b.Key.Cluster
	}
	return a.Key.Node < b.Key.Node
}

// linkInstanceLess orders links by (cluster, parent, child).
func linkInstanceLess(a, b *LinkInstance) bool {
	if a.Key.Cluster != b.Key.Cluster {
		return a.Key.Cluster < b.Key.Cluster
	}
	if a.Key.Parent != b.Key.Parent {
		return a.Key.Parent < b.Key.Parent
	}
	return a.Key.Child < b.Key.Child
}
