package scene

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/metrics"
)

// AncestorSpacing is the multiplier applied to links between two
// consecutive, currently visible ancestor-chain nodes. Other links keep
// their natural spacing.
const AncestorSpacing = 3.0

// DefaultBaseScale is the default scene-units-per-centroid-unit scale.
const DefaultBaseScale = 1.0

// Position is a computed instance placement. Degraded marks placements that
// could not cascade because a parent was unresolved; they fall back to an
// absolute offset from the origin and are usable but imprecise.
type Position struct {
	Vec      r3.Vec
	Degraded bool
}

// NodeSource resolves node data already known to the engine. The calculator
// uses it to walk parent pointers without touching the data provider.
type NodeSource interface {
	NodeByID(id NodeID) (*Node, bool)
}

// Calculator computes instance positions for one synchronization pass.
//
// The rule cascades: a node's position within a cluster is its parent's
// position in the same cluster context plus the node's own centroid offset,
// recursively down to the root at the origin. The offset of an ancestor link
// (both endpoints in the visible set) is stretched by AncestorSpacing.
// Because the parent's position already embeds any multiplier applied to it,
// a stretched ancestor carries its whole descendant bush rigidly; only
// genuine ancestor-to-ancestor edges elongate.
//
// Results are memoized per (clusterID, nodeID); create a fresh Calculator at
// the start of every pass. The visible set is taken as an explicit snapshot
// so results do not shift under the caller's feet.
type Calculator struct {
	nodes     NodeSource
	visible   VisibleSet
	baseScale float64
	memo      map[InstanceKey]Position
	log       *slog.Logger
}

// NewCalculator returns a calculator over the given node source and visible
// set snapshot. A baseScale of 0 selects DefaultBaseScale; a nil logger
// falls back to slog.Default.
func NewCalculator(nodes NodeSource, visible VisibleSet, baseScale float64, log *slog.Logger) *Calculator {
	if baseScale == 0 {
		baseScale = DefaultBaseScale
	}
	if log == nil {
		log = slog.Default()
	}
	return &Calculator{
		nodes:     nodes,
		visible:   visible,
		baseScale: baseScale,
		memo:      make(map[InstanceKey]Position),
		log:       log,
	}
}

// Position computes the placement of node within clusterID.
func (c *Calculator) Position(node *Node, clusterID NodeID) Position {
	key := InstanceKey{Cluster: clusterID, Node: node.ID}
	if p, ok := c.memo[key]; ok {
		return p
	}

	if node.IsRoot() {
		p := Position{} // root sits at the origin of the cluster-local frame
		c.memo[key] = p
		return p
	}

	mult := 1.0
	if c.visible.Has(node.ID) && c.visible.Has(*node.ParentID) {
		mult = AncestorSpacing
	}
	offset := r3.Scale(c.baseScale*mult, node.CentroidVec())

	parent, ok := c.nodes.NodeByID(*node.ParentID)
	if !ok {
		// Unresolved parent: fall back to an un-cascaded absolute
		// placement. Non-fatal, but flagged so callers can tell.
		metrics.DegradedPositionsTotal.Inc()
		c.log.Warn("degraded position: parent unresolved",
			"node", node.ID, "parent", *node.ParentID, "cluster", clusterID)
		p := Position{Vec: offset, Degraded: true}
		c.memo[key] = p
		return p
	}

	pp := c.Position(parent, clusterID)
	p := Position{Vec: r3.Add(pp.Vec, offset), Degraded: pp.Degraded}
	c.memo[key] = p
	return p
}

// dist returns the euclidean distance between two points.
func dist(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// midpoint returns the point halfway between a and b.
func midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}
