package scene

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/btree"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/metrics"
	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/render"
)

// nodeDiameter and related constants size the primitives the registry
// creates. They are plain scene units; the renderer decides what a unit is.
const (
	nodeDiameter  = 0.5
	linkDiameter  = 0.05
	labelWidth    = 1.2
	labelHeight   = 0.3
	labelRaise    = 0.45 // label sits above its node, in the node's frame
	leafShrink    = 0.6  // leaves render smaller than interior nodes
	minLinkLength = 1e-9
)

// clusterMembers records which instances belong to one cluster's membership
// set: the focal node, its children, and its parent.
type clusterMembers struct {
	nodes map[InstanceKey]struct{}
	links map[LinkKey]struct{}
	// shown is true between ShowCluster and HideCluster. A cluster can be in
	// the visible set without being shown yet (pre-registration).
	shown bool
}

// Registry owns every visual instance in the scene: node spheres, link
// cylinders, and (through LabelSync) label planes. It is the only component
// allowed to create, enable, disable, or dispose renderer primitives, which
// keeps primitive lifecycles in one place.
//
// Registry methods are not safe for concurrent use; the synchronizer
// serializes all mutation onto one goroutine.
type Registry struct {
	renderer render.Renderer
	log      *slog.Logger

	nodes *btree.BTreeG[*NodeInstance]
	links *btree.BTreeG[*LinkInstance]

	// byNode indexes, per node id, the set of clusters holding an instance
	// of that node. It drives continuous dedup enforcement.
	byNode map[NodeID]map[NodeID]struct{}

	members map[NodeID]*clusterMembers
	visible map[NodeID]struct{}

	root    NodeID
	hasRoot bool

	enabledCount int
}

// NewRegistry returns an empty registry drawing through the given renderer.
// A nil logger falls back to slog.Default.
func NewRegistry(r render.Renderer, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		renderer: r,
		log:      log,
		nodes:    btree.NewBTreeG(nodeInstanceLess),
		links:    btree.NewBTreeG(linkInstanceLess),
		byNode:   make(map[NodeID]map[NodeID]struct{}),
		members:  make(map[NodeID]*clusterMembers),
		visible:  make(map[NodeID]struct{}),
	}
}

// invariant logs and counts an absorbed programmer-error condition. A single
// malformed reference must not blank the scene, so these never propagate.
func (g *Registry) invariant(msg string, args ...any) {
	metrics.InvariantViolationsTotal.Inc()
	g.log.Warn("registry invariant violation: "+msg, args...)
}

// AdoptRoot designates the root cluster. The root cluster is permanently a
// member of the visible set and immune to HideCluster. Adopting a second,
// different root is absorbed as an invariant violation.
func (g *Registry) AdoptRoot(id NodeID) {
	if g.hasRoot {
		if g.root != id {
			g.invariant("conflicting root adoption", "have", g.root, "got", id)
		}
		return
	}
	g.root = id
	g.hasRoot = true
	g.visible[id] = struct{}{}
	metrics.SceneVisibleClusters.Set(float64(len(g.visible)))
}

// Root returns the designated root cluster id, if one has been adopted.
func (g *Registry) Root() (NodeID, bool) { return g.root, g.hasRoot }

// VisibleSet returns an immutable snapshot of the visible cluster ids.
func (g *Registry) VisibleSet() VisibleSet {
	out := make(VisibleSet, len(g.visible))
	for id := range g.visible {
		out[id] = struct{}{}
	}
	return out
}

// IsVisible reports whether the cluster is in the visible set.
func (g *Registry) IsVisible(id NodeID) bool {
	_, ok := g.visible[id]
	return ok
}

func (g *Registry) membersOf(clusterID NodeID) *clusterMembers {
	m, ok := g.members[clusterID]
	if !ok {
		m = &clusterMembers{
			nodes: make(map[InstanceKey]struct{}),
			links: make(map[LinkKey]struct{}),
		}
		g.members[clusterID] = m
	}
	return m
}

// NodeInstance returns the instance for (clusterID, nodeID), if present.
func (g *Registry) NodeInstance(clusterID, nodeID NodeID) (*NodeInstance, bool) {
	return g.nodes.Get(&NodeInstance{Key: InstanceKey{Cluster: clusterID, Node: nodeID}})
}

// LinkInstance returns the link for (clusterID, parentID, childID), if present.
func (g *Registry) LinkInstance(clusterID, parentID, childID NodeID) (*LinkInstance, bool) {
	return g.links.Get(&LinkInstance{Key: LinkKey{Cluster: clusterID, Parent: parentID, Child: childID}})
}

// EachNodeInstance calls fn for every instance in key order until fn returns
// false.
func (g *Registry) EachNodeInstance(fn func(*NodeInstance) bool) {
	g.nodes.Scan(fn)
}

// InstanceCount returns the number of live node instances.
func (g *Registry) InstanceCount() int { return g.nodes.Len() }

// LinkCount returns the number of live link instances.
func (g *Registry) LinkCount() int { return g.links.Len() }

// AddNodeInstance creates or reuses the rendering of node within clusterID
// and records the membership. The call is idempotent: repeating it with the
// same arguments returns the same instance. The instance's position is
// (re)applied on every call, since cascaded positions depend on the visible
// set at computation time.
//
// New instances start disabled; ShowCluster decides enablement.
func (g *Registry) AddNodeInstance(node *Node, clusterID NodeID, pos Position) *NodeInstance {
	if node == nil {
		g.invariant("nil node in AddNodeInstance", "cluster", clusterID)
		return nil
	}
	key := InstanceKey{Cluster: clusterID, Node: node.ID}
	inst, ok := g.nodes.Get(&NodeInstance{Key: key})
	if !ok {
		diameter := nodeDiameter
		if node.IsLeaf() {
			diameter *= leafShrink
		}
		h := g.renderer.CreateSphere(fmt.Sprintf("node:%d:%d", clusterID, node.ID), diameter)
		g.renderer.SetEnabled(h, false)
		inst = &NodeInstance{Key: key, Node: node, Handle: h}
		g.nodes.Set(inst)
		metrics.SceneInstancesLive.Set(float64(g.nodes.Len()))
	}

	inst.Position = pos.Vec
	inst.Degraded = pos.Degraded
	g.renderer.SetPosition(inst.Handle, pos.Vec)

	m := g.membersOf(clusterID)
	_, wasMember := m.nodes[key]
	m.nodes[key] = struct{}{}
	if g.byNode[node.ID] == nil {
		g.byNode[node.ID] = make(map[NodeID]struct{})
	}
	g.byNode[node.ID][clusterID] = struct{}{}

	// Joining a cluster that is already shown takes effect immediately, so
	// the dedup invariant holds between passes as well as at their ends.
	if m.shown {
		if !wasMember {
			g.bumpRefs(key, +1)
		}
		g.reconcileNode(node.ID)
	}
	return inst
}

// AddLinkInstance creates or reuses the connector parent->child within
// clusterID, stretched between the two endpoint positions. Linking nodes
// that have no instance in the cluster is absorbed as an invariant
// violation.
func (g *Registry) AddLinkInstance(parent, child *Node, clusterID NodeID, from, to Position) *LinkInstance {
	if parent == nil || child == nil {
		g.invariant("nil endpoint in AddLinkInstance", "cluster", clusterID)
		return nil
	}
	if _, ok := g.NodeInstance(clusterID, parent.ID); !ok {
		g.invariant("link references unregistered parent",
			"cluster", clusterID, "parent", parent.ID, "child", child.ID)
		return nil
	}
	if _, ok := g.NodeInstance(clusterID, child.ID); !ok {
		g.invariant("link references unregistered child",
			"cluster", clusterID, "parent", parent.ID, "child", child.ID)
		return nil
	}

	key := LinkKey{Cluster: clusterID, Parent: parent.ID, Child: child.ID}
	link, ok := g.links.Get(&LinkInstance{Key: key})
	if !ok {
		length := dist(from.Vec, to.Vec)
		if length < minLinkLength {
			length = minLinkLength
		}
		h := g.renderer.CreateCylinder(
			fmt.Sprintf("link:%d:%d:%d", clusterID, parent.ID, child.ID), length, linkDiameter)
		g.renderer.SetEnabled(h, false)
		link = &LinkInstance{Key: key, Handle: h}
		g.links.Set(link)
	}

	g.renderer.SetPosition(link.Handle, midpoint(from.Vec, to.Vec))
	g.renderer.OrientTowards(link.Handle, from.Vec, to.Vec)
	g.membersOf(clusterID).links[key] = struct{}{}
	return link
}

// PreRegisterVisible adds clusterID to the visible set without touching any
// enabled flag. It exists purely so the position calculator sees the full
// target chain before any geometry for the pass is created; creating
// geometry first yields non-cascaded positions.
func (g *Registry) PreRegisterVisible(clusterID NodeID) {
	g.visible[clusterID] = struct{}{}
	metrics.SceneVisibleClusters.Set(float64(len(g.visible)))
}

// ShowCluster adds the cluster to the visible set, enables its member links,
// and enables its member node instances subject to the dedup rule: a node
// whose own focal cluster is shown displays only there, at its authoritative
// position.
func (g *Registry) ShowCluster(clusterID NodeID) {
	g.visible[clusterID] = struct{}{}
	metrics.SceneVisibleClusters.Set(float64(len(g.visible)))

	m := g.membersOf(clusterID)
	first := !m.shown
	m.shown = true

	for key := range m.links {
		g.setLinkEnabled(key, true)
	}
	for key := range m.nodes {
		if first {
			g.bumpRefs(key, +1)
		}
		g.reconcileNode(key.Node)
	}
}

// HideCluster removes the cluster from the visible set and disables its
// member instances. Hiding the root cluster is absorbed as a no-op.
func (g *Registry) HideCluster(clusterID NodeID) {
	if g.hasRoot && clusterID == g.root {
		g.invariant("attempt to hide root cluster", "cluster", clusterID)
		return
	}
	delete(g.visible, clusterID)
	metrics.SceneVisibleClusters.Set(float64(len(g.visible)))

	m, ok := g.members[clusterID]
	if !ok {
		return
	}
	wasShown := m.shown
	m.shown = false

	for key := range m.links {
		g.setLinkEnabled(key, false)
	}
	for key := range m.nodes {
		if wasShown {
			g.bumpRefs(key, -1)
		}
		// Hiding a focal cluster may hand display back to a surviving
		// non-focal instance, so every affected node is re-evaluated.
		g.reconcileNode(key.Node)
	}
}

// EnsureVisibility idempotently re-applies the ShowCluster enablement rule
// to a cluster that should already be shown, defending against stale
// disablement left behind by earlier passes.
func (g *Registry) EnsureVisibility(clusterID NodeID) {
	m, ok := g.members[clusterID]
	if !ok || !g.IsVisible(clusterID) {
		return
	}
	if !m.shown {
		// Visible but never shown: fall through to the full rule.
		g.ShowCluster(clusterID)
		return
	}
	for key := range m.links {
		g.setLinkEnabled(key, true)
	}
	for key := range m.nodes {
		g.reconcileNode(key.Node)
	}
}

// reconcileNode enforces the dedup invariant for one node id across all of
// its instances:
//
//   - if the node's focal cluster is shown, only the focal instance is
//     enabled;
//   - otherwise every instance whose cluster is shown is enabled.
func (g *Registry) reconcileNode(nodeID NodeID) {
	clusters := g.byNode[nodeID]
	if len(clusters) == 0 {
		return
	}
	focalShown := false
	if m, ok := g.members[nodeID]; ok && m.shown {
		if _, ok := clusters[nodeID]; ok {
			focalShown = true
		}
	}
	for clusterID := range clusters {
		inst, ok := g.nodes.Get(&NodeInstance{Key: InstanceKey{Cluster: clusterID, Node: nodeID}})
		if !ok {
			g.invariant("membership without instance", "cluster", clusterID, "node", nodeID)
			continue
		}
		shown := g.members[clusterID] != nil && g.members[clusterID].shown
		want := shown && (!focalShown || inst.Focal())
		g.setNodeEnabled(inst, want)
	}
}

func (g *Registry) setNodeEnabled(inst *NodeInstance, enabled bool) {
	if inst.Enabled == enabled {
		return
	}
	inst.Enabled = enabled
	g.renderer.SetEnabled(inst.Handle, enabled)
	if enabled {
		g.enabledCount++
	} else {
		g.enabledCount--
	}
	metrics.SceneInstancesEnabled.Set(float64(g.enabledCount))
}

func (g *Registry) setLinkEnabled(key LinkKey, enabled bool) {
	link, ok := g.links.Get(&LinkInstance{Key: key})
	if !ok {
		g.invariant("membership without link", "cluster", key.Cluster, "parent", key.Parent, "child", key.Child)
		return
	}
	if link.Enabled == enabled {
		return
	}
	link.Enabled = enabled
	g.renderer.SetEnabled(link.Handle, enabled)
}

func (g *Registry) bumpRefs(key InstanceKey, delta int) {
	if inst, ok := g.nodes.Get(&NodeInstance{Key: key}); ok {
		inst.refs += delta
		if inst.refs < 0 {
			g.invariant("negative keep-alive count", "cluster", key.Cluster, "node", key.Node)
			inst.refs = 0
		}
	}
}

// CleanupUnused reclaims instances no longer keeping the scene together: a
// node instance is disposed when its keep-alive count is zero, with a
// mark-and-sweep over the membership union of every visible cluster plus the
// root cluster as backstop — an instance that is unreachable from that union
// is reclaimed even if it still holds a stale count. It returns the number
// of node and link instances swept.
func (g *Registry) CleanupUnused() (nodesSwept, linksSwept int) {
	start := time.Now()

	liveNodes := make(map[InstanceKey]struct{})
	liveLinks := make(map[LinkKey]struct{})
	mark := func(clusterID NodeID) {
		m, ok := g.members[clusterID]
		if !ok {
			return
		}
		for k := range m.nodes {
			liveNodes[k] = struct{}{}
		}
		for k := range m.links {
			liveLinks[k] = struct{}{}
		}
	}
	for id := range g.visible {
		mark(id)
	}
	if g.hasRoot {
		mark(g.root)
	}

	var deadNodes []*NodeInstance
	g.nodes.Scan(func(inst *NodeInstance) bool {
		_, reachable := liveNodes[inst.Key]
		switch {
		case inst.refs == 0 && !reachable:
			deadNodes = append(deadNodes, inst)
		case inst.refs == 0:
			// Reachable with no count: the cluster is visible but not yet
			// shown (pre-registered); the membership mark keeps it.
		case !reachable:
			// A stale count must not leak an instance nothing reachable
			// holds anymore.
			g.invariant("keep-alive count on unreachable instance",
				"cluster", inst.Key.Cluster, "node", inst.Key.Node, "refs", inst.refs)
			deadNodes = append(deadNodes, inst)
		}
		return true
	})
	var deadLinks []*LinkInstance
	g.links.Scan(func(link *LinkInstance) bool {
		if _, ok := liveLinks[link.Key]; !ok {
			deadLinks = append(deadLinks, link)
		}
		return true
	})

	for _, link := range deadLinks {
		if link.Enabled {
			g.invariant("sweeping enabled link", "cluster", link.Key.Cluster)
		}
		g.renderer.Dispose(link.Handle)
		g.links.Delete(link)
	}
	for _, inst := range deadNodes {
		g.setNodeEnabled(inst, false)
		if inst.Label != render.None {
			g.renderer.Dispose(inst.Label)
		}
		g.renderer.Dispose(inst.Handle)
		g.nodes.Delete(inst)

		if set, ok := g.byNode[inst.Key.Node]; ok {
			delete(set, inst.Key.Cluster)
			if len(set) == 0 {
				delete(g.byNode, inst.Key.Node)
			}
		}
	}

	// Drop membership bookkeeping for clusters no longer reachable.
	for clusterID := range g.members {
		if g.IsVisible(clusterID) || (g.hasRoot && clusterID == g.root) {
			continue
		}
		delete(g.members, clusterID)
	}

	nodesSwept = len(deadNodes)
	linksSwept = len(deadLinks)
	metrics.SceneInstancesLive.Set(float64(g.nodes.Len()))
	metrics.SweptInstancesTotal.Add(float64(nodesSwept + linksSwept))
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if nodesSwept+linksSwept > 0 {
		g.log.Debug("swept unreachable instances",
			"nodes", nodesSwept, "links", linksSwept, "took", time.Since(start))
	}
	return nodesSwept, linksSwept
}
