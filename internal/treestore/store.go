// Package treestore holds the cluster trees served to the browser: one
// immutable tree per namespace, loaded once at startup.
//
// Centroids are stored quantized to float16 to halve the memory of large
// trees; reads dequantize on the fly. The precision loss (~3 decimal digits)
// is irrelevant at scene scale.
package treestore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

// record is one stored node. The centroid lives here in quantized form; the
// embedded node's Centroid field is filled in on read.
type record struct {
	node     scene.Node
	centroid [3]uint16 // float16 bits
}

// labelEntry indexes a node under its case-folded label.
type labelEntry struct {
	folded string
	id     scene.NodeID
}

func labelEntryLess(a, b labelEntry) bool {
	if a.folded != b.folded {
		return a.folded < b.folded
	}
	return a.id < b.id
}

// Tree is one namespace's immutable cluster tree.
type Tree struct {
	namespace string
	root      scene.NodeID
	records   map[scene.NodeID]*record
	children  map[scene.NodeID][]scene.NodeID
	labels    *btree.BTreeG[labelEntry]
	pages     *pageIndex
}

// Store is a read-only collection of cluster trees, one per namespace.
// All methods are safe for concurrent use once loading has finished.
type Store struct {
	mu    sync.RWMutex
	trees map[string]*Tree
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{trees: make(map[string]*Tree)}
}

// AddNamespace builds and registers the tree for a namespace from its node
// list. The list must contain exactly one root (nil parent) and every
// parent pointer must resolve inside the list.
func (s *Store) AddNamespace(namespace string, nodes []scene.Node) error {
	tree := &Tree{
		namespace: namespace,
		records:   make(map[scene.NodeID]*record, len(nodes)),
		children:  make(map[scene.NodeID][]scene.NodeID),
		labels:    btree.NewBTreeG(labelEntryLess),
	}

	rootSeen := false
	for _, n := range nodes {
		if _, dup := tree.records[n.ID]; dup {
			return fmt.Errorf("namespace %q: duplicate node id %d", namespace, n.ID)
		}
		rec := &record{node: n, centroid: quantizeCentroid(n.Centroid)}
		rec.node.Namespace = namespace
		rec.node.Centroid = [3]float64{} // canonical form lives quantized
		tree.records[n.ID] = rec

		if n.ParentID == nil {
			if rootSeen {
				return fmt.Errorf("namespace %q: multiple roots (%d and %d)", namespace, tree.root, n.ID)
			}
			rootSeen = true
			tree.root = n.ID
		} else {
			tree.children[*n.ParentID] = append(tree.children[*n.ParentID], n.ID)
		}
		if n.Label != "" {
			tree.labels.Set(labelEntry{folded: strings.ToLower(n.Label), id: n.ID})
		}
	}
	if !rootSeen {
		return fmt.Errorf("namespace %q: no root node", namespace)
	}
	for parent := range tree.children {
		if _, ok := tree.records[parent]; !ok {
			return fmt.Errorf("namespace %q: parent %d referenced but not defined", namespace, parent)
		}
		sort.Slice(tree.children[parent], func(i, j int) bool {
			return tree.children[parent][i] < tree.children[parent][j]
		})
	}
	// The declared child count drives leaf rendering downstream, so a
	// mismatch with the actual children is rejected rather than papered over.
	for id, rec := range tree.records {
		if got := len(tree.children[id]); rec.node.ChildCount != got {
			return fmt.Errorf("namespace %q: node %d declares %d children, has %d",
				namespace, id, rec.node.ChildCount, got)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[namespace] = tree
	return nil
}

// Namespaces lists the loaded namespaces in sorted order.
func (s *Store) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.trees))
	for ns := range s.trees {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

func (s *Store) tree(namespace string) (*Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[namespace]
	if !ok {
		return nil, fmt.Errorf("namespace %q: %w", namespace, scene.ErrNotFound)
	}
	return t, nil
}

// materialize returns a copy of the record's node with the centroid
// dequantized.
func (t *Tree) materialize(rec *record) *scene.Node {
	n := rec.node
	n.Centroid = dequantizeCentroid(rec.centroid)
	return &n
}

func (t *Tree) node(id scene.NodeID) (*scene.Node, error) {
	rec, ok := t.records[id]
	if !ok {
		return nil, fmt.Errorf("namespace %q node %d: %w", t.namespace, id, scene.ErrNotFound)
	}
	return t.materialize(rec), nil
}

// RootNode returns the root node of a namespace.
func (s *Store) RootNode(namespace string) (*scene.Node, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	return t.node(t.root)
}

// Node returns one node by id.
func (s *Store) Node(namespace string, id scene.NodeID) (*scene.Node, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	return t.node(id)
}

// Children returns a node's children, ordered by id.
func (s *Store) Children(namespace string, id scene.NodeID) ([]*scene.Node, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	if _, ok := t.records[id]; !ok {
		return nil, fmt.Errorf("namespace %q node %d: %w", namespace, id, scene.ErrNotFound)
	}
	ids := t.children[id]
	out := make([]*scene.Node, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.materialize(t.records[cid]))
	}
	return out, nil
}

// Parent returns a node's parent, or nil for the root.
func (s *Store) Parent(namespace string, id scene.NodeID) (*scene.Node, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	rec, ok := t.records[id]
	if !ok {
		return nil, fmt.Errorf("namespace %q node %d: %w", namespace, id, scene.ErrNotFound)
	}
	if rec.node.ParentID == nil {
		return nil, nil
	}
	return t.node(*rec.node.ParentID)
}

// Siblings returns the other children of a node's parent, ordered by id.
// The root has no siblings.
func (s *Store) Siblings(namespace string, id scene.NodeID) ([]*scene.Node, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	rec, ok := t.records[id]
	if !ok {
		return nil, fmt.Errorf("namespace %q node %d: %w", namespace, id, scene.ErrNotFound)
	}
	if rec.node.ParentID == nil {
		return nil, nil
	}
	out := []*scene.Node{}
	for _, cid := range t.children[*rec.node.ParentID] {
		if cid != id {
			out = append(out, t.materialize(t.records[cid]))
		}
	}
	return out, nil
}

// GetNodeView returns the combined node/children/parent document. It
// implements scene.DataProvider, so the engine can run directly off an
// in-process store.
func (s *Store) GetNodeView(_ context.Context, namespace string, id scene.NodeID) (*scene.NodeView, error) {
	node, err := s.Node(namespace, id)
	if err != nil {
		return nil, err
	}
	children, err := s.Children(namespace, id)
	if err != nil {
		return nil, err
	}
	parent, err := s.Parent(namespace, id)
	if err != nil {
		return nil, err
	}
	return &scene.NodeView{Node: node, Children: children, Parent: parent}, nil
}

// SearchLabels returns up to limit nodes whose label contains the query,
// case-insensitively, in label order. Prefix matches are served from the
// index seek; the remainder of the index is scanned.
func (s *Store) SearchLabels(namespace, query string, limit int) ([]*scene.Node, error) {
	t, err := s.tree(namespace)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var out []*scene.Node
	add := func(e labelEntry) bool {
		out = append(out, t.materialize(t.records[e.id]))
		return len(out) < limit
	}

	// Prefix hits first, straight off the ordered index.
	seen := make(map[scene.NodeID]struct{})
	t.labels.Ascend(labelEntry{folded: q}, func(e labelEntry) bool {
		if !strings.HasPrefix(e.folded, q) {
			return false
		}
		seen[e.id] = struct{}{}
		return add(e)
	})
	if len(out) >= limit {
		return out, nil
	}
	// Then substring hits anywhere else in the index.
	t.labels.Scan(func(e labelEntry) bool {
		if _, dup := seen[e.id]; dup {
			return true
		}
		if !strings.Contains(e.folded, q) {
			return true
		}
		return add(e)
	})
	return out, nil
}
