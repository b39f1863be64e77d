package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/metrics"
)

// Options configures a Synchronizer.
type Options struct {
	// BaseScale converts centroid units to scene units. 0 selects
	// DefaultBaseScale.
	BaseScale float64

	// Labels, if set, is resynchronized after every pass.
	Labels *LabelSync

	// Framer, if set, is retargeted after every pass.
	Framer *Framer

	// Logger for pass diagnostics. Nil falls back to slog.Default.
	Logger *slog.Logger
}

// Synchronizer orchestrates focus changes: it diffs the target ancestor
// chain against the visible set, fetches what is missing, mutates the
// registry in a fixed order, and reclaims whatever the new view no longer
// reaches.
//
// Passes are strictly serialized. A focus request arriving while a pass is
// in flight supersedes it cooperatively: the running pass finishes whatever
// cluster it is currently creating, stops scheduling further ones, and the
// new pass's sweep reclaims the leftovers.
//
// Node data is immutable per fetch and cached across passes, so renavigating
// to a previously seen neighborhood does not hit the provider again.
type Synchronizer struct {
	provider  DataProvider
	registry  *Registry
	namespace string
	baseScale float64
	labels    *LabelSync
	framer    *Framer
	log       *slog.Logger

	// mu serializes passes and guards everything below.
	mu    sync.Mutex
	nodes map[NodeID]*Node
	views map[NodeID]*NodeView
	focus NodeID

	// tokenMu guards latest, which identifies the most recent focus request.
	tokenMu sync.Mutex
	latest  uuid.UUID
}

// NewSynchronizer returns a synchronizer over the given provider and
// registry, scoped to one namespace.
func NewSynchronizer(provider DataProvider, registry *Registry, namespace string, opts Options) *Synchronizer {
	if opts.BaseScale == 0 {
		opts.BaseScale = DefaultBaseScale
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Synchronizer{
		provider:  provider,
		registry:  registry,
		namespace: namespace,
		baseScale: opts.BaseScale,
		labels:    opts.Labels,
		framer:    opts.Framer,
		log:       opts.Logger,
		nodes:     make(map[NodeID]*Node),
		views:     make(map[NodeID]*NodeView),
	}
}

// NodeByID resolves a node from the synchronizer's fetch cache.
// It implements NodeSource for the position calculator.
func (s *Synchronizer) NodeByID(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Focus returns the node id of the last committed focus change.
func (s *Synchronizer) Focus() NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// IsClusterVisible reports whether the cluster is currently in the visible
// set. It blocks while a pass is in flight.
func (s *Synchronizer) IsClusterVisible(id NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.IsVisible(id)
}

// Inspect runs fn with the registry and the current focus while holding the
// pass lock. The registry itself is not safe for concurrent use, so readers
// on other goroutines must go through here; fn must not retain the registry
// past its return.
func (s *Synchronizer) Inspect(fn func(reg *Registry, focus NodeID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.registry, s.focus)
}

func (s *Synchronizer) setLatest(token uuid.UUID) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	s.latest = token
}

func (s *Synchronizer) superseded(token uuid.UUID) bool {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	return s.latest != token
}

// FocusOn runs one synchronization pass moving the view to the given node.
//
// The pass is best-effort per cluster: a failed fetch skips only that
// cluster and is reported as a DataFetchError (callers may retry), while
// previously committed scene state stays intact. ErrSuperseded is returned
// when a newer focus request replaced this pass mid-flight.
func (s *Synchronizer) FocusOn(ctx context.Context, focus NodeID) error {
	token := uuid.New()
	s.setLatest(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("focus change", "node", focus, "pass", token)

	// 1. Target chain: [focus, parent(focus), ..., root].
	chain, err := s.computeTargetChain(ctx, focus)
	if err != nil {
		metrics.SyncPassesTotal.WithLabelValues("failed").Inc()
		return err
	}

	// 2. Diff target against the current visible set. A cluster that is
	// visible but lacks its focal instance was never actually created (its
	// fetch failed or a superseding pass cut creation short) and is treated
	// as missing, so retries resume normally.
	target := make(map[NodeID]struct{}, len(chain))
	for _, id := range chain {
		target[id] = struct{}{}
	}
	current := s.registry.VisibleSet()
	var toShow, remain []NodeID
	for _, id := range chain {
		_, created := s.registry.NodeInstance(id, id)
		if current.Has(id) && created {
			remain = append(remain, id)
		} else {
			toShow = append(toShow, id)
		}
	}
	var toHide []NodeID
	for id := range current {
		if _, ok := target[id]; !ok {
			toHide = append(toHide, id)
		}
	}

	// 3. Pre-register the whole target chain before creating any geometry.
	// The position calculator must see the full chain; creating first
	// yields non-cascaded positions.
	for _, id := range chain {
		s.registry.PreRegisterVisible(id)
	}

	// 4. Create missing clusters, best-effort per cluster.
	calc := NewCalculator(s, s.registry.VisibleSet(), s.baseScale, s.log)
	var fetchErrs []error
	superseded := false
	for _, id := range toShow {
		if s.superseded(token) {
			superseded = true
			break
		}
		view, err := s.getView(ctx, id)
		if err != nil {
			s.log.Warn("cluster fetch failed, skipping", "cluster", id, "error", err)
			fetchErrs = append(fetchErrs, err)
			continue
		}
		s.createCluster(view, calc)
	}

	// 5-7. Enable the chain, hide what left it, re-assert what stayed.
	for _, id := range chain {
		s.registry.ShowCluster(id)
	}
	for _, id := range toHide {
		s.registry.HideCluster(id)
	}
	for _, id := range remain {
		s.registry.EnsureVisibility(id)
	}

	// 8. Reclaim everything the new view no longer reaches.
	s.registry.CleanupUnused()

	// 9. Secondary visuals read the settled registry.
	if s.labels != nil {
		s.labels.Sync(s.registry)
	}
	if s.framer != nil {
		s.framer.Frame(s.registry, focus)
	}

	s.focus = focus

	switch {
	case superseded:
		metrics.SyncPassesTotal.WithLabelValues("superseded").Inc()
		return ErrSuperseded
	case len(fetchErrs) > 0:
		metrics.SyncPassesTotal.WithLabelValues("partial").Inc()
		return errors.Join(fetchErrs...)
	default:
		metrics.SyncPassesTotal.WithLabelValues("ok").Inc()
		return nil
	}
}

// computeTargetChain walks parent pointers from the focus node to the root,
// fetching any node not yet cached. Unlike per-cluster creation, a failure
// here fails the whole pass: without the chain there is no target to diff.
func (s *Synchronizer) computeTargetChain(ctx context.Context, focus NodeID) ([]NodeID, error) {
	var chain []NodeID
	seen := make(map[NodeID]struct{})
	id := focus
	for {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("parent pointer cycle at node %d", id)
		}
		seen[id] = struct{}{}

		node, ok := s.nodes[id]
		if !ok {
			view, err := s.getView(ctx, id)
			if err != nil {
				return nil, err
			}
			node = view.Node
		}
		chain = append(chain, id)
		if node.IsRoot() {
			s.registry.AdoptRoot(id)
			return chain, nil
		}
		id = *node.ParentID
	}
}

// getView fetches (or returns the cached) neighborhood view for a node and
// folds its nodes into the cache. Errors are classified: a wrapped
// ErrNotFound is permanent, anything else transient.
func (s *Synchronizer) getView(ctx context.Context, id NodeID) (*NodeView, error) {
	if view, ok := s.views[id]; ok {
		return view, nil
	}
	view, err := s.provider.GetNodeView(ctx, s.namespace, id)
	if err != nil {
		return nil, &DataFetchError{
			Cluster:   id,
			Transient: !errors.Is(err, ErrNotFound),
			Err:       err,
		}
	}
	if view.Node == nil || view.Node.ID != id {
		return nil, &DataFetchError{Cluster: id, Err: fmt.Errorf("provider returned mismatched view")}
	}
	s.views[id] = view
	s.nodes[view.Node.ID] = view.Node
	if view.Parent != nil {
		s.nodes[view.Parent.ID] = view.Parent
	}
	for _, child := range view.Children {
		s.nodes[child.ID] = child
	}
	return view, nil
}

// createCluster adds the node, parent, and child instances plus their links
// for one cluster. It runs only after the view fetch succeeded, so a
// cluster is never left half-built.
func (s *Synchronizer) createCluster(view *NodeView, calc *Calculator) {
	clusterID := view.Node.ID
	focalPos := calc.Position(view.Node, clusterID)
	s.registry.AddNodeInstance(view.Node, clusterID, focalPos)

	if view.Parent != nil {
		parentPos := calc.Position(view.Parent, clusterID)
		s.registry.AddNodeInstance(view.Parent, clusterID, parentPos)
		s.registry.AddLinkInstance(view.Parent, view.Node, clusterID, parentPos, focalPos)
	}
	for _, child := range view.Children {
		childPos := calc.Position(child, clusterID)
		s.registry.AddNodeInstance(child, clusterID, childPos)
		s.registry.AddLinkInstance(view.Node, child, clusterID, focalPos, childPos)
	}
}
