package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/treestore"
	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/render"
	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/scene"
)

// Service exposes the cluster tree and a headless scene session per namespace
// as MCP tools. Sessions are created lazily on the first focus_node call, so
// a client that only queries the tree never pays for scene state.
type Service struct {
	store *treestore.Store

	mu       sync.Mutex
	sessions map[string]*session
}

// session is one live headless scene for a namespace.
type session struct {
	renderer *render.Headless
	registry *scene.Registry
	sync     *scene.Synchronizer
	framer   *scene.Framer
}

func NewService(store *treestore.Store) *Service {
	return &Service{
		store:    store,
		sessions: make(map[string]*session),
	}
}

// namespace resolves an optional namespace argument. A blank argument is
// accepted only when exactly one namespace is loaded.
func (s *Service) namespace(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	all := s.store.Namespaces()
	if len(all) == 1 {
		return all[0], nil
	}
	return "", fmt.Errorf("namespace is required when %d namespaces are loaded", len(all))
}

func (s *Service) session(namespace string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[namespace]; ok {
		return sess
	}
	hr := render.NewHeadless()
	reg := scene.NewRegistry(hr, nil)
	framer := scene.NewFramer(0, 0, 0)
	sess := &session{
		renderer: hr,
		registry: reg,
		framer:   framer,
		sync: scene.NewSynchronizer(s.store, reg, namespace, scene.Options{
			Labels: scene.NewLabelSync(hr, nil),
			Framer: framer,
		}),
	}
	s.sessions[namespace] = sess
	return sess
}

func nodeInfo(n *scene.Node) NodeInfo {
	return NodeInfo{
		ID:         int64(n.ID),
		Label:      n.Label,
		Depth:      n.Depth,
		DocCount:   n.DocCount,
		ChildCount: n.ChildCount,
		Centroid:   n.Centroid,
	}
}

// --- Tool Handlers ---

func (s *Service) ListNamespaces(ctx context.Context, req *mcp.CallToolRequest, args ListNamespacesArgs) (*mcp.CallToolResult, ListNamespacesResult, error) {
	return nil, ListNamespacesResult{Namespaces: s.store.Namespaces()}, nil
}

func (s *Service) GetNode(ctx context.Context, req *mcp.CallToolRequest, args GetNodeArgs) (*mcp.CallToolResult, GetNodeResult, error) {
	ns, err := s.namespace(args.Namespace)
	if err != nil {
		return nil, GetNodeResult{}, err
	}
	view, err := s.store.GetNodeView(ctx, ns, scene.NodeID(args.NodeID))
	if err != nil {
		return nil, GetNodeResult{}, err
	}
	res := GetNodeResult{Node: nodeInfo(view.Node)}
	if view.Parent != nil {
		p := nodeInfo(view.Parent)
		res.Parent = &p
	}
	for _, c := range view.Children {
		res.Children = append(res.Children, nodeInfo(c))
	}
	return nil, res, nil
}

func (s *Service) SearchClusters(ctx context.Context, req *mcp.CallToolRequest, args SearchClustersArgs) (*mcp.CallToolResult, SearchClustersResult, error) {
	ns, err := s.namespace(args.Namespace)
	if err != nil {
		return nil, SearchClustersResult{}, err
	}
	nodes, err := s.store.SearchLabels(ns, args.Query, args.Limit)
	if err != nil {
		return nil, SearchClustersResult{}, err
	}
	res := SearchClustersResult{Query: args.Query, Clusters: []NodeInfo{}}
	for _, n := range nodes {
		res.Clusters = append(res.Clusters, nodeInfo(n))
	}
	return nil, res, nil
}

func (s *Service) FocusNode(ctx context.Context, req *mcp.CallToolRequest, args FocusNodeArgs) (*mcp.CallToolResult, FocusNodeResult, error) {
	ns, err := s.namespace(args.Namespace)
	if err != nil {
		return nil, FocusNodeResult{}, err
	}
	sess := s.session(ns)
	if err := sess.sync.FocusOn(ctx, scene.NodeID(args.NodeID)); err != nil {
		return nil, FocusNodeResult{}, err
	}

	// Another focus_node may already be running; read through the pass lock.
	res := FocusNodeResult{Focus: args.NodeID, VisibleClusters: make([]int64, 0)}
	sess.sync.Inspect(func(reg *scene.Registry, _ scene.NodeID) {
		for id := range reg.VisibleSet() {
			res.VisibleClusters = append(res.VisibleClusters, int64(id))
		}
		res.Instances = reg.InstanceCount()
		res.Links = reg.LinkCount()
	})
	sort.Slice(res.VisibleClusters, func(i, j int) bool { return res.VisibleClusters[i] < res.VisibleClusters[j] })
	return nil, res, nil
}

func (s *Service) DescribeScene(ctx context.Context, req *mcp.CallToolRequest, args DescribeSceneArgs) (*mcp.CallToolResult, DescribeSceneResult, error) {
	ns, err := s.namespace(args.Namespace)
	if err != nil {
		return nil, DescribeSceneResult{}, err
	}

	s.mu.Lock()
	sess := s.sessions[ns]
	s.mu.Unlock()
	if sess == nil {
		return nil, DescribeSceneResult{Description: "Scene is empty. Call focus_node first."}, nil
	}

	// The registry is not safe for concurrent use; a focus_node pass may be
	// mutating it right now, so the whole read happens under the pass lock.
	var sb strings.Builder
	sess.sync.Inspect(func(reg *scene.Registry, focus scene.NodeID) {
		fmt.Fprintf(&sb, "Scene for namespace %q, focused on node %d.\n", ns, focus)

		var enabled []*scene.NodeInstance
		reg.EachNodeInstance(func(ni *scene.NodeInstance) bool {
			if ni.Enabled {
				enabled = append(enabled, ni)
			}
			return true
		})
		fmt.Fprintf(&sb, "%d instances visible (%d total), %d links.\n", len(enabled), reg.InstanceCount(), reg.LinkCount())

		for _, ni := range enabled {
			label := ni.Node.Label
			if label == "" {
				label = "(unlabeled)"
			}
			marker := ""
			if ni.Key.Node == focus && ni.Focal() {
				marker = " <- focus"
			}
			fmt.Fprintf(&sb, "- node %d %q in cluster %d at (%.2f, %.2f, %.2f)%s\n",
				ni.Key.Node, label, ni.Key.Cluster, ni.Position.X, ni.Position.Y, ni.Position.Z, marker)
		}

		pose := sess.framer.Want()
		fmt.Fprintf(&sb, "Camera target (%.2f, %.2f, %.2f), distance %.2f.\n",
			pose.Target.X, pose.Target.Y, pose.Target.Z, pose.Distance)
	})

	return nil, DescribeSceneResult{Description: sb.String()}, nil
}
