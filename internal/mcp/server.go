// Package mcp exposes the cluster tree and a headless scene session over the
// Model Context Protocol, so an LLM client can browse the tree the same way
// the 3D frontend does.
package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/internal/treestore"
)

func NewMCPServer(store *treestore.Store) *mcp.Server {
	service := NewService(store)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "Wikipedia Tree Browser",
		Version: "0.3.1",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_namespaces",
		Description: "List the loaded cluster tree namespaces (one per wiki dataset).",
	}, service.ListNamespaces)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_node",
		Description: "Fetch one cluster node with its parent and children.",
	}, service.GetNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_clusters",
		Description: "Search cluster labels by substring (case-insensitive).",
		InputSchema: searchClustersSchema,
	}, service.SearchClusters)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "focus_node",
		Description: "Focus the scene on a node: shows the node, its children, and the full ancestor chain to the root, then sweeps everything else.",
	}, service.FocusNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "describe_scene",
		Description: "Describe the current scene: visible instances with positions, link count, and camera pose.",
	}, service.DescribeScene)

	return s
}

// searchClustersSchema is written out by hand because the struct-derived
// schema cannot express the limit bounds.
var searchClustersSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"namespace": {
			Type:        "string",
			Description: "Cluster tree namespace. Defaults to the only loaded namespace.",
		},
		"query": {
			Type:        "string",
			Description: "Substring to match against cluster labels, case-insensitive.",
		},
		"limit": {
			Type:        "integer",
			Description: "Maximum number of results (default 50).",
			Minimum:     f64(1),
			Maximum:     f64(500),
		},
	},
	Required: []string{"query"},
}

func f64(v float64) *float64 { return &v }
