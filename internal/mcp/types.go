package mcp

// --- Tool Arguments ---

type ListNamespacesArgs struct{}

type ListNamespacesResult struct {
	Namespaces []string `json:"namespaces"`
}

type GetNodeArgs struct {
	Namespace string `json:"namespace,omitempty" jsonschema:"Cluster tree namespace (e.g. 'enwiki'). Defaults to the only loaded namespace."`
	NodeID    int64  `json:"node_id" jsonschema:"Cluster node id,required"`
}

type NodeInfo struct {
	ID         int64      `json:"id"`
	Label      string     `json:"label,omitempty"`
	Depth      int        `json:"depth"`
	DocCount   int        `json:"doc_count"`
	ChildCount int        `json:"child_count"`
	Centroid   [3]float64 `json:"centroid"`
}

type GetNodeResult struct {
	Node     NodeInfo   `json:"node"`
	Parent   *NodeInfo  `json:"parent,omitempty"`
	Children []NodeInfo `json:"children,omitempty"`
}

type SearchClustersArgs struct {
	Namespace string `json:"namespace,omitempty"`
	Query     string `json:"query"`
	Limit     int    `json:"limit,omitempty"`
}

type SearchClustersResult struct {
	Clusters []NodeInfo `json:"clusters"`
	Query    string     `json:"query"`
}

type FocusNodeArgs struct {
	Namespace string `json:"namespace,omitempty" jsonschema:"Cluster tree namespace. Defaults to the only loaded namespace."`
	NodeID    int64  `json:"node_id" jsonschema:"The cluster node to focus the scene on,required"`
}

type FocusNodeResult struct {
	Focus           int64   `json:"focus"`
	VisibleClusters []int64 `json:"visible_clusters"`
	Instances       int     `json:"instances"`
	Links           int     `json:"links"`
}

type DescribeSceneArgs struct {
	Namespace string `json:"namespace,omitempty"`
}

type DescribeSceneResult struct {
	Description string `json:"description"`
}
