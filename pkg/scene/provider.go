package scene

import "context"

// DataProvider supplies cluster-tree data to the engine. Implementations
// must be idempotent and side-effect free, and must wrap ErrNotFound when
// the node does not exist so the engine can tell a missing node from a
// transient failure. Timeouts and retries are the implementation's concern.
type DataProvider interface {
	// GetNodeView returns the node together with its children and parent.
	// Parent is nil for the root node.
	GetNodeView(ctx context.Context, namespace string, id NodeID) (*NodeView, error)
}
