package scene

import (
	"context"
	"testing"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/render"
)

func TestLabelsTrackTheirOwnInstance(t *testing.T) {
	provider := testTree()
	hr, reg, sync := newTestScene(t, provider)
	if err := sync.FocusOn(context.Background(), 4); err != nil {
		t.Fatalf("FocusOn(4): %v", err)
	}

	reg.EachNodeInstance(func(inst *NodeInstance) bool {
		if !inst.Enabled {
			return true
		}
		if inst.Label == render.None {
			t.Errorf("enabled instance (%d,%d) has no label", inst.Key.Cluster, inst.Key.Node)
			return true
		}
		p, ok := hr.Get(inst.Label)
		if !ok {
			t.Errorf("label handle of (%d,%d) is dangling", inst.Key.Cluster, inst.Key.Node)
			return true
		}
		// The label is parented to exactly this instance's primitive, so it
		// follows this rendering of the node, not another cluster's.
		if p.Parent != inst.Handle {
			t.Errorf("label of (%d,%d) parented to %d, want %d",
				inst.Key.Cluster, inst.Key.Node, p.Parent, inst.Handle)
		}
		if !p.Enabled {
			t.Errorf("label of enabled instance (%d,%d) is disabled", inst.Key.Cluster, inst.Key.Node)
		}
		return true
	})
}

func TestHiddenLabelsDisabledNotDestroyed(t *testing.T) {
	provider := testTree()
	hr, reg, sync := newTestScene(t, provider)
	ctx := context.Background()
	if err := sync.FocusOn(ctx, 4); err != nil {
		t.Fatalf("FocusOn(4): %v", err)
	}

	// Node 3 as a child of cluster 2 is deduped away while cluster 3 is
	// visible; after refocusing on 2 its instance in cluster 2 survives.
	if err := sync.FocusOn(ctx, 2); err != nil {
		t.Fatalf("FocusOn(2): %v", err)
	}
	inst, ok := reg.NodeInstance(2, 3)
	if !ok {
		t.Fatal("instance (2,3) missing after refocus")
	}
	if inst.Label == render.None {
		t.Fatal("instance (2,3) never received a label")
	}
	p, ok := hr.Get(inst.Label)
	if !ok {
		t.Fatal("label of a surviving instance was destroyed")
	}
	if p.Enabled != inst.Enabled {
		t.Errorf("label enabled = %v, instance enabled = %v", p.Enabled, inst.Enabled)
	}
}

func TestSweptInstanceLabelDisposed(t *testing.T) {
	provider := testTree()
	hr, reg, sync := newTestScene(t, provider)
	ctx := context.Background()
	if err := sync.FocusOn(ctx, 4); err != nil {
		t.Fatalf("FocusOn(4): %v", err)
	}
	focal4, ok := reg.NodeInstance(4, 4)
	if !ok {
		t.Fatal("instance (4,4) missing")
	}
	label := focal4.Label
	if label == render.None {
		t.Fatal("focal instance of 4 has no label")
	}

	if err := sync.FocusOn(ctx, 2); err != nil {
		t.Fatalf("FocusOn(2): %v", err)
	}
	if _, ok := hr.Get(label); ok {
		t.Error("label of a swept instance was not disposed")
	}
}
