package scene

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tajhlande/wikipedia-tree-browser-sub000/pkg/render"
)

// LabelSync keeps one label plane per node instance, tracking the position
// of that exact (cluster, node) instance rather than an arbitrary instance
// of the same node id. It runs after a synchronization pass, once every
// cascaded position is final.
//
// Labels of hidden instances are disabled, not destroyed; the registry
// disposes a label only when it sweeps the underlying instance.
type LabelSync struct {
	renderer render.Renderer
	log      *slog.Logger
}

// NewLabelSync returns a label synchronizer drawing through the renderer.
func NewLabelSync(r render.Renderer, log *slog.Logger) *LabelSync {
	if log == nil {
		log = slog.Default()
	}
	return &LabelSync{renderer: r, log: log}
}

// Sync walks every instance in the registry and brings its label visual in
// line: created lazily on first need, parented to the instance's primitive
// so it follows that instance, enabled exactly when the instance is.
func (ls *LabelSync) Sync(reg *Registry) {
	synced := 0
	reg.EachNodeInstance(func(inst *NodeInstance) bool {
		if inst.Enabled && inst.Label == render.None {
			label := ls.renderer.CreatePlane(
				fmt.Sprintf("label:%d:%d", inst.Key.Cluster, inst.Key.Node),
				labelWidth, labelHeight)
			// Parenting ties the label to this specific instance; its
			// offset is expressed in the instance's local frame.
			ls.renderer.SetParent(label, inst.Handle)
			ls.renderer.SetPosition(label, r3.Vec{Y: labelRaise})
			inst.Label = label
		}
		if inst.Label != render.None {
			ls.renderer.SetEnabled(inst.Label, inst.Enabled)
			synced++
		}
		return true
	})
	ls.log.Debug("labels synchronized", "count", synced)
}
