package drawtree

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// groupVariant is the container item: it renders its children in
// z-order and bounds them.
type groupVariant struct {
	it             *Item
	childTransform *geom.Matrix
}

// NewGroup creates a group item.
func NewGroup(d *Drawing) *Item {
	g := &groupVariant{}
	it := newItem(d, g)
	g.it = it
	return it
}

// SetChildTransform sets an extra transform applied to regular children
// only, not to the group's own clip or mask. Meaningful for groups and
// text items.
func (it *Item) SetChildTransform(m geom.Matrix) {
	type childTransformer interface{ setChildTransform(geom.Matrix) }
	if g, ok := it.variant.(childTransformer); ok {
		g.setChildTransform(m)
	}
}

func (g *groupVariant) setChildTransform(m geom.Matrix) {
	cur := geom.Identity()
	if g.childTransform != nil {
		cur = *g.childTransform
	}
	if cur.Near(m) {
		return
	}
	g.it.markForRendering()
	if m.IsIdentity() {
		g.childTransform = nil
	} else {
		copied := m
		g.childTransform = &copied
	}
	g.it.markForUpdate(StateAll, true)
}

func (g *groupVariant) kind() ItemKind { return KindGroup }

func (g *groupVariant) childContext(ctx UpdateContext) UpdateContext {
	if g.childTransform != nil {
		ctx.CTM = ctx.CTM.Multiply(*g.childTransform)
	}
	return ctx
}

func (g *groupVariant) updateItem(area geom.IntRect, ctx UpdateContext, flags, reset State) State {
	return groupUpdate(g.it, g.childContext(ctx), area, flags, reset)
}

// groupUpdate recomputes a container's bbox from its children; shared
// with the text variant.
func groupUpdate(it *Item, ctx UpdateContext, area geom.IntRect, flags, reset State) State {
	outline := it.drawing.renderMode == RenderModeOutline
	for _, c := range it.children {
		c.Update(area, ctx, flags, reset)
	}
	bbox := geom.EmptyIntRect()
	// invisible children count too, so sticky picks can reach them
	for _, c := range it.children {
		if outline {
			bbox = bbox.Union(c.bbox)
		} else {
			bbox = bbox.Union(c.drawbox)
		}
	}
	it.bbox = bbox
	return StateAll
}

func (g *groupVariant) renderItem(ct *surface.Context, area geom.IntRect, flags RenderFlags) {
	for _, c := range g.it.children {
		c.Render(ct, area, flags)
	}
}

func (g *groupVariant) clipItem(ct *surface.Context, area geom.IntRect) {
	for _, c := range g.it.children {
		c.ClipRender(ct, area)
	}
}

func (g *groupVariant) pickItem(p geom.Point, delta float64, sticky bool) *Item {
	// topmost wins: walk in reverse z-order
	for i := len(g.it.children) - 1; i >= 0; i-- {
		picked := g.it.children[i].Pick(p, delta, sticky)
		if picked != nil {
			if g.it.pickChildren {
				return picked
			}
			return g.it
		}
	}
	return nil
}

func (g *groupVariant) canClip() bool { return true }
