package surface

import (
	"math"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
)

// patternKind discriminates context sources.
type patternKind uint8

const (
	patternSolid patternKind = iota
	patternSurface
)

// pattern is the active source of a Context: a premultiplied solid
// color, or a surface positioned in device space by its origin plus an
// extra offset.
type pattern struct {
	kind patternKind
	px   uint32
	surf *Surface
	dx   float64
	dy   float64
}

// sample returns the premultiplied pattern pixel at device point (x, y).
func (p *pattern) sample(x, y int) uint32 {
	if p.kind == patternSolid {
		return p.px
	}
	if p.surf == nil {
		return 0
	}
	sx := x - int(p.surf.origin.X+p.dx)
	sy := y - int(p.surf.origin.Y+p.dy)
	px := p.surf.Get32(sx, sy)
	if p.surf.format == A8 {
		// alpha-only sources paint black ink
		return px & 0xff000000
	}
	return px
}

// ctxState is one entry of the save/restore stack.
type ctxState struct {
	src       pattern
	op        Operator
	transform geom.Matrix
	clipRect  geom.IntRect
	clipMask  *Surface // A8 mask in device space, nil when clip is rectangular
	stroke    StrokeParams
	fillRule  FillRule
}

// groupFrame remembers the surface that was the target before a
// PushGroup redirected rendering.
type groupFrame struct {
	prev *Surface
}

// pathEntry is one element of the accumulated path: either an external
// PathVector or a device-space rectangle.
type pathEntry struct {
	pv        PathVector
	transform geom.Matrix
	rect      geom.Rect
	isRect    bool
}

// Context is a drawing-state machine over a Surface. It supports the
// operator, source, clip, group, and path state the render pipeline
// needs, and restores state on every exit path through Save/Restore or
// the Guard helper.
//
// All coordinates fed to the Context are device pixels unless a
// transform is set.
type Context struct {
	target *Surface
	state  ctxState
	stack  []ctxState
	groups []groupFrame

	path     []pathEntry
	polyline []geom.Point
	polyOpen bool
}

// NewContext creates a context drawing into the given surface.
func NewContext(s *Surface) *Context {
	return &Context{
		target: s,
		state: ctxState{
			src:       pattern{kind: patternSolid, px: 0xff000000},
			op:        OpOver,
			transform: geom.Identity(),
			clipRect:  geom.InfiniteIntRect(),
			stroke:    DefaultStrokeParams(),
		},
	}
}

// Target returns the surface currently being drawn into. During a group
// this is the group surface.
func (ct *Context) Target() *Surface { return ct.target }

// Save pushes the current graphics state.
func (ct *Context) Save() {
	ct.stack = append(ct.stack, ct.state)
}

// Restore pops the graphics state. Restoring past the bottom of the
// stack is a no-op.
func (ct *Context) Restore() {
	if n := len(ct.stack); n > 0 {
		ct.state = ct.stack[n-1]
		ct.stack = ct.stack[:n-1]
	}
}

// Guard saves the state and returns the matching restore, for use as
// defer ct.Guard()().
func (ct *Context) Guard() func() {
	ct.Save()
	return ct.Restore
}

// SetOperator selects the compositing operator for subsequent paints.
func (ct *Context) SetOperator(op Operator) { ct.state.op = op }

// CurrentOperator returns the active operator.
func (ct *Context) CurrentOperator() Operator { return ct.state.op }

// SetSourceRGBA sets a straight-alpha solid source; values in [0, 1].
func (ct *Context) SetSourceRGBA(r, g, b, a float64) {
	aa := blend.ClampRoundU8(a * 255)
	rr := blend.PremulAlpha(blend.ClampRoundU8(r*255), aa)
	gg := blend.PremulAlpha(blend.ClampRoundU8(g*255), aa)
	bb := blend.PremulAlpha(blend.ClampRoundU8(b*255), aa)
	ct.state.src = pattern{kind: patternSolid, px: blend.Pack(aa, rr, gg, bb)}
}

// SetSourcePremul sets a solid source from a packed premultiplied pixel.
func (ct *Context) SetSourcePremul(px uint32) {
	ct.state.src = pattern{kind: patternSolid, px: px}
}

// SetSourceSurface sets a surface source offset by (dx, dy) device units.
func (ct *Context) SetSourceSurface(s *Surface, dx, dy float64) {
	ct.state.src = pattern{kind: patternSurface, surf: s, dx: dx, dy: dy}
}

// ClearSource resets the source to transparent black, dropping any reference
// to a source surface.
func (ct *Context) ClearSource() {
	ct.state.src = pattern{kind: patternSolid, px: 0}
}

// SetTransform sets the user-to-device transform applied to paths.
func (ct *Context) SetTransform(m geom.Matrix) { ct.state.transform = m }

// Transform returns the current user-to-device transform.
func (ct *Context) Transform() geom.Matrix { return ct.state.transform }

// SetFillRule selects the winding rule used by Fill.
func (ct *Context) SetFillRule(r FillRule) { ct.state.fillRule = r }

// SetLineWidth sets the stroke width in user units.
func (ct *Context) SetLineWidth(w float64) { ct.state.stroke.Width = w }

// SetStrokeParams replaces all stroke geometry settings.
func (ct *Context) SetStrokeParams(p StrokeParams) { ct.state.stroke = p }

// Path state.

// NewPath discards the accumulated path.
func (ct *Context) NewPath() {
	ct.path = ct.path[:0]
	ct.polyline = ct.polyline[:0]
	ct.polyOpen = false
}

// Path appends an external path, captured with the current transform.
func (ct *Context) Path(pv PathVector) {
	ct.path = append(ct.path, pathEntry{pv: pv, transform: ct.state.transform})
}

// Rectangle appends an axis-aligned rectangle in user space. Under a
// non-rectilinear transform the bounding box of the transformed corners
// is used.
func (ct *Context) Rectangle(r geom.Rect) {
	dev := ct.state.transform.TransformRect(r)
	ct.path = append(ct.path, pathEntry{rect: dev, isRect: true})
}

// RectangleInt appends a pixel rectangle in device space, ignoring the
// transform. This is the fast path used for cache clipping.
func (ct *Context) RectangleInt(r geom.IntRect) {
	ct.path = append(ct.path, pathEntry{rect: r.Rect(), isRect: true})
}

// MoveTo starts a new polyline contour at the user-space point.
func (ct *Context) MoveTo(x, y float64) {
	p := ct.state.transform.TransformPoint(geom.Point{X: x, Y: y})
	ct.polyline = append(ct.polyline, geom.Point{X: math.NaN()}, p)
	ct.polyOpen = true
}

// LineTo extends the current polyline contour.
func (ct *Context) LineTo(x, y float64) {
	if !ct.polyOpen {
		ct.MoveTo(x, y)
		return
	}
	p := ct.state.transform.TransformPoint(geom.Point{X: x, Y: y})
	ct.polyline = append(ct.polyline, p)
}

// ClosePath closes the current polyline contour.
func (ct *Context) ClosePath() {
	// find the start of the last contour and repeat it
	for i := len(ct.polyline) - 1; i >= 0; i-- {
		if math.IsNaN(ct.polyline[i].X) {
			if i+1 < len(ct.polyline) {
				ct.polyline = append(ct.polyline, ct.polyline[i+1])
			}
			return
		}
	}
}

// Clipping.

// Clip intersects the current clip with the accumulated path and clears
// the path.
func (ct *Context) Clip() {
	ct.ClipPreserve()
	ct.NewPath()
}

// ClipPreserve is Clip without clearing the path.
func (ct *Context) ClipPreserve() {
	// rectangles intersect the clip rect directly; everything else
	// renders into an A8 mask
	allRect := true
	for _, e := range ct.path {
		if !e.isRect {
			allRect = false
			break
		}
	}
	if allRect && len(ct.path) == 1 {
		ct.state.clipRect = ct.state.clipRect.Intersect(ct.path[0].rect.OutwardRound())
		return
	}
	mask := ct.coverageMask()
	if ct.state.clipMask != nil {
		// intersect with the previous mask
		prev := ct.state.clipMask
		for y := 0; y < mask.height; y++ {
			row := mask.Row(y)
			for x := range row {
				row[x] = byte(blend.MulDiv255(uint32(row[x]), prev.Get32(x, y)>>24))
			}
		}
	}
	ct.state.clipMask = mask
}

// clipAt returns the clip coverage (0-255) at device point (x, y).
func (ct *Context) clipAt(x, y int) uint32 {
	if !ct.state.clipRect.Contains(x, y) {
		return 0
	}
	if ct.state.clipMask == nil {
		return 255
	}
	m := ct.state.clipMask
	return m.Get32(x-int(m.origin.X), y-int(m.origin.Y)) >> 24
}

// Painting.

// Paint composites the source over the whole clip region with the
// current operator. OpSource and OpIn apply unbounded inside the clip.
func (ct *Context) Paint() {
	ct.paintAlpha(255)
}

// PaintWithAlpha is Paint with the source additionally scaled by alpha
// in [0, 1].
func (ct *Context) PaintWithAlpha(alpha float64) {
	ct.paintAlpha(blend.ClampRoundU8(alpha * 255))
}

func (ct *Context) paintAlpha(alpha uint32) {
	t := ct.target
	area := t.PixelArea().Intersect(ct.state.clipRect)
	if area.IsEmpty() {
		return
	}
	ox, oy := int(t.origin.X), int(t.origin.Y)
	for y := area.MinY; y < area.MaxY; y++ {
		for x := area.MinX; x < area.MaxX; x++ {
			c := ct.clipAt(x, y)
			if c == 0 {
				continue
			}
			src := ct.state.src.sample(x, y)
			if alpha < 255 {
				src = blend.MulAlpha(src, alpha)
			}
			tx, ty := x-ox, y-oy
			dst := t.Get32(tx, ty)
			out := applyOp(ct.state.op, src, dst)
			if c < 255 {
				// partially clipped pixels blend toward the full result
				out = addSat(blend.MulAlpha(out, c), blend.MulAlpha(dst, 255-c))
			}
			t.Set32(tx, ty, out)
		}
	}
}

// Fill composites the source through the coverage of the accumulated
// path, then clears the path.
func (ct *Context) Fill() {
	ct.FillPreserve()
	ct.NewPath()
}

// FillPreserve is Fill without clearing the path.
func (ct *Context) FillPreserve() {
	mask := ct.coverageMask()
	ct.compositeMask(mask)
}

// Stroke composites the source through the stroke coverage of the
// accumulated path, then clears the path.
func (ct *Context) Stroke() {
	ct.StrokePreserve()
	ct.NewPath()
}

// StrokePreserve is Stroke without clearing the path.
func (ct *Context) StrokePreserve() {
	mask := ct.strokeMask()
	ct.compositeMask(mask)
}

// compositeMask paints the source through an A8 coverage mask aligned
// with the target.
func (ct *Context) compositeMask(mask *Surface) {
	t := ct.target
	area := t.PixelArea().Intersect(ct.state.clipRect)
	if area.IsEmpty() {
		return
	}
	ox, oy := int(t.origin.X), int(t.origin.Y)
	for y := area.MinY; y < area.MaxY; y++ {
		for x := area.MinX; x < area.MaxX; x++ {
			cov := mask.Get32(x-ox, y-oy) >> 24
			if cov == 0 {
				continue
			}
			if c := ct.clipAt(x, y); c < 255 {
				cov = blend.MulDiv255(cov, c)
				if cov == 0 {
					continue
				}
			}
			src := ct.state.src.sample(x, y)
			tx, ty := x-ox, y-oy
			dst := t.Get32(tx, ty)
			// a mask makes every operator bounded: blend the full
			// result in by the coverage
			out := applyOp(ct.state.op, src, dst)
			if cov < 255 {
				out = addSat(blend.MulAlpha(out, cov), blend.MulAlpha(dst, 255-cov))
			}
			t.Set32(tx, ty, out)
		}
	}
}

// addSat adds two premultiplied pixels channel-wise with saturation.
func addSat(a, b uint32) uint32 {
	aa, ar, ag, ab := blend.Unpack(a)
	ba, br, bg, bb := blend.Unpack(b)
	s := func(x uint32) uint32 {
		if x > 255 {
			return 255
		}
		return x
	}
	return blend.Pack(s(aa+ba), s(ar+br), s(ag+bg), s(ab+bb))
}

// coverageMask rasterizes the accumulated path's fill coverage into an
// A8 surface aligned with the target.
func (ct *Context) coverageMask() *Surface {
	t := ct.target
	mask, _ := Similar(t, ContentAlpha)
	for _, e := range ct.path {
		if e.isRect {
			rasterRect(mask, e.rect, t.origin)
			continue
		}
		e.pv.FillCoverage(mask.data, mask.stride, mask.width, mask.height,
			t.origin, e.transform, ct.state.fillRule)
	}
	return mask
}

// strokeMask rasterizes the stroke coverage of the accumulated path.
func (ct *Context) strokeMask() *Surface {
	t := ct.target
	mask, _ := Similar(t, ContentAlpha)
	for _, e := range ct.path {
		if e.isRect {
			strokeRectOutline(mask, e.rect, t.origin, ct.state.stroke.Width)
			continue
		}
		e.pv.StrokeCoverage(mask.data, mask.stride, mask.width, mask.height,
			t.origin, e.transform, &ct.state.stroke)
	}
	ct.strokePolyline(mask, ct.state.stroke.Width)
	return mask
}

// rasterRect writes box coverage with antialiased edges for the
// device-space rect into an A8 mask whose pixel (0,0) sits at origin.
func rasterRect(mask *Surface, r geom.Rect, origin geom.Point) {
	if r.IsEmpty() {
		return
	}
	x0 := r.MinX - origin.X
	y0 := r.MinY - origin.Y
	x1 := r.MaxX - origin.X
	y1 := r.MaxY - origin.Y
	px0 := int(math.Floor(x0))
	py0 := int(math.Floor(y0))
	px1 := int(math.Ceil(x1))
	py1 := int(math.Ceil(y1))
	for y := max(py0, 0); y < min(py1, mask.height); y++ {
		fy := coverage1D(float64(y), float64(y+1), y0, y1)
		row := mask.Row(y)
		for x := max(px0, 0); x < min(px1, mask.width); x++ {
			fx := coverage1D(float64(x), float64(x+1), x0, x1)
			c := uint32(fx * fy * 255)
			if prev := uint32(row[x]); c > prev {
				row[x] = byte(c)
			}
		}
	}
}

// coverage1D returns the overlap fraction of pixel span [p0,p1) with
// the interval [lo,hi).
func coverage1D(p0, p1, lo, hi float64) float64 {
	a := math.Max(p0, lo)
	b := math.Min(p1, hi)
	if b <= a {
		return 0
	}
	return b - a
}

// strokeRectOutline draws the four edges of a rect as a stroke.
func strokeRectOutline(mask *Surface, r geom.Rect, origin geom.Point, width float64) {
	h := width / 2
	rasterRect(mask, geom.Rect{MinX: r.MinX - h, MinY: r.MinY - h, MaxX: r.MaxX + h, MaxY: r.MinY + h}, origin)
	rasterRect(mask, geom.Rect{MinX: r.MinX - h, MinY: r.MaxY - h, MaxX: r.MaxX + h, MaxY: r.MaxY + h}, origin)
	rasterRect(mask, geom.Rect{MinX: r.MinX - h, MinY: r.MinY - h, MaxX: r.MinX + h, MaxY: r.MaxY + h}, origin)
	rasterRect(mask, geom.Rect{MinX: r.MaxX - h, MinY: r.MinY - h, MaxX: r.MaxX + h, MaxY: r.MaxY + h}, origin)
}

// strokePolyline stamps the polyline contours into the mask as thin
// strokes. Used only for wireframe decorations (image frames and
// diagonals), never for path outlines, which go through PathVector.
func (ct *Context) strokePolyline(mask *Surface, width float64) {
	if len(ct.polyline) == 0 {
		return
	}
	half := math.Max(width/2, 0.5)
	origin := ct.target.origin
	var prev geom.Point
	started := false
	for _, p := range ct.polyline {
		if math.IsNaN(p.X) {
			started = false
			continue
		}
		if started {
			stampSegment(mask, prev, p, origin, half)
		}
		prev = p
		started = true
	}
}

// stampSegment walks a segment in device space, stamping square dabs of
// coverage into the mask.
func stampSegment(mask *Surface, a, b geom.Point, origin geom.Point, half float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)))) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := a.X + dx*t
		y := a.Y + dy*t
		rasterRect(mask, geom.Rect{
			MinX: x - half, MinY: y - half,
			MaxX: x + half, MaxY: y + half,
		}, origin)
	}
}

// Groups.

// PushGroup redirects rendering into a fresh ARGB32 surface of the same
// geometry as the current target.
func (ct *Context) PushGroup() {
	ct.PushGroupWithContent(ContentColorAlpha)
}

// PushGroupWithContent redirects rendering into a fresh surface of the
// given content.
func (ct *Context) PushGroupWithContent(c Content) {
	grp, _ := Similar(ct.target, c)
	ct.groups = append(ct.groups, groupFrame{prev: ct.target})
	ct.target = grp
}

// PopGroupToSource ends the innermost group and installs it as the
// current source. Calling it without a group is a no-op.
func (ct *Context) PopGroupToSource() {
	n := len(ct.groups)
	if n == 0 {
		return
	}
	grp := ct.target
	ct.target = ct.groups[n-1].prev
	ct.groups = ct.groups[:n-1]
	ct.state.src = pattern{kind: patternSurface, surf: grp}
}
