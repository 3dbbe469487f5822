package surface

import "github.com/gogpu/drawtree/geom"

// PathVector is the opaque path contract consumed from the host. The
// renderer never flattens or rasterizes curves itself; it asks the path
// for bounds, winding queries, and coverage masks.
type PathVector interface {
	// BoundsExactTransformed returns the exact bounds of the path under
	// the given transform, or ok=false for an empty path.
	BoundsExactTransformed(m geom.Matrix) (bounds geom.Rect, ok bool)

	// WindDistance returns the winding number at pt and the distance
	// from pt to the nearest point of the outline, both measured after
	// applying the transform. viewbox, when non-nil, bounds the query.
	WindDistance(m geom.Matrix, pt geom.Point, viewbox *geom.Rect) (winding int, distance float64)

	// FillCoverage writes 8-bit fill coverage for the transformed path
	// into dst, a w x h alpha buffer with the given stride whose pixel
	// (0,0) corresponds to the device pixel at origin.
	FillCoverage(dst []byte, stride, w, h int, origin geom.Point, m geom.Matrix, rule FillRule)

	// StrokeCoverage is like FillCoverage for the stroked outline.
	StrokeCoverage(dst []byte, stride, w, h int, origin geom.Point, m geom.Matrix, stroke *StrokeParams)
}

// LineCap styles the endpoints of stroked segments.
type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin styles the corners of stroked segments.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// StrokeParams carries the stroke geometry settings handed to the path
// when computing stroke coverage.
type StrokeParams struct {
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
	Dashes     []float64
	DashOffset float64
}

// DefaultStrokeParams returns a 1-unit butt/miter stroke.
func DefaultStrokeParams() StrokeParams {
	return StrokeParams{Width: 1, MiterLimit: 4}
}
