package surface

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
)

// applyOp applies a compositing operator to one premultiplied pixel pair.
func applyOp(op Operator, src, dst uint32) uint32 {
	switch op {
	case OpOver:
		return blend.SourceOver(src, dst)
	case OpSource:
		return src
	case OpIn:
		return blend.SourceIn(src, dst)
	case OpXor:
		return blend.Xor(src, dst)
	case OpClear:
		return 0
	default:
		return blend.SourceOver(src, dst)
	}
}

// CopyRect copies the device-space rect from src into dst with the
// SOURCE operator. Pixels of the rect outside either surface are
// skipped. Both surfaces are addressed through their origins.
func CopyRect(dst, src *Surface, area geom.IntRect) {
	area = area.Intersect(dst.PixelArea()).Intersect(src.PixelArea())
	if area.IsEmpty() {
		return
	}
	dox, doy := int(dst.origin.X), int(dst.origin.Y)
	sox, soy := int(src.origin.X), int(src.origin.Y)
	for y := area.MinY; y < area.MaxY; y++ {
		for x := area.MinX; x < area.MaxX; x++ {
			dst.Set32(x-dox, y-doy, src.Get32(x-sox, y-soy))
		}
	}
}

// ClearRect clears the device-space rect of the surface to transparent.
func ClearRect(s *Surface, area geom.IntRect) {
	area = area.Intersect(s.PixelArea())
	if area.IsEmpty() {
		return
	}
	ox, oy := int(s.origin.X), int(s.origin.Y)
	for y := area.MinY; y < area.MaxY; y++ {
		for x := area.MinX; x < area.MaxX; x++ {
			s.Set32(x-ox, y-oy, 0)
		}
	}
}

// LuminanceToAlpha replaces every pixel of the surface with transparent
// black carrying the luminance of the original pixel as alpha. It
// implements the mask kernel alpha = (109R + 366G + 37B + 256) / 512 on
// premultiplied values.
func LuminanceToAlpha(s *Surface) {
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			a := blend.LuminanceToAlpha(s.Get32(x, y))
			s.Set32(x, y, a<<24)
		}
	}
}
