package surface

import (
	"github.com/gogpu/drawtree/geom"
)

// Surface is a pixel buffer that remembers its logical origin and its
// logical-to-pixel scale. Pixel (0,0) of the buffer corresponds to the
// logical point Origin; logical coordinates are multiplied by the scale
// to obtain pixel offsets.
//
// Surfaces are not safe for concurrent mutation; the renderer is
// single-threaded apart from row-parallel kernels, which partition the
// buffer by row.
type Surface struct {
	data   []byte
	width  int
	height int
	stride int
	format Format

	origin geom.Point
	scaleX float64
	scaleY float64
}

// New creates an ARGB32 surface covering the given pixel rect. The
// surface origin is the rect's minimum corner and the scale is 1.
func New(area geom.IntRect) (*Surface, error) {
	return NewFormat(area, ARGB32)
}

// NewFormat creates a surface of the given format covering the pixel rect.
func NewFormat(area geom.IntRect, format Format) (*Surface, error) {
	w, h := area.Width(), area.Height()
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	stride := w * format.BytesPerPixel()
	return &Surface{
		data:   make([]byte, stride*h),
		width:  w,
		height: h,
		stride: stride,
		format: format,
		origin: geom.Point{X: float64(area.MinX), Y: float64(area.MinY)},
		scaleX: 1,
		scaleY: 1,
	}, nil
}

// NewScaled creates an ARGB32 surface whose pixel grid covers the
// logical box at the given pixel dimensions. The logical-to-pixel scale
// is derived from the ratio of the two.
func NewScaled(logbox geom.Rect, pixWidth, pixHeight int) (*Surface, error) {
	if pixWidth <= 0 || pixHeight <= 0 || logbox.IsEmpty() {
		return nil, ErrInvalidDimensions
	}
	stride := pixWidth * ARGB32.BytesPerPixel()
	return &Surface{
		data:   make([]byte, stride*pixHeight),
		width:  pixWidth,
		height: pixHeight,
		stride: stride,
		format: ARGB32,
		origin: geom.Point{X: logbox.MinX, Y: logbox.MinY},
		scaleX: float64(pixWidth) / logbox.Width(),
		scaleY: float64(pixHeight) / logbox.Height(),
	}, nil
}

// Similar creates an empty surface with the same geometry as s and the
// given content.
func Similar(s *Surface, content Content) (*Surface, error) {
	format := content.Format()
	stride := s.width * format.BytesPerPixel()
	return &Surface{
		data:   make([]byte, stride*s.height),
		width:  s.width,
		height: s.height,
		stride: stride,
		format: format,
		origin: s.origin,
		scaleX: s.scaleX,
		scaleY: s.scaleY,
	}, nil
}

// Width returns the pixel width.
func (s *Surface) Width() int { return s.width }

// Height returns the pixel height.
func (s *Surface) Height() int { return s.height }

// Stride returns the bytes per row.
func (s *Surface) Stride() int { return s.stride }

// Format returns the pixel format.
func (s *Surface) Format() Format { return s.format }

// Data returns the raw pixel bytes.
func (s *Surface) Data() []byte { return s.data }

// Origin returns the logical point of pixel (0,0).
func (s *Surface) Origin() geom.Point { return s.origin }

// Scale returns the logical-to-pixel scale factors.
func (s *Surface) Scale() (x, y float64) { return s.scaleX, s.scaleY }

// Area returns the logical rectangle covered by the surface.
func (s *Surface) Area() geom.Rect {
	return geom.Rect{
		MinX: s.origin.X,
		MinY: s.origin.Y,
		MaxX: s.origin.X + float64(s.width)/s.scaleX,
		MaxY: s.origin.Y + float64(s.height)/s.scaleY,
	}
}

// PixelArea returns the device pixel rect covered by the surface,
// assuming unit scale.
func (s *Surface) PixelArea() geom.IntRect {
	ox, oy := int(s.origin.X), int(s.origin.Y)
	return geom.NewIntRect(ox, oy, ox+s.width, oy+s.height)
}

// DrawingTransform returns the affine mapping logical coordinates to
// this surface's pixel grid.
func (s *Surface) DrawingTransform() geom.Matrix {
	return geom.Scale(s.scaleX, s.scaleY).Multiply(geom.Translate(-s.origin.X, -s.origin.Y))
}

// Flush is a memory barrier hook for host surface types; it is a no-op
// for in-memory surfaces.
func (s *Surface) Flush() {}

// MarkDirty tells the surface its bytes were modified directly. A no-op
// for in-memory surfaces.
func (s *Surface) MarkDirty() {}

// Clear sets every pixel to transparent black.
func (s *Surface) Clear() {
	clear(s.data)
}

// Get32 returns the pixel at (x, y) packed as 0xAARRGGBB. A8 surfaces
// report their alpha in the top byte. Out-of-bounds reads return 0.
func (s *Surface) Get32(x, y int) uint32 {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return 0
	}
	if s.format == A8 {
		return uint32(s.data[y*s.stride+x]) << 24
	}
	i := y*s.stride + x*4
	return uint32(s.data[i])<<24 | uint32(s.data[i+1])<<16 |
		uint32(s.data[i+2])<<8 | uint32(s.data[i+3])
}

// Set32 stores a packed 0xAARRGGBB pixel at (x, y). A8 surfaces keep
// only the alpha byte. Out-of-bounds writes are ignored.
func (s *Surface) Set32(x, y int, px uint32) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	if s.format == A8 {
		s.data[y*s.stride+x] = byte(px >> 24)
		return
	}
	i := y*s.stride + x*4
	s.data[i] = byte(px >> 24)
	s.data[i+1] = byte(px >> 16)
	s.data[i+2] = byte(px >> 8)
	s.data[i+3] = byte(px)
}

// Row returns the bytes of row y.
func (s *Surface) Row(y int) []byte {
	start := y * s.stride
	return s.data[start : start+s.width*s.format.BytesPerPixel()]
}

// ByteSize returns the total buffer size in bytes.
func (s *Surface) ByteSize() int {
	return len(s.data)
}
