package surface

import "image"

// ToImage copies the surface into an image.RGBA. Both representations
// are premultiplied; only the byte order differs.
func ToImage(s *Surface) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			px := s.Get32(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i] = byte(px >> 16)
			img.Pix[i+1] = byte(px >> 8)
			img.Pix[i+2] = byte(px)
			img.Pix[i+3] = byte(px >> 24)
		}
	}
	return img
}

// FromImage copies a premultiplied image.RGBA into the surface,
// anchored at the surface's pixel (0,0).
func FromImage(s *Surface, img *image.RGBA) {
	b := img.Bounds()
	w := min(b.Dx(), s.width)
	h := min(b.Dy(), s.height)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			px := uint32(img.Pix[i+3])<<24 | uint32(img.Pix[i])<<16 |
				uint32(img.Pix[i+1])<<8 | uint32(img.Pix[i+2])
			s.Set32(x, y, px)
		}
	}
}
