package filter

import (
	"math"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// TurbulenceType selects the noise accumulation of the primitive.
type TurbulenceType uint8

const (
	// FractalNoise sums signed noise and remaps to [0,1] via (x+1)/2.
	FractalNoise TurbulenceType = iota

	// TurbulenceNoise sums absolute noise values.
	TurbulenceNoise
)

// Park-Miller generator constants and Perlin lattice parameters, per
// the W3C feTurbulence reference implementation.
const (
	randM = 2147483647 // 2**31 - 1
	randA = 16807      // 7**5, primitive root of m
	randQ = 127773     // m / a
	randR = 2836       // m % a

	bSize   = 0x100
	bMask   = 0xff
	perlinN = 0x1000
)

// Turbulence synthesizes per-channel 2D Perlin noise.
//
// The generator is seeded from the user seed with the Park-Miller
// recurrence; up to 12 octaves are accumulated. Lattice coordinates are
// rewrapped when tile stitching is enabled.
type Turbulence struct {
	prim
	BaseFreqX   float64
	BaseFreqY   float64
	NumOctaves  int
	Seed        float64
	StitchTiles bool
	Type        TurbulenceType

	// Tile is the stitch tile in primitive units, used only when
	// StitchTiles is set.
	Tile geom.Rect

	latticeInit bool
	lattice     [bSize + bSize + 2]int
	gradient    [4][bSize + bSize + 2][2]float64
}

// maxOctaves caps the octave loop.
const maxOctaves = 12

// NewTurbulence creates a turbulence primitive.
func NewTurbulence(t TurbulenceType, fx, fy float64, octaves int, seed float64) *Turbulence {
	return &Turbulence{
		prim:       newPrim(),
		Type:       t,
		BaseFreqX:  fx,
		BaseFreqY:  fy,
		NumOctaves: octaves,
		Seed:       seed,
	}
}

// setupSeed clamps the seed into the generator's valid range.
func setupSeed(seed int64) int64 {
	if seed <= 0 {
		seed = -(seed % (randM - 1)) + 1
	}
	if seed > randM-1 {
		seed = randM - 1
	}
	return seed
}

// random advances the Park-Miller sequence.
func random(seed int64) int64 {
	result := randA*(seed%randQ) - randR*(seed/randQ)
	if result <= 0 {
		result += randM
	}
	return result
}

// initLattice builds the permutation lattice and unit gradients.
func (p *Turbulence) initLattice() {
	seed := setupSeed(int64(p.Seed))
	var i, j, k int
	for k = 0; k < 4; k++ {
		for i = 0; i < bSize; i++ {
			p.lattice[i] = i
			for j = 0; j < 2; j++ {
				seed = random(seed)
				p.gradient[k][i][j] = float64((seed%(bSize+bSize))-bSize) / bSize
			}
			s := math.Hypot(p.gradient[k][i][0], p.gradient[k][i][1])
			p.gradient[k][i][0] /= s
			p.gradient[k][i][1] /= s
		}
	}
	for i--; i > 0; i-- {
		k = p.lattice[i]
		seed = random(seed)
		j = int(seed % bSize)
		p.lattice[i] = p.lattice[j]
		p.lattice[j] = k
	}
	for i = 0; i < bSize+2; i++ {
		p.lattice[bSize+i] = p.lattice[i]
		for k = 0; k < 4; k++ {
			p.gradient[k][bSize+i][0] = p.gradient[k][i][0]
			p.gradient[k][bSize+i][1] = p.gradient[k][i][1]
		}
	}
	p.latticeInit = true
}

// stitchInfo carries the lattice rewrap bounds while stitching.
type stitchInfo struct {
	width, height int // how much to subtract to wrap
	wrapX, wrapY  int // minimum values to wrap at
}

func sCurve(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

// noise2 evaluates one channel of gradient noise at vec.
func (p *Turbulence) noise2(channel int, vx, vy float64, stitch *stitchInfo) float64 {
	t := vx + perlinN
	bx0 := int(t)
	bx1 := bx0 + 1
	rx0 := t - math.Trunc(t)
	rx1 := rx0 - 1
	t = vy + perlinN
	by0 := int(t)
	by1 := by0 + 1
	ry0 := t - math.Trunc(t)
	ry1 := ry0 - 1

	if stitch != nil {
		if bx0 >= stitch.wrapX {
			bx0 -= stitch.width
		}
		if bx1 >= stitch.wrapX {
			bx1 -= stitch.width
		}
		if by0 >= stitch.wrapY {
			by0 -= stitch.height
		}
		if by1 >= stitch.wrapY {
			by1 -= stitch.height
		}
	}
	bx0 &= bMask
	bx1 &= bMask
	by0 &= bMask
	by1 &= bMask

	i := p.lattice[bx0]
	j := p.lattice[bx1]
	b00 := p.lattice[i+by0]
	b10 := p.lattice[j+by0]
	b01 := p.lattice[i+by1]
	b11 := p.lattice[j+by1]
	sx := sCurve(rx0)
	sy := sCurve(ry0)

	q := p.gradient[channel][b00]
	u := rx0*q[0] + ry0*q[1]
	q = p.gradient[channel][b10]
	v := rx1*q[0] + ry0*q[1]
	a := lerp(sx, u, v)
	q = p.gradient[channel][b01]
	u = rx0*q[0] + ry1*q[1]
	q = p.gradient[channel][b11]
	v = rx1*q[0] + ry1*q[1]
	b := lerp(sx, u, v)
	return lerp(sy, a, b)
}

// turbulence accumulates octaves for one channel at a point in
// primitive units.
func (p *Turbulence) turbulence(channel int, px, py float64) float64 {
	fx, fy := p.BaseFreqX, p.BaseFreqY
	var stitch *stitchInfo
	var st stitchInfo
	if p.StitchTiles {
		// adjust base frequencies so tile borders are continuous
		tw, th := p.Tile.Width(), p.Tile.Height()
		if fx != 0 && tw > 0 {
			lo := math.Floor(tw*fx) / tw
			hi := math.Ceil(tw*fx) / tw
			if fx/lo < hi/fx {
				fx = lo
			} else {
				fx = hi
			}
		}
		if fy != 0 && th > 0 {
			lo := math.Floor(th*fy) / th
			hi := math.Ceil(th*fy) / th
			if fy/lo < hi/fy {
				fy = lo
			} else {
				fy = hi
			}
		}
		st.width = int(tw*fx + 0.5)
		st.wrapX = int(p.Tile.MinX*fx + perlinN + float64(st.width))
		st.height = int(th*fy + 0.5)
		st.wrapY = int(p.Tile.MinY*fy + perlinN + float64(st.height))
		stitch = &st
	}

	sum := 0.0
	vx := px * fx
	vy := py * fy
	ratio := 1.0
	octaves := min(p.NumOctaves, maxOctaves)
	for o := 0; o < octaves; o++ {
		if p.Type == FractalNoise {
			sum += p.noise2(channel, vx, vy, stitch) / ratio
		} else {
			sum += math.Abs(p.noise2(channel, vx, vy, stitch)) / ratio
		}
		vx *= 2
		vy *= 2
		ratio *= 2
		if stitch != nil {
			// subtracting perlinN before doubling and re-adding after
			// simplifies to subtracting it once
			st.width *= 2
			st.wrapX = 2*st.wrapX - perlinN
			st.height *= 2
			st.wrapY = 2*st.wrapY - perlinN
		}
	}
	return sum
}

// Render implements Primitive.
func (p *Turbulence) Render(st *SlotTable) error {
	if !p.latticeInit {
		p.initLattice()
	}
	out := st.NewSurface(surface.ARGB32)
	area := st.Area()
	inv := st.Units().PixelToPrimitive
	w, h := out.Width(), out.Height()
	fractal := p.Type == FractalNoise

	st.Pool().Rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				pt := inv.TransformPoint(geom.Point{
					X: float64(area.MinX + x),
					Y: float64(area.MinY + y),
				})
				var r, g, b, a uint32
				if fractal {
					r = blend.ClampRoundU8((p.turbulence(0, pt.X, pt.Y)*255 + 255) / 2)
					g = blend.ClampRoundU8((p.turbulence(1, pt.X, pt.Y)*255 + 255) / 2)
					b = blend.ClampRoundU8((p.turbulence(2, pt.X, pt.Y)*255 + 255) / 2)
					a = blend.ClampRoundU8((p.turbulence(3, pt.X, pt.Y)*255 + 255) / 2)
				} else {
					r = blend.ClampRoundU8(p.turbulence(0, pt.X, pt.Y) * 255)
					g = blend.ClampRoundU8(p.turbulence(1, pt.X, pt.Y) * 255)
					b = blend.ClampRoundU8(p.turbulence(2, pt.X, pt.Y) * 255)
					a = blend.ClampRoundU8(p.turbulence(3, pt.X, pt.Y) * 255)
				}
				out.Set32(x, y, blend.Pack(a,
					blend.PremulAlpha(r, a),
					blend.PremulAlpha(g, a),
					blend.PremulAlpha(b, a),
				))
			}
		}
	})

	st.Set(p.out, out)
	return nil
}

// AreaEnlarge implements Primitive; noise is generated per pixel.
func (p *Turbulence) AreaEnlarge(area geom.IntRect, _ geom.Matrix) geom.IntRect {
	return area
}

// CanHandleAffine implements Primitive: the lattice is anchored in
// primitive space, so only translations are stable.
func (p *Turbulence) CanHandleAffine(m geom.Matrix) bool {
	return m.IsTranslation()
}

// Complexity implements Primitive.
func (p *Turbulence) Complexity() float64 {
	return 5 * float64(max(p.NumOctaves, 1))
}
