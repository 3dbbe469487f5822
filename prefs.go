package drawtree

import (
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/drawtree/internal/logging"
)

// Preferences supplies the boot-time configuration the renderer reads:
// worker thread count, cache budget, wireframe colors, filter quality.
// Paths are slash-separated, e.g. "options/threading/numthreads".
type Preferences interface {
	// Int returns the integer at path clamped to [minVal, maxVal],
	// or def when the path is unset.
	Int(path string, def, minVal, maxVal int) int

	// Color returns the 0xRRGGBBAA color at path, or def when unset.
	Color(path string, def uint32) uint32
}

// Preference paths queried at Drawing construction.
const (
	PrefNumThreads    = "options/threading/numthreads"
	PrefCacheBytes    = "options/memory/cache_bytes"
	PrefOutlineColor  = "options/wireframecolors/main"
	PrefClipColor     = "options/wireframecolors/clips"
	PrefMaskColor     = "options/wireframecolors/masks"
	PrefFilterQuality = "options/filters/quality"
)

// StaticPrefs is an in-memory Preferences implementation.
type StaticPrefs struct {
	Ints   map[string]int
	Colors map[string]uint32
}

// Int implements Preferences.
func (p *StaticPrefs) Int(path string, def, minVal, maxVal int) int {
	v, ok := p.Ints[path]
	if !ok {
		v = def
	}
	return clampInt(v, minVal, maxVal)
}

// Color implements Preferences.
func (p *StaticPrefs) Color(path string, def uint32) uint32 {
	if v, ok := p.Colors[path]; ok {
		return v
	}
	return def
}

// FilePrefs is a Preferences implementation backed by a TOML file.
// Slash-separated preference paths map to nested tables:
// "options/threading/numthreads" reads
//
//	[options.threading]
//	numthreads = 8
//
// Colors are written as integers, e.g. numbers like 0x00ff00ff.
type FilePrefs struct {
	tree map[string]any
}

// LoadPrefs parses the TOML file at path.
func LoadPrefs(path string) (*FilePrefs, error) {
	var tree map[string]any
	if _, err := toml.DecodeFile(path, &tree); err != nil {
		return nil, err
	}
	return &FilePrefs{tree: tree}, nil
}

// ParsePrefs parses preferences from TOML source text.
func ParsePrefs(data string) (*FilePrefs, error) {
	var tree map[string]any
	if _, err := toml.Decode(data, &tree); err != nil {
		return nil, err
	}
	return &FilePrefs{tree: tree}, nil
}

// lookup walks the nested tables along the slash path.
func (p *FilePrefs) lookup(path string) (any, bool) {
	parts := strings.Split(path, "/")
	var cur any = p.tree
	for _, part := range parts {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = table[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Int implements Preferences.
func (p *FilePrefs) Int(path string, def, minVal, maxVal int) int {
	v, ok := p.lookup(path)
	if !ok {
		return clampInt(def, minVal, maxVal)
	}
	n, ok := v.(int64)
	if !ok {
		logging.Get().Warn("preference is not an integer", "path", path)
		return clampInt(def, minVal, maxVal)
	}
	return clampInt(int(n), minVal, maxVal)
}

// Color implements Preferences.
func (p *FilePrefs) Color(path string, def uint32) uint32 {
	v, ok := p.lookup(path)
	if !ok {
		return def
	}
	n, ok := v.(int64)
	if !ok {
		logging.Get().Warn("preference is not a color", "path", path)
		return def
	}
	return uint32(n)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
