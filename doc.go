// Package drawtree is a retained-mode 2D scene-graph renderer.
//
// It maintains a tree of drawable items mirroring a vector document,
// keeps per-item cached rasterizations under a global memory budget,
// recomputes bounding and clipping boxes incrementally when the tree or
// its transforms change, composites each item with its clip path, mask,
// filter chain, and opacity, and answers spatial hit-test queries for
// interactive editing.
//
// The entry point is Drawing, which owns the root Item, the cache
// budget, and the render mode. The host mutates items through their
// setters, batches the needs-redraw rectangles the Drawing reports, and
// drives frames with Update followed by Render.
//
// Path geometry, font shaping, and document parsing stay outside: items
// consume opaque PathVector values and pre-extracted glyph outlines.
package drawtree
