package body

import "github.com/api-haus/pixelworld/pixel"

// Component is one 4-connected island of set mask bits found by Split.
type Component struct {
	// Cells, in body-local coordinates relative to the original body's
	// origin (not yet re-based to the component's own sub-window).
	Cells                   []struct{ X, Y int }
	MinX, MinY, MaxX, MaxY int
}

// VoxelCount mirrors the teacher's Component.VoxelCount field name
// (voxel_edits_and_split.go) — the size used to pick which island "keeps"
// the parent identity.
func (c Component) VoxelCount() int { return len(c.Cells) }

// split4 finds 4-connected components of set bits in a w×h mask using
// iterative flood fill (no recursion, to tolerate large bodies safely).
func split4(w, h int, bit func(x, y int) bool) []Component {
	visited := make([]bool, w*h)
	var comps []Component
	var stack []int

	idx := func(x, y int) int { return y*w + x }

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[idx(x, y)] || !bit(x, y) {
				continue
			}
			comp := Component{MinX: x, MinY: y, MaxX: x, MaxY: y}
			stack = stack[:0]
			stack = append(stack, idx(x, y))
			visited[idx(x, y)] = true
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := cur%w, cur/w
				comp.Cells = append(comp.Cells, struct{ X, Y int }{cx, cy})
				if cx < comp.MinX {
					comp.MinX = cx
				}
				if cy < comp.MinY {
					comp.MinY = cy
				}
				if cx > comp.MaxX {
					comp.MaxX = cx
				}
				if cy > comp.MaxY {
					comp.MaxY = cy
				}
				neighbors := [4][2]int{{cx + 1, cy}, {cx - 1, cy}, {cx, cy + 1}, {cx, cy - 1}}
				for _, n := range neighbors {
					nx, ny := n[0], n[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := idx(nx, ny)
					if visited[ni] || !bit(nx, ny) {
						continue
					}
					visited[ni] = true
					stack = append(stack, ni)
				}
			}
			comps = append(comps, comp)
		}
	}
	return comps
}

// Separated is one non-largest component returned by Split, ready to seed
// a fresh body via Registry.Spawn or Registry.Register.
type Separated struct {
	Width, Height int
	OriginOffsetX int
	OriginOffsetY int
	Pixels        []pixel.Pixel
	Mask          []byte
}

// Split runs 4-connectivity analysis on b's mask (spec §4.4 pass 5). If the
// mask yields k>1 components, the largest is kept in place (b is mutated to
// contain only that component's bits/pixels, preserving b.ID per spec) and
// the others are returned as fresh sub-window bodies ready to be registered
// under newly minted ids — mirroring the teacher's
// SplitDisconnectedComponents (keep-largest-original-id) / ApplySeparation
// (spawn-new-entity-per-remainder) pair.
func Split(b *Body) []Separated {
	comps := split4(b.Width, b.Height, func(x, y int) bool { return b.MaskBit(x, y) })
	if len(comps) <= 1 {
		return nil
	}

	largest := 0
	for i, c := range comps {
		if c.VoxelCount() > comps[largest].VoxelCount() {
			largest = i
		}
	}

	var out []Separated
	for i, c := range comps {
		if i == largest {
			continue
		}
		out = append(out, extractComponent(b, c))
	}

	// Rewrite b in place to contain only the largest component, preserving
	// b.ID, Width/Height and OriginOffset (they describe the same grid;
	// cells outside the kept component are simply cleared).
	kept := make(map[[2]int]bool, len(comps[largest].Cells))
	for _, cell := range comps[largest].Cells {
		kept[[2]int{cell.X, cell.Y}] = true
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !kept[[2]int{x, y}] {
				b.SetMaskBit(x, y, false)
				b.Pixels[b.cellIndex(x, y)] = pixel.Pixel{}
			}
		}
	}
	return out
}

func extractComponent(b *Body, c Component) Separated {
	w := c.MaxX - c.MinX + 1
	h := c.MaxY - c.MinY + 1
	s := Separated{
		Width:         w,
		Height:        h,
		OriginOffsetX: b.OriginOffsetX - c.MinX,
		OriginOffsetY: b.OriginOffsetY - c.MinY,
		Pixels:        make([]pixel.Pixel, w*h),
		Mask:          make([]byte, MaskBytes(w, h)),
	}

	for _, cell := range c.Cells {
		lx, ly := cell.X-c.MinX, cell.Y-c.MinY
		srcIdx := b.cellIndex(cell.X, cell.Y)
		dstIdx := ly*w + lx
		s.Pixels[dstIdx] = b.Pixels[srcIdx]
		s.Mask[dstIdx/8] |= 1 << uint(dstIdx%8)
	}
	return s
}
