package meshgen

// cellEdges maps the 16 marching-squares corner configurations to the
// edge pairs a contour crosses. Corners are numbered TL=1, TR=2, BR=4,
// BL=8; edges are 0=top, 1=right, 2=bottom, 3=left. Saddle cases 5 and 10
// are resolved by always picking the "both open" two-segment reading,
// matching the common ambiguity-free convention for binary occupancy
// grids (no interpolated density to disambiguate by).
var cellEdges = map[int][][2]int{
	0:  nil,
	1:  {{3, 0}},
	2:  {{0, 1}},
	3:  {{3, 1}},
	4:  {{1, 2}},
	5:  {{3, 0}, {1, 2}},
	6:  {{0, 2}},
	7:  {{3, 2}},
	8:  {{2, 3}},
	9:  {{2, 0}},
	10: {{0, 1}, {2, 3}},
	11: {{2, 1}},
	12: {{1, 3}},
	13: {{1, 0}},
	14: {{0, 3}},
	15: nil,
}

// edgeMidpoint returns the midpoint of cell edge e for a cell whose
// top-left world corner is (x, y).
func edgeMidpoint(x, y float32, e int) Point {
	switch e {
	case 0: // top
		return Point{x + 0.5, y}
	case 1: // right
		return Point{x + 1, y + 0.5}
	case 2: // bottom
		return Point{x + 0.5, y + 1}
	default: // left
		return Point{x, y + 0.5}
	}
}

// MarchingSquares samples a (tileSize+1)×(tileSize+1) corner grid covering
// the tile's world-space footprint (plus the one-pixel apron the sampler
// itself resolves by reading into neighbouring tiles) and emits contour
// polygons separating solid from void terrain (spec §4.6 Pipeline).
func MarchingSquares(originX, originY, tileSize int, sample SolidSampler) []Polygon {
	segs := make(map[Point][]Point)
	var order []Point

	addSeg := func(a, b Point) {
		if _, ok := segs[a]; !ok {
			order = append(order, a)
		}
		segs[a] = append(segs[a], b)
	}

	for ly := 0; ly < tileSize; ly++ {
		for lx := 0; lx < tileSize; lx++ {
			wx, wy := originX+lx, originY+ly
			tl := sample(wx, wy)
			tr := sample(wx+1, wy)
			br := sample(wx+1, wy+1)
			bl := sample(wx, wy+1)

			code := 0
			if tl {
				code |= 1
			}
			if tr {
				code |= 2
			}
			if br {
				code |= 4
			}
			if bl {
				code |= 8
			}

			edges := cellEdges[code]
			fx, fy := float32(wx), float32(wy)
			for _, pair := range edges {
				a := edgeMidpoint(fx, fy, pair[0])
				b := edgeMidpoint(fx, fy, pair[1])
				addSeg(a, b)
			}
		}
	}

	return chainSegments(segs, order)
}

// chainSegments walks the directed segment graph produced by
// MarchingSquares, following each polygon until it closes on its start
// point or runs out of continuations.
func chainSegments(segs map[Point][]Point, order []Point) []Polygon {
	used := make(map[[2]Point]bool)
	var polys []Polygon

	for _, start := range order {
		for _, next := range segs[start] {
			key := [2]Point{start, next}
			if used[key] {
				continue
			}
			poly := Polygon{start}
			cur := next
			used[key] = true
			for i := 0; i < 4096; i++ {
				poly = append(poly, cur)
				if cur == start {
					break
				}
				nexts := segs[cur]
				advanced := false
				for _, n := range nexts {
					k := [2]Point{cur, n}
					if used[k] {
						continue
					}
					used[k] = true
					cur = n
					advanced = true
					break
				}
				if !advanced {
					break
				}
			}
			if len(poly) >= 3 && poly[0] == poly[len(poly)-1] {
				polys = append(polys, poly[:len(poly)-1])
			}
		}
	}
	return polys
}
