package meshgen

// Sleeper is a host-owned physics body proxy that can be queried for its
// AABB and asked to wake. The mesh pipeline has no physics engine of its
// own (out of scope, spec §1); it only notifies.
type Sleeper interface {
	AABB() (minX, minY, maxX, maxY int)
	Wake()
}

// WakeOverlapping wakes every sleeper whose AABB overlaps the tile
// footprint [tileMinX,tileMaxX]×[tileMinY,tileMaxY], as required whenever
// a tile's mesh changes (spec §4.6 Body wake: "prevents bodies floating
// on removed ground").
func WakeOverlapping(sleepers []Sleeper, tileMinX, tileMinY, tileMaxX, tileMaxY int) {
	for _, s := range sleepers {
		minX, minY, maxX, maxY := s.AABB()
		if maxX < tileMinX || minX > tileMaxX || maxY < tileMinY || minY > tileMaxY {
			continue
		}
		s.Wake()
	}
}
