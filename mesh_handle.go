package pixelworld

import "github.com/api-haus/pixelworld/meshgen"

// MeshHandle exposes read access to the collision-mesh cache (spec §6:
// "the host... reads per-tile collider geometry from the mesh cache").
type MeshHandle struct {
	world *World
}

func NewMeshHandle(w *World) *MeshHandle {
	return &MeshHandle{world: w}
}

// Get returns the currently published mesh for a tile, or nil if none has
// completed generation yet.
func (h *MeshHandle) Get(key meshgen.Key) *meshgen.Mesh {
	return h.world.Mesh.Get(key)
}

// Ready reports whether key's mesh is built at the current generation. A
// host should cull a body whose tile isn't Ready yet rather than let it
// fall through ungenerated collision geometry (spec §8 "Collision
// readiness").
func (h *MeshHandle) Ready(key meshgen.Key) bool {
	return !h.world.Mesh.NeedsGeneration(key)
}
