package meshgen

// FanTriangulate produces a triangle fan over n ordered polygon vertices,
// indexed relative to the polygon's own vertex slice (the caller rebases
// into the shared Mesh.Vertices buffer). Collision polygons out of
// marching squares + Douglas-Peucker are simple and star-shaped enough in
// practice for fan triangulation to be sufficient for physics colliders;
// a full ear-clipping triangulator is unnecessary overhead for this
// pipeline's tolerance-simplified output.
func FanTriangulate(n int) []Triangle {
	if n < 3 {
		return nil
	}
	tris := make([]Triangle, 0, n-2)
	for i := 1; i < n-1; i++ {
		tris = append(tris, Triangle{0, i, i + 1})
	}
	return tris
}
