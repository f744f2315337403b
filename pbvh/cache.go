package pbvh

import (
	"github.com/google/uuid"

	"github.com/achilleasa/sculptree/bmesh"
	"github.com/achilleasa/sculptree/mesh"
)

// cacheKey identifies the source a tree was built from.
type cacheKey struct {
	id    uuid.UUID
	verts int
	prims int
}

// IsCacheValid returns true if the tree can be reused for source: the source
// must be the instance the tree was built from and its element counts must
// match the ones the tree knows about. Topology edits made through the tree
// keep the cache valid; edits made directly on the source invalidate it.
func (t *Tree) IsCacheValid(source any) bool {
	t.assertBuilt()

	var key cacheKey
	switch s := source.(type) {
	case *mesh.Mesh:
		if t.backend.kind() != FacesBackend {
			return false
		}
		key = cacheKey{id: s.ID, verts: s.NumVerts(), prims: s.NumPolys()}
	case *mesh.Grids:
		if t.backend.kind() != GridsBackend {
			return false
		}
		key = cacheKey{id: s.ID, verts: s.NumGrids() * s.Key.Area(), prims: s.NumGrids()}
	case *bmesh.Mesh:
		if t.backend.kind() != BMeshBackend {
			return false
		}
		key = cacheKey{id: s.ID, verts: s.NumVerts(), prims: s.NumFaces()}
	default:
		return false
	}
	return key == t.cache
}
