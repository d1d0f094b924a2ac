package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a world-space ray with a normalized direction.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// RayHit is the nearest intersection found by Raycast.
type RayHit struct {
	Entity EntityID
	T      float32
	Point  mgl32.Vec3
}

// Raycast intersects the ray against all pickable geometry and returns the
// nearest hit by ray parameter. Equal-distance ties resolve to the lowest
// entity id. skip, when non-nil, excludes entities (hidden ones) from
// consideration.
func (s *Scene) Raycast(ray Ray, tMax float32, skip func(EntityID) bool) (RayHit, bool) {
	if s == nil || len(s.meshes) == 0 {
		return RayHit{}, false
	}

	candidates := s.rayCandidates(ray, tMax)
	best := RayHit{T: tMax}
	found := false

	for _, id := range candidates {
		if skip != nil && skip(id) {
			continue
		}
		box := s.aabbs[id]
		if _, _, ok := intersectAABB(ray, box, best.T); !ok {
			continue
		}
		t, point, ok := s.raycastMesh(s.meshes[id], ray, best.T)
		if !ok {
			continue
		}
		if !found || t < best.T || (t == best.T && id < best.Entity) {
			best = RayHit{Entity: id, T: t, Point: point}
			found = true
		}
	}
	return best, found
}

// rayCandidates walks the spatial grid along the ray and returns the
// entity ids it passes, in first-encounter order. Falls back to all
// geometry-bearing entities when the grid is absent.
func (s *Scene) rayCandidates(ray Ray, tMax float32) []EntityID {
	if s.grid == nil {
		ids := make([]EntityID, 0, len(s.meshes))
		for id := range s.meshes {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return ids
	}

	// Clamp the walk to the scene bounds on both ends so rays cast from
	// or past the model do not step through empty space cell by cell.
	tEnter, tExit, ok := intersectAABB(ray, s.bounds, tMax)
	if !ok {
		return nil
	}
	pad := s.grid.cellSize
	origin := ray.Origin
	walkMax := tExit + pad
	if tEnter > 0 {
		origin = ray.Origin.Add(ray.Dir.Mul(tEnter))
		walkMax = tExit - tEnter + pad
	}
	if walkMax > tMax {
		walkMax = tMax
	}

	seen := make(map[EntityID]struct{})
	var out []EntityID
	s.grid.WalkRay(origin, ray.Dir, walkMax, func(ids []EntityID) bool {
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return true
	})
	return out
}

// raycastMesh transforms the ray into mesh-local space, tests every
// triangle, and converts the nearest local hit back to a world-space
// parameter.
func (s *Scene) raycastMesh(mesh *Mesh, ray Ray, tMax float32) (float32, mgl32.Vec3, bool) {
	worldToLocal := mesh.Transform.Inv()
	localOrigin := worldToLocal.Mul4x1(ray.Origin.Vec4(1)).Vec3()
	localDirRaw := worldToLocal.Mul4x1(ray.Dir.Vec4(0)).Vec3()
	scale := localDirRaw.Len()
	if scale < 1e-9 {
		return 0, mgl32.Vec3{}, false
	}
	localDir := localDirRaw.Mul(1 / scale)
	localTMax := tMax * scale

	// Hits at exactly tMax are accepted: tMax is the current best from a
	// sibling entity, and equal distances tie-break on id in Raycast.
	bestLocalT := localTMax
	found := false
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		a := mesh.vertex(int(mesh.Indices[tri*3]))
		b := mesh.vertex(int(mesh.Indices[tri*3+1]))
		c := mesh.vertex(int(mesh.Indices[tri*3+2]))
		if t, ok := intersectTriangle(localOrigin, localDir, a, b, c); ok && (t < bestLocalT || (!found && t == bestLocalT)) {
			bestLocalT = t
			found = true
		}
	}
	if !found {
		return 0, mgl32.Vec3{}, false
	}

	localHit := localOrigin.Add(localDir.Mul(bestLocalT))
	worldHit := mesh.Transform.Mul4x1(localHit.Vec4(1)).Vec3()
	worldT := worldHit.Sub(ray.Origin).Len()
	if worldT > tMax {
		return 0, mgl32.Vec3{}, false
	}
	return worldT, worldHit, true
}

// intersectAABB is the slab test; it returns the entry and exit
// parameters, with entry clamped to zero for rays starting inside the box.
func intersectAABB(ray Ray, box AABB, tMax float32) (float32, float32, bool) {
	tEnter := float32(0)
	tExit := tMax

	for axis := 0; axis < 3; axis++ {
		d := ray.Dir[axis]
		if d > -1e-12 && d < 1e-12 {
			if ray.Origin[axis] < box.Min[axis] || ray.Origin[axis] > box.Max[axis] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / d
		t1 := (box.Min[axis] - ray.Origin[axis]) * inv
		t2 := (box.Max[axis] - ray.Origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter = t1
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return 0, 0, false
		}
	}
	return tEnter, tExit, true
}

// intersectTriangle is Moller-Trumbore with backface hits allowed; meshes
// from building models are not consistently wound.
func intersectTriangle(origin, dir, a, b, c mgl32.Vec3) (float32, bool) {
	const epsilon = 1e-7

	ab := b.Sub(a)
	ac := c.Sub(a)
	p := dir.Cross(ac)
	det := ab.Dot(p)
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	invDet := 1 / det

	tvec := origin.Sub(a)
	u := tvec.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := tvec.Cross(ab)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := ac.Dot(q) * invDet
	if t < epsilon {
		return 0, false
	}
	return t, true
}
