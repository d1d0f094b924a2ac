package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// HashGrid is a sparse spatial hash over entity world AABBs, built once at
// load time. It serves as the broadphase for picking and region queries.
type HashGrid struct {
	cellSize float32
	cells    map[uint64][]EntityID
}

func NewHashGrid(cellSize float32) *HashGrid {
	return &HashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]EntityID),
	}
}

func (g *HashGrid) Insert(id EntityID, box AABB) {
	minX, maxX := g.cellIndex(box.Min.X()), g.cellIndex(box.Max.X())
	minY, maxY := g.cellIndex(box.Min.Y()), g.cellIndex(box.Max.Y())
	minZ, maxZ := g.cellIndex(box.Min.Z()), g.cellIndex(box.Max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				key := hashCell(x, y, z)
				g.cells[key] = append(g.cells[key], id)
			}
		}
	}
}

// QueryAABB returns candidate entities whose boxes may overlap the query
// region. Callers refine against the exact AABBs.
func (g *HashGrid) QueryAABB(box AABB) []EntityID {
	minX, maxX := g.cellIndex(box.Min.X()), g.cellIndex(box.Max.X())
	minY, maxY := g.cellIndex(box.Min.Y()), g.cellIndex(box.Max.Y())
	minZ, maxZ := g.cellIndex(box.Min.Z()), g.cellIndex(box.Max.Z())

	seen := make(map[EntityID]struct{})
	var results []EntityID

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				for _, id := range g.cells[hashCell(x, y, z)] {
					if _, ok := seen[id]; !ok {
						seen[id] = struct{}{}
						results = append(results, id)
					}
				}
			}
		}
	}
	return results
}

// WalkRay visits occupied cells along the ray in traversal order (3D DDA)
// up to tMax, calling visit with the entity ids in each cell. Returning
// false from visit stops the walk early; the walk also reports whether it
// ran to completion.
func (g *HashGrid) WalkRay(origin, dir mgl32.Vec3, tMax float32, visit func(ids []EntityID) bool) bool {
	if dir.Len() < 1e-12 {
		return true
	}

	x := g.cellIndex(origin.X())
	y := g.cellIndex(origin.Y())
	z := g.cellIndex(origin.Z())

	step := [3]int{}
	tDelta := [3]float32{}
	tNext := [3]float32{}
	cell := [3]int{x, y, z}

	for axis := 0; axis < 3; axis++ {
		d := dir[axis]
		switch {
		case d > 1e-12:
			step[axis] = 1
			tDelta[axis] = g.cellSize / d
			boundary := (float32(cell[axis]+1) * g.cellSize)
			tNext[axis] = (boundary - origin[axis]) / d
		case d < -1e-12:
			step[axis] = -1
			tDelta[axis] = g.cellSize / -d
			boundary := float32(cell[axis]) * g.cellSize
			tNext[axis] = (boundary - origin[axis]) / d
		default:
			step[axis] = 0
			tDelta[axis] = inf
			tNext[axis] = inf
		}
	}

	for t := float32(0); t <= tMax; {
		if ids, ok := g.cells[hashCell(cell[0], cell[1], cell[2])]; ok {
			if !visit(ids) {
				return false
			}
		}

		// Advance to the nearest cell boundary.
		axis := 0
		if tNext[1] < tNext[axis] {
			axis = 1
		}
		if tNext[2] < tNext[axis] {
			axis = 2
		}
		t = tNext[axis]
		tNext[axis] += tDelta[axis]
		cell[axis] += step[axis]
	}
	return true
}

func (g *HashGrid) cellIndex(pos float32) int {
	return int(math.Floor(float64(pos / g.cellSize)))
}

// Large primes mix the three cell coordinates into one key.
func hashCell(x, y, z int) uint64 {
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}
