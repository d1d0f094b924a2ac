package scene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// EntityID is a stable 64-bit handle, unique within a session.
type EntityID uint64

// Entity is a uniquely identified model element. Immutable after load;
// UI-visible flags (selection, visibility) are held by the owning engines.
type Entity struct {
	ID       EntityID
	Type     string
	Category Category
	Name     string
	// Parent is the containing spatial node, 0 when unknown.
	Parent EntityID
	// Storey association, empty when the element is not storey-bound.
	Storey          string
	StoreyElevation float32
}

// Mesh holds triangulated geometry keyed by entity id. Positions and
// normals are flattened xyz triplets, indices reference vertex triplets.
type Mesh struct {
	EntityID  EntityID
	Positions []float32
	Normals   []float32
	Indices   []uint32
	Color     [4]float32
	Transform mgl32.Mat4
}

func (m *Mesh) VertexCount() int   { return len(m.Positions) / 3 }
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// valid reports whether the mesh satisfies the geometry invariants:
// at least 3 vertices, index count a multiple of 3, every index in range.
func (m *Mesh) valid() bool {
	if m.VertexCount() < 3 || len(m.Positions)%3 != 0 {
		return false
	}
	if len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
		return false
	}
	limit := uint32(m.VertexCount())
	for _, idx := range m.Indices {
		if idx >= limit {
			return false
		}
	}
	return true
}

// vertex returns the i-th local-space position.
func (m *Mesh) vertex(i int) mgl32.Vec3 {
	return mgl32.Vec3{m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]}
}

// AABB is an axis-aligned box, Min <= Max component-wise.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (b AABB) Center() mgl32.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }
func (b AABB) Diagonal() float32  { return b.Max.Sub(b.Min).Len() }

func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

func (b AABB) Union(o AABB) AABB {
	return b.Extend(o.Min).Extend(o.Max)
}

// Scene is the loaded, immutable model: entities, geometry, spatial tree,
// bounds and the spatial index. Built fully before publication, never
// mutated afterwards.
type Scene struct {
	generation uint64

	entities map[EntityID]*Entity
	order    []EntityID
	meshes   map[EntityID]*Mesh
	aabbs    map[EntityID]AABB

	root      *SpatialNode
	nodeIndex map[EntityID]*SpatialNode

	bounds    AABB
	hasBounds bool

	grid *HashGrid
}

// Generation increments on every container swap; consumers compare it to
// detect a scene replacement.
func (s *Scene) Generation() uint64 { return s.generation }

func (s *Scene) Contains(id EntityID) bool {
	_, ok := s.entities[id]
	return ok
}

func (s *Scene) Entity(id EntityID) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Mesh returns the validated geometry for an entity, nil when the entity
// carries none (rejected or absent meshes leave the entity geometry-less).
func (s *Scene) Mesh(id EntityID) *Mesh {
	return s.meshes[id]
}

func (s *Scene) EntityAABB(id EntityID) (AABB, bool) {
	b, ok := s.aabbs[id]
	return b, ok
}

// Bounds returns the scene bounds derived from all mesh vertices at load
// time; ok is false when no geometry loaded.
func (s *Scene) Bounds() (AABB, bool) {
	return s.bounds, s.hasBounds
}

func (s *Scene) Root() *SpatialNode { return s.root }

func (s *Scene) Node(id EntityID) (*SpatialNode, bool) {
	n, ok := s.nodeIndex[id]
	return n, ok
}

func (s *Scene) EntityCount() int { return len(s.entities) }

// EachEntity visits entities in snapshot order; return false to stop.
func (s *Scene) EachEntity(visit func(*Entity) bool) {
	for _, id := range s.order {
		if !visit(s.entities[id]) {
			return
		}
	}
}

// Container publishes the current scene with a single atomic swap, so a
// partially-loaded scene is never observable from the frame loop.
type Container struct {
	latest atomic.Pointer[Scene]
	gen    atomic.Uint64
}

// Swap installs a freshly loaded scene, assigning the next generation.
// The prior scene, if any, is replaced wholesale.
func (c *Container) Swap(s *Scene) {
	s.generation = c.gen.Add(1)
	c.latest.Store(s)
}

// Current returns the active scene or nil before the first load.
func (c *Container) Current() *Scene {
	return c.latest.Load()
}
