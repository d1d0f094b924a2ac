package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrMalformedSnapshot is returned when a snapshot cannot be loaded at
// all. The prior scene stays active.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// ErrCyclicHierarchy reports a cycle in the spatial parent references.
var ErrCyclicHierarchy = fmt.Errorf("%w: cyclic hierarchy", ErrMalformedSnapshot)

// EntityRecord is one parser-produced entity.
type EntityRecord struct {
	ID              EntityID
	Type            string
	Name            string
	Parent          EntityID
	Storey          string
	StoreyElevation float32
}

// MeshRecord is parser-produced triangulated geometry for one entity.
// Transform is a column-major 4x4 matrix.
type MeshRecord struct {
	EntityID  EntityID
	Positions []float32
	Normals   []float32
	Indices   []uint32
	Color     [4]float32
	Transform [16]float32
}

// NodeRecord is one spatial grouping; Parent 0 marks the root.
type NodeRecord struct {
	ID          EntityID
	Name        string
	NodeType    NodeType
	Parent      EntityID
	HasGeometry bool
}

// Snapshot is the parser's hand-off value, consumed once by Load.
type Snapshot struct {
	Entities []EntityRecord
	Meshes   []MeshRecord
	Nodes    []NodeRecord
}

// Load validates a snapshot and builds a scene. Meshes violating the
// geometry invariants are rejected individually, leaving their entity
// selectable through the hierarchy only. Structural defects (duplicate
// ids, meshes for unknown entities, dangling or cyclic parent refs,
// missing unique root) fail the whole load; the caller keeps its prior
// scene.
func Load(snap *Snapshot) (*Scene, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}

	s := &Scene{
		entities:  make(map[EntityID]*Entity, len(snap.Entities)),
		order:     make([]EntityID, 0, len(snap.Entities)),
		meshes:    make(map[EntityID]*Mesh),
		aabbs:     make(map[EntityID]AABB),
		nodeIndex: make(map[EntityID]*SpatialNode, len(snap.Nodes)),
	}

	for _, rec := range snap.Entities {
		if rec.ID == 0 {
			return nil, fmt.Errorf("%w: entity id 0 is reserved", ErrMalformedSnapshot)
		}
		if _, dup := s.entities[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate entity id %d", ErrMalformedSnapshot, rec.ID)
		}
		s.entities[rec.ID] = &Entity{
			ID:              rec.ID,
			Type:            rec.Type,
			Category:        CategoryFromType(rec.Type),
			Name:            rec.Name,
			Parent:          rec.Parent,
			Storey:          rec.Storey,
			StoreyElevation: rec.StoreyElevation,
		}
		s.order = append(s.order, rec.ID)
	}

	for i := range snap.Meshes {
		rec := &snap.Meshes[i]
		if _, ok := s.entities[rec.EntityID]; !ok {
			return nil, fmt.Errorf("%w: mesh for unknown entity %d", ErrMalformedSnapshot, rec.EntityID)
		}
		if _, dup := s.meshes[rec.EntityID]; dup {
			return nil, fmt.Errorf("%w: duplicate mesh for entity %d", ErrMalformedSnapshot, rec.EntityID)
		}
		mesh := &Mesh{
			EntityID:  rec.EntityID,
			Positions: rec.Positions,
			Normals:   rec.Normals,
			Indices:   rec.Indices,
			Color:     rec.Color,
			Transform: mgl32.Mat4(rec.Transform),
		}
		if !mesh.valid() {
			// Rejected geometry: the entity stays, selectable via hierarchy.
			continue
		}
		s.meshes[rec.EntityID] = mesh
	}

	if err := buildTree(s, snap.Nodes); err != nil {
		return nil, err
	}

	computeBounds(s)
	buildGrid(s)

	return s, nil
}

func buildTree(s *Scene, records []NodeRecord) error {
	if len(records) == 0 {
		return nil
	}

	var rootID EntityID
	for _, rec := range records {
		if _, dup := s.nodeIndex[rec.ID]; dup {
			return fmt.Errorf("%w: duplicate spatial node %d", ErrMalformedSnapshot, rec.ID)
		}
		s.nodeIndex[rec.ID] = &SpatialNode{
			ID:          rec.ID,
			Name:        rec.Name,
			NodeType:    rec.NodeType,
			HasGeometry: rec.HasGeometry,
		}
		if rec.Parent == 0 {
			if rootID != 0 {
				return fmt.Errorf("%w: multiple spatial roots (%d, %d)", ErrMalformedSnapshot, rootID, rec.ID)
			}
			rootID = rec.ID
		}
	}
	if rootID == 0 {
		return fmt.Errorf("%w: no spatial root", ErrMalformedSnapshot)
	}

	// Children keep the snapshot record order.
	for _, rec := range records {
		if rec.Parent == 0 {
			continue
		}
		parent, ok := s.nodeIndex[rec.Parent]
		if !ok {
			return fmt.Errorf("%w: node %d references unknown parent %d", ErrMalformedSnapshot, rec.ID, rec.Parent)
		}
		parent.Children = append(parent.Children, s.nodeIndex[rec.ID])
	}

	// Visited-set traversal from the root: a revisit or an unreachable
	// node both mean the parent references loop somewhere.
	visited := make(map[EntityID]struct{}, len(records))
	cyclic := !s.nodeIndex[rootID].Walk(func(n *SpatialNode) bool {
		if _, seen := visited[n.ID]; seen {
			return false
		}
		visited[n.ID] = struct{}{}
		return true
	})
	if cyclic || len(visited) != len(records) {
		return ErrCyclicHierarchy
	}

	s.root = s.nodeIndex[rootID]
	return nil
}

// computeBounds streams min/max over every mesh vertex in world space and
// records the per-entity world boxes used by framing and picking.
func computeBounds(s *Scene) {
	for id, mesh := range s.meshes {
		box := AABB{
			Min: mgl32.Vec3{inf, inf, inf},
			Max: mgl32.Vec3{-inf, -inf, -inf},
		}
		for i := 0; i < mesh.VertexCount(); i++ {
			world := mesh.Transform.Mul4x1(mesh.vertex(i).Vec4(1)).Vec3()
			box = box.Extend(world)
		}
		s.aabbs[id] = box
		if !s.hasBounds {
			s.bounds = box
			s.hasBounds = true
		} else {
			s.bounds = s.bounds.Union(box)
		}
	}
}

const inf = float32(3.4e38)

func buildGrid(s *Scene) {
	if !s.hasBounds {
		return
	}
	// Cell size scales with the model so dense scenes stay subdivided and
	// small ones don't explode into thousands of cells.
	cell := s.bounds.Diagonal() / 32
	if cell <= 0 {
		cell = 1
	}
	s.grid = NewHashGrid(cell)
	for id, box := range s.aabbs {
		s.grid.Insert(id, box)
	}
}
