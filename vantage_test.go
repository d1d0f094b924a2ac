package vantage

import (
	"testing"

	"github.com/vantage3d/vantage/bridge"
	"github.com/vantage3d/vantage/scene"
)

func newTestStore() *bridge.MemStore {
	return bridge.NewMemStore()
}

func testIdentity() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func testCube(id scene.EntityID, tx, ty, tz float32) scene.MeshRecord {
	m := testIdentity()
	m[12], m[13], m[14] = tx, ty, tz
	return scene.MeshRecord{
		EntityID: id,
		Positions: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
			0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2,
			4, 5, 6, 4, 6, 7,
			0, 1, 5, 0, 5, 4,
			3, 6, 2, 3, 7, 6,
			0, 7, 3, 0, 4, 7,
			1, 2, 6, 1, 6, 5,
		},
		Color:     [4]float32{1, 1, 1, 1},
		Transform: m,
	}
}

// testSnapshot has three cubes along the x axis: entity 1 at the origin,
// 2 at x=5, 3 at x=10, all under one storey.
func testSnapshot() *scene.Snapshot {
	return &scene.Snapshot{
		Entities: []scene.EntityRecord{
			{ID: 1, Type: "IfcWall", Name: "Wall A", Parent: 10},
			{ID: 2, Type: "IfcDoor", Name: "Door B", Parent: 10},
			{ID: 3, Type: "IfcSlab", Name: "Slab C", Parent: 10},
		},
		Meshes: []scene.MeshRecord{
			testCube(1, 0, 0, 0),
			testCube(2, 5, 0, 0),
			testCube(3, 10, 0, 0),
		},
		Nodes: []scene.NodeRecord{
			{ID: 100, Name: "Project", NodeType: scene.NodeProject},
			{ID: 10, Name: "Storey 1", NodeType: scene.NodeStorey, Parent: 100},
			{ID: 1, NodeType: scene.NodeElement, Parent: 10, HasGeometry: true},
			{ID: 2, NodeType: scene.NodeElement, Parent: 10, HasGeometry: true},
			{ID: 3, NodeType: scene.NodeElement, Parent: 10, HasGeometry: true},
		},
	}
}

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	sc, err := scene.Load(testSnapshot())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return sc
}
