package vantage

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vantage3d/vantage/scene"
)

func TestBuildRay_CenterOfScreen(t *testing.T) {
	cam := testCamera()
	cam.Target = mgl32.Vec3{0, 0, 0}
	cam.Distance = 10

	ray := BuildRay(0, 0, cam.ViewMatrix(), cam.ProjMatrix(1))

	// The center ray points from the eye toward the target.
	want := cam.Target.Sub(cam.Eye()).Normalize()
	if ray.Dir.Sub(want).Len() > 0.001 {
		t.Errorf("Center ray direction: got %v, want %v", ray.Dir, want)
	}
}

func TestPick_NearestVisibleEntity(t *testing.T) {
	sc := testScene(t)
	vis := NewVisibilityEngine()

	// Straight down the x axis through cubes 1, 2, 3.
	ray := scene.Ray{Origin: mgl32.Vec3{-2, 0.5, 0.5}, Dir: mgl32.Vec3{1, 0, 0}}

	hit, ok := Pick(sc, ray, 1e6, vis)
	if !ok || hit.Entity != 1 {
		t.Fatalf("Expected entity 1, got %v (ok=%v)", hit.Entity, ok)
	}

	// Hiding the nearest cube exposes the next one.
	vis.Hide(1)
	hit, ok = Pick(sc, ray, 1e6, vis)
	if !ok || hit.Entity != 2 {
		t.Errorf("Expected entity 2 behind hidden 1, got %v (ok=%v)", hit.Entity, ok)
	}

	// Isolating 3 skips both closer cubes.
	vis.Isolate([]scene.EntityID{3})
	hit, ok = Pick(sc, ray, 1e6, vis)
	if !ok || hit.Entity != 3 {
		t.Errorf("Expected isolated entity 3, got %v (ok=%v)", hit.Entity, ok)
	}
}

func TestPick_NilScene(t *testing.T) {
	if _, ok := Pick(nil, scene.Ray{Dir: mgl32.Vec3{1, 0, 0}}, 100, nil); ok {
		t.Error("Nil scene never hits")
	}
}

func TestSelectionState_Operations(t *testing.T) {
	sel := NewSelectionState()

	sel.Select(3)
	sel.Select(5)
	if sel.Count() != 1 || !sel.IsSelected(5) {
		t.Errorf("Select replaces: %v", sel.Selected())
	}

	sel.Toggle(7)
	if sel.Count() != 2 {
		t.Errorf("Toggle adds: %v", sel.Selected())
	}
	sel.Toggle(5)
	if sel.IsSelected(5) {
		t.Error("Toggle removes an existing id")
	}

	sel.Add(1)
	sel.Add(1)
	if sel.Count() != 2 {
		t.Errorf("Add is idempotent: %v", sel.Selected())
	}

	got := sel.Selected()
	if got[0] != 1 || got[1] != 7 {
		t.Errorf("Selected ids should be sorted: %v", got)
	}

	sel.Clear()
	if sel.Count() != 0 {
		t.Error("Clear empties the selection")
	}
}

func TestSelectionState_ReselectingSameSingleIsNoop(t *testing.T) {
	sel := NewSelectionState()
	sel.Select(4)
	rev := sel.Rev()

	sel.Select(4)

	if sel.Rev() != rev {
		t.Error("Re-selecting the only selected id must not bump the revision")
	}
}

func TestSelectionState_Hover(t *testing.T) {
	sel := NewSelectionState()

	if _, ok := sel.Hover(); ok {
		t.Error("No hover initially")
	}

	sel.SetHover(5)
	id, ok := sel.Hover()
	if !ok || id != 5 {
		t.Errorf("Expected hover 5, got %v/%v", id, ok)
	}

	rev := sel.Rev()
	sel.SetHover(5)
	if sel.Rev() != rev {
		t.Error("Unchanged hover must not bump the revision")
	}

	sel.ClearHover()
	if _, ok := sel.Hover(); ok {
		t.Error("Hover should clear")
	}
}

func TestClickPick_SelectsUnderPointer(t *testing.T) {
	v := NewRenderViewer(DefaultConfig(), newTestStore(), nil)
	if err := v.LoadModel(testSnapshot()); err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	v.Tick() // settle the scene-replaced reset

	// Aim the camera straight at cube 2 and click the screen center.
	cam := Resource[CameraController](v.App)
	cam.Target = mgl32.Vec3{5.5, 0.5, 0.5}
	cam.Distance = 20
	cam.Azimuth, cam.Elevation = 0, 0

	in := v.Input()
	in.SetViewport(800, 600)
	in.PushPointerMove(400, 300)
	in.PushPrimaryButton(true)
	in.PushPrimaryButton(false)
	v.Tick()

	sel := Resource[SelectionState](v.App)
	if !sel.IsSelected(2) {
		t.Errorf("Expected cube 2 selected, got %v", sel.Selected())
	}
}

func TestClickPick_DragDoesNotSelect(t *testing.T) {
	v := NewRenderViewer(DefaultConfig(), newTestStore(), nil)
	if err := v.LoadModel(testSnapshot()); err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	v.Tick()

	cam := Resource[CameraController](v.App)
	cam.Target = mgl32.Vec3{5.5, 0.5, 0.5}
	cam.Distance = 20
	cam.Azimuth, cam.Elevation = 0, 0

	// Press, move past the slop threshold, release: an orbit, not a click.
	in := v.Input()
	in.SetViewport(800, 600)
	in.PushPointerMove(400, 300)
	in.PushPrimaryButton(true)
	in.PushPointerMove(420, 300)
	in.PushPrimaryButton(false)
	v.Tick()

	sel := Resource[SelectionState](v.App)
	if sel.Count() != 0 {
		t.Errorf("Drag release must not select, got %v", sel.Selected())
	}
}

func TestSelectRect_SelectsProjectedBoxes(t *testing.T) {
	sc := testScene(t)
	sel := NewSelectionState()
	vis := NewVisibilityEngine()

	cam := testCamera()
	cam.Target = mgl32.Vec3{5.5, 0.5, 0.5}
	cam.Distance = 30
	cam.Azimuth, cam.Elevation = 0, 0
	viewProj := cam.ProjMatrix(1).Mul4(cam.ViewMatrix())

	// The full screen catches all three cubes.
	SelectRect(sc, sel, vis, viewProj, -1, -1, 1, 1, false)
	if sel.Count() != 3 {
		t.Errorf("Expected all cubes in full-screen rect, got %v", sel.Selected())
	}

	// Hidden entities never box-select.
	vis.Hide(2)
	SelectRect(sc, sel, vis, viewProj, -1, -1, 1, 1, false)
	if sel.IsSelected(2) {
		t.Error("Hidden entity must not box-select")
	}
	if sel.Count() != 2 {
		t.Errorf("Expected 2 selected, got %v", sel.Selected())
	}
}

func TestViewer_BoxSelect(t *testing.T) {
	v := newTestViewer(t, SideUI)

	cam := Resource[CameraController](v.App)
	cam.Target = mgl32.Vec3{5.5, 0.5, 0.5}
	cam.Distance = 30
	cam.Azimuth, cam.Elevation = 0, 0

	v.BoxSelect(-1, -1, 1, 1, false)
	sel := Resource[SelectionState](v.App)
	if sel.Count() != 3 {
		t.Fatalf("Expected all cubes in full-screen rect, got %v", sel.Selected())
	}

	// An empty corner rect replaces the selection with nothing.
	v.BoxSelect(0.95, 0.95, 1, 1, false)
	if sel.Count() != 0 {
		t.Errorf("Expected empty selection, got %v", sel.Selected())
	}

	// Additive keeps the existing selection.
	v.Select(1)
	v.Tick()
	v.BoxSelect(-1, -1, 1, 1, true)
	if sel.Count() != 3 {
		t.Errorf("Expected additive box select to reach 3, got %v", sel.Selected())
	}
}
