package vantage

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vantage3d/vantage/scene"
)

// SelectionState is the set of selected entity ids plus a single transient
// hovered id. Mutations bump a revision counter so publishers can detect
// change without diffing sets.
type SelectionState struct {
	selected map[scene.EntityID]struct{}
	hovered  scene.EntityID
	hasHover bool
	rev      uint64
}

func NewSelectionState() *SelectionState {
	return &SelectionState{selected: make(map[scene.EntityID]struct{})}
}

func (s *SelectionState) Rev() uint64 { return s.rev }

// Select replaces the selection with the single id.
func (s *SelectionState) Select(id scene.EntityID) {
	if len(s.selected) == 1 {
		if _, ok := s.selected[id]; ok {
			return
		}
	}
	s.selected = map[scene.EntityID]struct{}{id: {}}
	s.rev++
}

// Toggle flips membership of the id, leaving the rest of the selection
// intact (additive modifier held).
func (s *SelectionState) Toggle(id scene.EntityID) {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	s.rev++
}

func (s *SelectionState) Add(id scene.EntityID) {
	if _, ok := s.selected[id]; ok {
		return
	}
	s.selected[id] = struct{}{}
	s.rev++
}

func (s *SelectionState) Remove(id scene.EntityID) {
	if _, ok := s.selected[id]; !ok {
		return
	}
	delete(s.selected, id)
	s.rev++
}

func (s *SelectionState) Clear() {
	changed := len(s.selected) > 0 || s.hasHover
	s.selected = make(map[scene.EntityID]struct{})
	s.hovered = 0
	s.hasHover = false
	if changed {
		s.rev++
	}
}

func (s *SelectionState) IsSelected(id scene.EntityID) bool {
	_, ok := s.selected[id]
	return ok
}

func (s *SelectionState) Count() int { return len(s.selected) }

// Selected returns the ids in ascending order.
func (s *SelectionState) Selected() []scene.EntityID {
	ids := make([]scene.EntityID, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Replace swaps in a full selection set, used when a remote engine's
// selection arrives.
func (s *SelectionState) Replace(ids []scene.EntityID) {
	next := make(map[scene.EntityID]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	s.selected = next
	s.rev++
}

func (s *SelectionState) SetHover(id scene.EntityID) {
	if s.hasHover && s.hovered == id {
		return
	}
	s.hovered = id
	s.hasHover = true
	s.rev++
}

func (s *SelectionState) ClearHover() {
	if !s.hasHover {
		return
	}
	s.hasHover = false
	s.hovered = 0
	s.rev++
}

func (s *SelectionState) Hover() (scene.EntityID, bool) {
	return s.hovered, s.hasHover
}

// BuildRay unprojects normalized device coordinates (x,y in [-1,1], y up)
// into a world-space ray through the near and far planes.
func BuildRay(nx, ny float32, view, proj mgl32.Mat4) scene.Ray {
	inv := proj.Mul4(view).Inv()
	near := inv.Mul4x1(mgl32.Vec4{nx, ny, -1, 1})
	far := inv.Mul4x1(mgl32.Vec4{nx, ny, 1, 1})
	nearP := near.Vec3().Mul(1 / near.W())
	farP := far.Vec3().Mul(1 / far.W())
	dir := farP.Sub(nearP)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return scene.Ray{Origin: nearP, Dir: dir}
}

// Pick casts a pointer ray into the scene and returns the nearest visible
// hit. Hidden entities never pick.
func Pick(sc *scene.Scene, ray scene.Ray, tMax float32, vis *VisibilityEngine) (scene.RayHit, bool) {
	if sc == nil {
		return scene.RayHit{}, false
	}
	return sc.Raycast(ray, tMax, func(id scene.EntityID) bool {
		return vis != nil && !vis.EffectiveVisible(id)
	})
}

// SelectRect selects every visible entity whose projected AABB intersects
// the screen rectangle (normalized device coords). Replaces the selection
// unless additive.
func SelectRect(sc *scene.Scene, sel *SelectionState, vis *VisibilityEngine,
	viewProj mgl32.Mat4, minX, minY, maxX, maxY float32, additive bool) {
	if sc == nil {
		return
	}
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	var hits []scene.EntityID
	sc.EachEntity(func(e *scene.Entity) bool {
		if vis != nil && !vis.EffectiveVisible(e.ID) {
			return true
		}
		box, ok := sc.EntityAABB(e.ID)
		if !ok {
			return true
		}
		if aabbIntersectsRect(box, viewProj, minX, minY, maxX, maxY) {
			hits = append(hits, e.ID)
		}
		return true
	})
	if !additive {
		sel.Replace(hits)
		return
	}
	for _, id := range hits {
		sel.Add(id)
	}
}

// aabbIntersectsRect projects the eight box corners and intersects the
// resulting screen bounds with the rect. Corners behind the camera are
// treated as covering the rect edge they project past.
func aabbIntersectsRect(box scene.AABB, viewProj mgl32.Mat4, minX, minY, maxX, maxY float32) bool {
	pMinX, pMinY := float32(1e30), float32(1e30)
	pMaxX, pMaxY := float32(-1e30), float32(-1e30)
	any := false
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{box.Min.X(), box.Min.Y(), box.Min.Z()}
		if i&1 != 0 {
			corner[0] = box.Max.X()
		}
		if i&2 != 0 {
			corner[1] = box.Max.Y()
		}
		if i&4 != 0 {
			corner[2] = box.Max.Z()
		}
		clip := viewProj.Mul4x1(corner.Vec4(1))
		if clip.W() <= 0 {
			continue
		}
		x := clip.X() / clip.W()
		y := clip.Y() / clip.W()
		any = true
		if x < pMinX {
			pMinX = x
		}
		if x > pMaxX {
			pMaxX = x
		}
		if y < pMinY {
			pMinY = y
		}
		if y > pMaxY {
			pMaxY = y
		}
	}
	if !any {
		return false
	}
	return pMinX <= maxX && pMaxX >= minX && pMinY <= maxY && pMaxY >= minY
}

// PickingModule installs selection state and, where a pointer actually
// hovers a rendered scene, the pick/hover systems. The UI side carries
// the state only; running hover on both engines would have them trading
// conflicting hover ids through the selection group.
type PickingModule struct {
	PointerPick bool
}

func (m PickingModule) Install(app *App) {
	app.AddResource(NewSelectionState())
	if m.PointerPick {
		app.UseSystem(Update, hoverSystem)
		app.UseSystem(Update, clickPickSystem)
	}
}

// clickPickSystem resolves primary-button clicks (release without drag)
// into selection changes. A miss clears the selection unless the additive
// modifier is held.
func clickPickSystem(in *Input, cam *CameraController, scn *SceneState,
	sel *SelectionState, vis *VisibilityEngine, cfg *ViewerConfig) {
	if !in.JustClicked() {
		return
	}
	sc := scn.Current()
	if sc == nil {
		return
	}
	nx, ny := in.PointerNDC()
	ray := BuildRay(nx, ny, cam.ViewMatrix(), cam.ProjMatrix(in.Aspect()))
	hit, ok := Pick(sc, ray, cfg.PickRange, vis)
	if !ok {
		if !in.Additive {
			sel.Clear()
		}
		return
	}
	if in.Additive {
		sel.Toggle(hit.Entity)
	} else {
		sel.Select(hit.Entity)
	}
}

// hoverSystem recasts the pointer ray every few frames; casting every
// frame is wasted work while the pointer sits still over large models.
func hoverSystem(in *Input, t *Time, cam *CameraController, scn *SceneState,
	sel *SelectionState, vis *VisibilityEngine, cfg *ViewerConfig) {
	throttle := uint64(cfg.HoverThrottleFrames)
	if throttle == 0 {
		throttle = 1
	}
	if t.Frame%throttle != 0 {
		return
	}
	sc := scn.Current()
	if sc == nil {
		return
	}
	nx, ny := in.PointerNDC()
	ray := BuildRay(nx, ny, cam.ViewMatrix(), cam.ProjMatrix(in.Aspect()))
	if hit, ok := Pick(sc, ray, cfg.PickRange, vis); ok {
		sel.SetHover(hit.Entity)
	} else {
		sel.ClearHover()
	}
}
