package vantage

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/vantage3d/vantage/bridge"
	"github.com/vantage3d/vantage/scene"
)

// SceneState is the per-engine scene resource: an atomically swapped
// current scene plus its generation, so consumers can detect replacement.
type SceneState struct {
	container    scene.Container
	lastResetGen uint64
}

func NewSceneState() *SceneState {
	return &SceneState{}
}

// Current returns the active scene, or nil before the first load.
func (s *SceneState) Current() *scene.Scene {
	return s.container.Current()
}

// Generation is the current scene's load counter; 0 means no scene yet.
func (s *SceneState) Generation() uint64 {
	if sc := s.container.Current(); sc != nil {
		return sc.Generation()
	}
	return 0
}

// Load validates and swaps in a new scene. On error the prior scene stays
// active.
func (s *SceneState) Load(snap *scene.Snapshot) error {
	sc, err := scene.Load(snap)
	if err != nil {
		return err
	}
	s.container.Swap(sc)
	return nil
}

// SceneModule installs the scene resource and the replacement watcher:
// when the scene generation moves, selection, visibility and measurements
// reset, because prior entity ids carry no meaning in the new scene.
type SceneModule struct{}

func (SceneModule) Install(app *App) {
	app.AddResource(NewSceneState())
	app.UseSystem(PreUpdate, sceneReplacedSystem)
}

func sceneReplacedSystem(scn *SceneState, sel *SelectionState,
	vis *VisibilityEngine, meas *MeasurementSet) {
	gen := scn.Generation()
	if gen == scn.lastResetGen {
		return
	}
	scn.lastResetGen = gen
	sel.Clear()
	vis.ShowAll()
	meas.Clear()
}

// Viewer is one engine's assembled interaction stack: the app with every
// module installed, plus the convenience surface the host embeds.
type Viewer struct {
	App  *App
	Side Side

	origin string
}

// NewViewer assembles an engine of the given side over the shared store.
func NewViewer(side Side, cfg ViewerConfig, store bridge.Store, log Logger) *Viewer {
	cfg = cfg.withDefaults()
	if log == nil {
		log = NewNopLogger()
	}
	origin := uuid.NewString()

	app := NewApp()
	app.AddResource(log, &cfg)
	app.UseModules(
		TimeModule{},
		InputModule{ClickSlop: cfg.ClickSlopPixels},
		SceneModule{},
		CameraModule{Config: cfg},
		PickingModule{PointerPick: side == SideRender},
		VisibilityModule{},
		SectionModule{},
		MeasureModule{},
		CommandModule{},
		SyncModule{Side: side, Store: store, Origin: origin, Log: log, Config: cfg},
	)
	return &Viewer{App: app, Side: side, origin: origin}
}

// NewRenderViewer builds the rendering engine's stack: it authors camera
// pose and pick results and consumes the model from the store.
func NewRenderViewer(cfg ViewerConfig, store bridge.Store, log Logger) *Viewer {
	return NewViewer(SideRender, cfg, store, log)
}

// NewUIViewer builds the UI engine's stack: it authors the model,
// visibility, section and measurement state.
func NewUIViewer(cfg ViewerConfig, store bridge.Store, log Logger) *Viewer {
	return NewViewer(SideUI, cfg, store, log)
}

// Origin is this engine's sync identity.
func (v *Viewer) Origin() string { return v.origin }

// Tick advances one frame.
func (v *Viewer) Tick() { v.App.Tick() }

// Run drives the frame loop until the context ends.
func (v *Viewer) Run(ctx context.Context, frame time.Duration) {
	v.App.Run(ctx, frame)
}

// LoadModel swaps in a parsed snapshot. On the UI side the new scene is
// published to the peer on the next tick.
func (v *Viewer) LoadModel(snap *scene.Snapshot) error {
	return Resource[SceneState](v.App).Load(snap)
}

// Scene returns the active scene, or nil before the first load.
func (v *Viewer) Scene() *scene.Scene {
	return Resource[SceneState](v.App).Current()
}

func (v *Viewer) push(cmds ...Command) {
	Resource[CommandQueue](v.App).Push(cmds...)
}

// Select replaces the selection with one entity.
func (v *Viewer) Select(id scene.EntityID) { v.push(SelectCmd{ID: id}) }

// ToggleSelect flips one entity in or out of the selection.
func (v *Viewer) ToggleSelect(id scene.EntityID) { v.push(ToggleSelectCmd{ID: id}) }

// ClearSelection empties the selection.
func (v *Viewer) ClearSelection() { v.push(ClearSelectionCmd{}) }

// Hide removes entities from view.
func (v *Viewer) Hide(ids ...scene.EntityID) { v.push(HideCmd{IDs: ids}) }

// Show restores previously hidden entities.
func (v *Viewer) Show(ids ...scene.EntityID) { v.push(ShowCmd{IDs: ids}) }

// Isolate restricts view to the given entities; an empty set ends
// isolation.
func (v *Viewer) Isolate(ids ...scene.EntityID) { v.push(IsolateCmd{IDs: ids}) }

// ShowAll restores full visibility.
func (v *Viewer) ShowAll() { v.push(ShowAllCmd{}) }

// SetCameraMode switches the camera control scheme. The UI side also
// forwards the command to the render engine.
func (v *Viewer) SetCameraMode(mode CameraMode) {
	v.push(SetCameraModeCmd{Mode: mode})
	if v.Side == SideUI {
		Resource[SyncState](v.App).RequestCameraCommand("set_mode", mode.String())
	}
}

// SetCameraPreset snaps the camera to a fixed orientation.
func (v *Viewer) SetCameraPreset(preset CameraPreset) {
	v.push(SetCameraPresetCmd{Preset: preset})
}

// Home returns to the isometric overview.
func (v *Viewer) Home() {
	v.push(HomeCmd{})
	if v.Side == SideUI {
		Resource[SyncState](v.App).RequestCameraCommand("home", "")
	}
}

// FitAll frames the whole model.
func (v *Viewer) FitAll() {
	v.push(FitAllCmd{})
	if v.Side == SideUI {
		Resource[SyncState](v.App).RequestCameraCommand("fit_all", "")
	}
}

// FocusEntity zooms to one entity.
func (v *Viewer) FocusEntity(id scene.EntityID) {
	v.push(FocusEntityCmd{ID: id})
	if v.Side == SideUI {
		Resource[SyncState](v.App).RequestFocus(id)
	}
}

// FrameSelection frames the current selection.
func (v *Viewer) FrameSelection() { v.push(FrameSelectionCmd{}) }

// BoxSelect selects every visible entity whose bounds intersect the drag
// rectangle, given in normalized device coordinates. Replaces the
// selection unless additive. Uses the logical camera pose, matching what
// picking sees, not the damped display pose.
func (v *Viewer) BoxSelect(minX, minY, maxX, maxY float32, additive bool) {
	cam := Resource[CameraController](v.App)
	sel := Resource[SelectionState](v.App)
	vis := Resource[VisibilityEngine](v.App)
	in := Resource[Input](v.App)

	viewProj := cam.ProjMatrix(in.Aspect()).Mul4(cam.ViewMatrix())
	SelectRect(v.Scene(), sel, vis, viewProj, minX, minY, maxX, maxY, additive)
}

// AddMeasurement appends one point-to-point measurement.
func (v *Viewer) AddMeasurement(start, end mgl32.Vec3) {
	v.push(AddMeasurementCmd{Start: start, End: end})
}

// RemoveMeasurement drops the measurement at index.
func (v *Viewer) RemoveMeasurement(index int) { v.push(RemoveMeasurementCmd{Index: index}) }

// ClearMeasurements drops every measurement.
func (v *Viewer) ClearMeasurements() { v.push(ClearMeasurementsCmd{}) }

// SetSectionAxis re-aims the section plane; position resets to mid-plane.
func (v *Viewer) SetSectionAxis(axis SectionAxis) { v.push(SetSectionAxisCmd{Axis: axis}) }

// SetSectionPosition moves the cut along the bounds extent.
func (v *Viewer) SetSectionPosition(pos float32) { v.push(SetSectionPositionCmd{Position: pos}) }

// ToggleSection enables or disables the section plane.
func (v *Viewer) ToggleSection() { v.push(ToggleSectionCmd{}) }

// FlipSection reverses the clip direction.
func (v *Viewer) FlipSection() { v.push(FlipSectionCmd{}) }

// Input exposes the pointer/key event sink for the host's event loop.
func (v *Viewer) Input() *Input { return Resource[Input](v.App) }

// Frame is the per-tick hand-off to the host renderer and UI widgets:
// effective visibility, camera transforms, clip plane, selection and
// measurements.
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Eye        mgl32.Vec3

	Visible  func(scene.EntityID) bool
	Selected []scene.EntityID
	Hovered  *scene.EntityID

	ClipEnabled bool
	ClipNormal  mgl32.Vec3
	ClipOffset  float32

	VisibleCount int
	HiddenCount  int
	Measurements []Segment
	TotalLength  float32
}

// Snapshot assembles the current frame outputs. dt is the time since the
// previous render frame, used for camera damping.
func (v *Viewer) Snapshot(dt float32, aspect float32) Frame {
	cam := Resource[CameraController](v.App)
	sel := Resource[SelectionState](v.App)
	vis := Resource[VisibilityEngine](v.App)
	sec := Resource[SectionPlane](v.App)
	meas := Resource[MeasurementSet](v.App)
	sc := v.Scene()

	f := Frame{
		View:       cam.DisplayView(dt),
		Projection: cam.ProjMatrix(aspect),
		Eye:        cam.Eye(),
		Visible:    vis.EffectiveVisible,
		Selected:   sel.Selected(),
	}
	if id, ok := sel.Hover(); ok {
		f.Hovered = &id
	}
	if sc != nil {
		if b, ok := sc.Bounds(); ok && sec.Enabled {
			f.ClipEnabled = true
			f.ClipNormal, f.ClipOffset = sec.PlaneEquation(b)
		}
		f.VisibleCount, f.HiddenCount = vis.Counts(sc)
	}
	f.Measurements = meas.Segments()
	f.TotalLength = meas.TotalLength()
	return f
}
