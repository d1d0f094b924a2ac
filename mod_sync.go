package vantage

import (
	"context"
	"errors"
	"time"

	"github.com/vantage3d/vantage/bridge"
	"github.com/vantage3d/vantage/scene"
)

// Side names which engine an app embodies. The render side authors
// camera pose and pick results; the UI side authors the model plus
// visibility and section state. Either side may author selection.
type Side int

const (
	SideRender Side = iota
	SideUI
)

func (s Side) String() string {
	if s == SideUI {
		return "ui"
	}
	return "render"
}

// SyncState drives the store-backed bridge for one engine: a writer
// publishing the groups this side owns when their revision counters move,
// and a poller applying the peer's groups. Runs entirely inside the Sync
// stage; no goroutines, no locks.
type SyncState struct {
	side     Side
	writer   *bridge.Writer
	poller   *bridge.Poller
	log      Logger
	interval time.Duration
	lastPoll time.Time
	polled   bool

	// Last revisions this side published; a group is rewritten only when
	// its counter moved, so an idle frame writes nothing.
	pubScene     uint64
	pubSelection uint64
	pubVis       uint64
	pubCamera    uint64
	pubSection   uint64

	// One-shot requests forwarded to the render engine.
	pendingCameraCmd *bridge.CameraCommandPayload
	pendingFocus     *bridge.FocusPayload

	// The peer's model documents arrive as two groups; both are kept so a
	// rebuild can use whichever half landed first.
	remoteMeshes   []bridge.GeometryMesh
	remoteEntities []bridge.EntityPayload
	remoteNodes    []bridge.NodePayload
}

// RequestCameraCommand queues a one-shot camera command for the render
// engine; the latest request in a cycle wins.
func (st *SyncState) RequestCameraCommand(cmd string, mode string) {
	st.pendingCameraCmd = &bridge.CameraCommandPayload{Cmd: cmd, Mode: mode}
}

// RequestFocus queues a zoom-to-entity request for the render engine.
func (st *SyncState) RequestFocus(id scene.EntityID) {
	st.pendingFocus = &bridge.FocusPayload{EntityID: uint64(id)}
}

// SyncModule wires the bridge into an app. Install it after every
// component module: its handlers capture the component resources.
type SyncModule struct {
	Side   Side
	Store  bridge.Store
	Origin string
	Log    Logger
	Config ViewerConfig
}

func (m SyncModule) Install(app *App) {
	log := m.Log
	if log == nil {
		log = app.Logger()
	}
	st := &SyncState{
		side:     m.Side,
		writer:   bridge.NewWriter(m.Store, m.Origin, log),
		poller:   bridge.NewPoller(m.Store, m.Origin, log),
		log:      log,
		interval: m.Config.withDefaults().PollInterval,
	}

	scn := Resource[SceneState](app)
	queue := Resource[CommandQueue](app)
	sel := Resource[SelectionState](app)
	vis := Resource[VisibilityEngine](app)
	cam := Resource[CameraController](app)
	sec := Resource[SectionPlane](app)
	meas := Resource[MeasurementSet](app)

	switch m.Side {
	case SideRender:
		// Scene groups subscribe first: state groups read in the same poll
		// cycle then apply to the freshly built scene instead of being
		// wiped by the replacement reset.
		st.poller.Subscribe(bridge.Subscription{
			Group:   bridge.GroupGeometry,
			Fields:  []string{"chunks"},
			Chunked: true,
			Handle: func(fields map[string]string) error {
				meshes, err := bridge.DecodeGeometry(fields["data"])
				if err != nil {
					return err
				}
				st.remoteMeshes = meshes
				return st.rebuildScene(scn, sel, vis, meas)
			},
		})
		st.poller.Subscribe(bridge.Subscription{
			Group:  bridge.GroupEntities,
			Fields: []string{"entities", "nodes"},
			Handle: func(fields map[string]string) error {
				ents, nodes, err := bridge.DecodeEntities(fields["entities"], fields["nodes"])
				if err != nil {
					return err
				}
				st.remoteEntities, st.remoteNodes = ents, nodes
				return st.rebuildScene(scn, sel, vis, meas)
			},
		})
		st.poller.Subscribe(bridge.Subscription{
			Group:  bridge.GroupVisibility,
			Fields: []string{"data"},
			Handle: func(fields map[string]string) error {
				p, err := bridge.DecodeVisibility(fields["data"])
				if err != nil {
					return err
				}
				applyRemoteVisibility(vis, p)
				st.pubVis = vis.Rev()
				return nil
			},
		})
		st.poller.Subscribe(bridge.Subscription{
			Group:  bridge.GroupSection,
			Fields: []string{"data"},
			Handle: func(fields map[string]string) error {
				p, err := bridge.DecodeSection(fields["data"])
				if err != nil {
					return err
				}
				sec.Replace(p.Enabled, SectionAxisFromString(p.Axis), p.Position, p.Flipped)
				st.pubSection = sec.Rev()
				return nil
			},
		})
		st.poller.Subscribe(bridge.Subscription{
			Group:  bridge.GroupCameraCmd,
			Fields: []string{"data"},
			Handle: func(fields map[string]string) error {
				p, err := bridge.DecodeCameraCommand(fields["data"])
				if err != nil {
					return err
				}
				if cmd, ok := cameraCommandFromPayload(p); ok {
					queue.Push(cmd)
				}
				return nil
			},
		})
		st.poller.Subscribe(bridge.Subscription{
			Group:  bridge.GroupFocus,
			Fields: []string{"data"},
			Handle: func(fields map[string]string) error {
				p, err := bridge.DecodeFocus(fields["data"])
				if err != nil {
					return err
				}
				queue.Push(FocusEntityCmd{ID: scene.EntityID(p.EntityID)})
				return nil
			},
		})

	case SideUI:
		// The UI mirrors the render camera for its orientation widget.
		st.poller.Subscribe(bridge.Subscription{
			Group:  bridge.GroupCamera,
			Fields: []string{"data"},
			Handle: func(fields map[string]string) error {
				p, err := bridge.DecodeCamera(fields["data"])
				if err != nil {
					return err
				}
				applyRemoteCamera(cam, p)
				st.pubCamera = cam.Rev()
				return nil
			},
		})
	}

	// Both sides converge on selection; whichever engine the user acted
	// in last wins the group.
	st.poller.Subscribe(bridge.Subscription{
		Group:  bridge.GroupSelection,
		Fields: []string{"data"},
		Handle: func(fields map[string]string) error {
			p, err := bridge.DecodeSelection(fields["data"])
			if err != nil {
				return err
			}
			applyRemoteSelection(sel, p)
			st.pubSelection = sel.Rev()
			return nil
		},
	})

	app.AddResource(st)
	app.UseSystem(Sync, syncPublishSystem)
	app.UseSystem(Sync, syncPollSystem)
}

// rebuildScene assembles a snapshot from whichever remote documents have
// arrived. Geometry alone is enough to render and pick; the entities
// group enriches metadata and the spatial tree when it lands. The
// replacement reset runs here, so state groups read later in the same
// poll cycle land on the new scene and are not wiped a tick later.
func (st *SyncState) rebuildScene(scn *SceneState, sel *SelectionState,
	vis *VisibilityEngine, meas *MeasurementSet) error {
	if len(st.remoteMeshes) == 0 && len(st.remoteEntities) == 0 {
		return nil
	}
	snap := &scene.Snapshot{}

	known := make(map[scene.EntityID]struct{}, len(st.remoteEntities))
	for _, e := range st.remoteEntities {
		id := scene.EntityID(e.ID)
		known[id] = struct{}{}
		snap.Entities = append(snap.Entities, scene.EntityRecord{
			ID:              id,
			Type:            e.Type,
			Name:            e.Name,
			Parent:          scene.EntityID(e.Parent),
			Storey:          e.Storey,
			StoreyElevation: e.StoreyElevation,
		})
	}
	for _, m := range st.remoteMeshes {
		id := scene.EntityID(m.EntityID)
		if _, ok := known[id]; !ok {
			known[id] = struct{}{}
			snap.Entities = append(snap.Entities, scene.EntityRecord{
				ID:   id,
				Type: m.Type,
				Name: m.Name,
			})
		}
		snap.Meshes = append(snap.Meshes, scene.MeshRecord{
			EntityID:  id,
			Positions: m.Positions,
			Normals:   m.Normals,
			Indices:   m.Indices,
			Color:     m.Color,
			Transform: m.Transform,
		})
	}
	for _, n := range st.remoteNodes {
		snap.Nodes = append(snap.Nodes, scene.NodeRecord{
			ID:          scene.EntityID(n.ID),
			Name:        n.Name,
			NodeType:    scene.NodeTypeFromString(n.NodeType),
			Parent:      scene.EntityID(n.Parent),
			HasGeometry: n.HasGeometry,
		})
	}

	if err := scn.Load(snap); err != nil {
		return err
	}
	// This scene came from the peer; publishing it back would bounce.
	st.pubScene = scn.Generation()

	// Prior entity ids mean nothing in the new scene.
	sel.Clear()
	vis.ShowAll()
	meas.Clear()
	scn.lastResetGen = scn.Generation()
	st.pubSelection = sel.Rev()
	st.pubVis = vis.Rev()
	return nil
}

// syncPublishSystem writes every owned group whose revision moved since
// the last successful publish.
func syncPublishSystem(st *SyncState, scn *SceneState, cam *CameraController,
	sel *SelectionState, vis *VisibilityEngine, sec *SectionPlane) {
	ctx := context.Background()

	if rev := sel.Rev(); rev != st.pubSelection {
		if st.publish(st.writer.WriteSelection(ctx, selectionPayload(sel))) {
			st.pubSelection = rev
		}
	}

	switch st.side {
	case SideRender:
		if rev := cam.Rev(); rev != st.pubCamera {
			if st.publish(st.writer.WriteCamera(ctx, cameraPayload(cam))) {
				st.pubCamera = rev
			}
		}
	case SideUI:
		if gen := scn.Generation(); gen != st.pubScene && scn.Current() != nil {
			if st.publishScene(ctx, scn.Current()) {
				st.pubScene = gen
			}
		}
		if rev := vis.Rev(); rev != st.pubVis {
			if st.publish(st.writer.WriteVisibility(ctx, visibilityPayload(vis))) {
				st.pubVis = rev
			}
		}
		if rev := sec.Rev(); rev != st.pubSection {
			if st.publish(st.writer.WriteSection(ctx, sectionPayload(sec))) {
				st.pubSection = rev
			}
		}
		if st.pendingCameraCmd != nil {
			if st.publish(st.writer.WriteCameraCommand(ctx, *st.pendingCameraCmd)) {
				st.pendingCameraCmd = nil
			}
		}
		if st.pendingFocus != nil {
			if st.publish(st.writer.WriteFocus(ctx, *st.pendingFocus)) {
				st.pendingFocus = nil
			}
		}
	}
}

// publish reports whether the revision marker should advance: a clean
// write advances it, and so does an encoding failure, since the payload
// is deterministic and retrying without a state change cannot succeed.
// Transient store errors keep the marker for a retry next frame.
func (st *SyncState) publish(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, bridge.ErrEncodingFailure) {
		st.log.Errorf("sync publish skipped: %v", err)
		return true
	}
	st.log.Warnf("sync publish failed, will retry: %v", err)
	return false
}

func (st *SyncState) publishScene(ctx context.Context, sc *scene.Scene) bool {
	ents, nodes := scenePayloads(sc)
	if !st.publish(st.writer.WriteEntities(ctx, ents, nodes)) {
		return false
	}
	return st.publish(st.writer.WriteGeometry(ctx, geometryPayload(sc)))
}

// syncPollSystem runs one poll cycle when the interval elapses. The first
// tick polls immediately so a freshly attached engine catches up without
// waiting.
func syncPollSystem(st *SyncState, t *Time) {
	if st.polled && t.Now.Sub(st.lastPoll) < st.interval {
		return
	}
	st.lastPoll = t.Now
	st.polled = true
	if err := st.poller.Poll(context.Background()); err != nil {
		st.log.Warnf("sync poll aborted: %v", err)
	}
}

func selectionPayload(sel *SelectionState) bridge.SelectionPayload {
	ids := sel.Selected()
	p := bridge.SelectionPayload{SelectedIDs: make([]uint64, len(ids))}
	for i, id := range ids {
		p.SelectedIDs[i] = uint64(id)
	}
	if id, ok := sel.Hover(); ok {
		h := uint64(id)
		p.HoveredID = &h
	}
	return p
}

func applyRemoteSelection(sel *SelectionState, p bridge.SelectionPayload) {
	ids := make([]scene.EntityID, len(p.SelectedIDs))
	for i, id := range p.SelectedIDs {
		ids[i] = scene.EntityID(id)
	}
	sel.Replace(ids)
	if p.HoveredID != nil {
		sel.SetHover(scene.EntityID(*p.HoveredID))
	} else {
		sel.ClearHover()
	}
}

func visibilityPayload(vis *VisibilityEngine) bridge.VisibilityPayload {
	hidden := vis.Hidden()
	p := bridge.VisibilityPayload{Hidden: make([]uint64, len(hidden))}
	for i, id := range hidden {
		p.Hidden[i] = uint64(id)
	}
	if vis.Isolating() {
		iso := vis.Isolated()
		out := make([]uint64, len(iso))
		for i, id := range iso {
			out[i] = uint64(id)
		}
		p.Isolated = &out
	}
	return p
}

func applyRemoteVisibility(vis *VisibilityEngine, p bridge.VisibilityPayload) {
	hidden := make([]scene.EntityID, len(p.Hidden))
	for i, id := range p.Hidden {
		hidden[i] = scene.EntityID(id)
	}
	var isolated []scene.EntityID
	isolating := p.Isolated != nil
	if isolating {
		isolated = make([]scene.EntityID, len(*p.Isolated))
		for i, id := range *p.Isolated {
			isolated[i] = scene.EntityID(id)
		}
	}
	vis.Replace(hidden, isolated, isolating)
}

func cameraPayload(cam *CameraController) bridge.CameraPayload {
	return bridge.CameraPayload{
		Azimuth:   cam.Azimuth,
		Elevation: cam.Elevation,
		Distance:  cam.Distance,
		Target:    [3]float32{cam.Target.X(), cam.Target.Y(), cam.Target.Z()},
	}
}

func applyRemoteCamera(cam *CameraController, p bridge.CameraPayload) {
	cam.Azimuth = p.Azimuth
	cam.Elevation = p.Elevation
	cam.Distance = p.Distance
	cam.Target[0], cam.Target[1], cam.Target[2] = p.Target[0], p.Target[1], p.Target[2]
	cam.Sanitize()
}

func sectionPayload(sec *SectionPlane) bridge.SectionPayload {
	return bridge.SectionPayload{
		Enabled:  sec.Enabled,
		Axis:     sec.Axis.String(),
		Position: sec.Position,
		Flipped:  sec.Flipped,
	}
}

func cameraCommandFromPayload(p bridge.CameraCommandPayload) (Command, bool) {
	switch p.Cmd {
	case "home":
		return HomeCmd{}, true
	case "fit_all":
		return FitAllCmd{}, true
	case "set_mode":
		return SetCameraModeCmd{Mode: CameraModeFromString(p.Mode)}, true
	}
	return nil, false
}

func scenePayloads(sc *scene.Scene) ([]bridge.EntityPayload, []bridge.NodePayload) {
	var ents []bridge.EntityPayload
	sc.EachEntity(func(e *scene.Entity) bool {
		ents = append(ents, bridge.EntityPayload{
			ID:              uint64(e.ID),
			Type:            e.Type,
			Name:            e.Name,
			Parent:          uint64(e.Parent),
			Storey:          e.Storey,
			StoreyElevation: e.StoreyElevation,
		})
		return true
	})

	var nodes []bridge.NodePayload
	var flatten func(n *scene.SpatialNode, parent scene.EntityID)
	flatten = func(n *scene.SpatialNode, parent scene.EntityID) {
		nodes = append(nodes, bridge.NodePayload{
			ID:          uint64(n.ID),
			Name:        n.Name,
			NodeType:    n.NodeType.String(),
			Parent:      uint64(parent),
			HasGeometry: n.HasGeometry,
		})
		for _, child := range n.Children {
			flatten(child, n.ID)
		}
	}
	if root := sc.Root(); root != nil {
		flatten(root, 0)
	}
	return ents, nodes
}

func geometryPayload(sc *scene.Scene) []bridge.GeometryMesh {
	var meshes []bridge.GeometryMesh
	sc.EachEntity(func(e *scene.Entity) bool {
		m := sc.Mesh(e.ID)
		if m == nil {
			return true
		}
		meshes = append(meshes, bridge.GeometryMesh{
			EntityID:  uint64(e.ID),
			Positions: m.Positions,
			Normals:   m.Normals,
			Indices:   m.Indices,
			Color:     m.Color,
			Transform: [16]float32(m.Transform),
			Type:      e.Type,
			Name:      e.Name,
		})
		return true
	})
	return meshes
}
