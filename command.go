package vantage

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vantage3d/vantage/scene"
)

// Command is a discrete UI action. Each variant routes to exactly one
// component reducer; draining the queue in push order makes command
// streams replayable.
type Command interface {
	isCommand()
}

type SelectCmd struct{ ID scene.EntityID }
type ToggleSelectCmd struct{ ID scene.EntityID }
type ClearSelectionCmd struct{}

type HideCmd struct{ IDs []scene.EntityID }
type ShowCmd struct{ IDs []scene.EntityID }
type IsolateCmd struct{ IDs []scene.EntityID }
type ShowAllCmd struct{}

type SetCameraModeCmd struct{ Mode CameraMode }
type SetCameraPresetCmd struct{ Preset CameraPreset }
type HomeCmd struct{}
type FitAllCmd struct{}
type FrameSelectionCmd struct{}
type FocusEntityCmd struct{ ID scene.EntityID }

type AddMeasurementCmd struct{ Start, End mgl32.Vec3 }
type RemoveMeasurementCmd struct{ Index int }
type ClearMeasurementsCmd struct{}

type SetSectionAxisCmd struct{ Axis SectionAxis }
type SetSectionPositionCmd struct{ Position float32 }
type ToggleSectionCmd struct{}
type FlipSectionCmd struct{}

func (SelectCmd) isCommand()             {}
func (ToggleSelectCmd) isCommand()       {}
func (ClearSelectionCmd) isCommand()     {}
func (HideCmd) isCommand()               {}
func (ShowCmd) isCommand()               {}
func (IsolateCmd) isCommand()            {}
func (ShowAllCmd) isCommand()            {}
func (SetCameraModeCmd) isCommand()      {}
func (SetCameraPresetCmd) isCommand()    {}
func (HomeCmd) isCommand()               {}
func (FitAllCmd) isCommand()             {}
func (FrameSelectionCmd) isCommand()     {}
func (FocusEntityCmd) isCommand()        {}
func (AddMeasurementCmd) isCommand()     {}
func (RemoveMeasurementCmd) isCommand()  {}
func (ClearMeasurementsCmd) isCommand()  {}
func (SetSectionAxisCmd) isCommand()     {}
func (SetSectionPositionCmd) isCommand() {}
func (ToggleSectionCmd) isCommand()      {}
func (FlipSectionCmd) isCommand()        {}

// CommandQueue buffers commands between the event edge (UI widgets, sync
// poller) and the per-tick dispatch.
type CommandQueue struct {
	pending []Command
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

func (q *CommandQueue) Push(cmds ...Command) {
	q.pending = append(q.pending, cmds...)
}

func (q *CommandQueue) Len() int { return len(q.pending) }

func (q *CommandQueue) drain() []Command {
	out := q.pending
	q.pending = nil
	return out
}

// CommandModule installs the queue and the dispatch system. Dispatch runs
// in the Update stage so reducers settle before publish/poll in Sync.
type CommandModule struct{}

func (CommandModule) Install(app *App) {
	app.AddResource(NewCommandQueue())
	app.UseSystem(Update, dispatchCommandsSystem)
}

func dispatchCommandsSystem(q *CommandQueue, scn *SceneState,
	cam *CameraController, sel *SelectionState, vis *VisibilityEngine,
	sec *SectionPlane, meas *MeasurementSet) {
	for _, cmd := range q.drain() {
		applyCommand(cmd, scn, cam, sel, vis, sec, meas)
	}
}

// applyCommand routes one command. Ids missing from the current scene are
// dropped: cross-engine staleness makes them an expected transient, not
// an error.
func applyCommand(cmd Command, scn *SceneState, cam *CameraController,
	sel *SelectionState, vis *VisibilityEngine, sec *SectionPlane,
	meas *MeasurementSet) {
	sc := scn.Current()
	known := func(id scene.EntityID) bool {
		return sc != nil && sc.Contains(id)
	}
	keepKnown := func(ids []scene.EntityID) []scene.EntityID {
		out := ids[:0:0]
		for _, id := range ids {
			if known(id) {
				out = append(out, id)
			}
		}
		return out
	}

	switch c := cmd.(type) {
	case SelectCmd:
		if known(c.ID) {
			sel.Select(c.ID)
		}
	case ToggleSelectCmd:
		if known(c.ID) {
			sel.Toggle(c.ID)
		}
	case ClearSelectionCmd:
		sel.Clear()

	case HideCmd:
		vis.Hide(keepKnown(c.IDs)...)
	case ShowCmd:
		vis.Show(keepKnown(c.IDs)...)
	case IsolateCmd:
		vis.Isolate(keepKnown(c.IDs))
	case ShowAllCmd:
		vis.ShowAll()

	case SetCameraModeCmd:
		cam.SetMode(c.Mode)
	case SetCameraPresetCmd:
		cam.ApplyPreset(c.Preset)
	case HomeCmd:
		cam.Home()
	case FitAllCmd:
		if sc != nil {
			if b, ok := sc.Bounds(); ok {
				cam.FitBounds(b)
			}
		}
	case FrameSelectionCmd:
		if sc == nil {
			return
		}
		var b scene.AABB
		have := false
		for _, id := range sel.Selected() {
			if box, ok := sc.EntityAABB(id); ok {
				if have {
					b = b.Union(box)
				} else {
					b, have = box, true
				}
			}
		}
		if have {
			cam.FitBounds(b)
		}
	case FocusEntityCmd:
		if sc == nil {
			return
		}
		if box, ok := sc.EntityAABB(c.ID); ok {
			cam.FitBounds(box)
		}

	case AddMeasurementCmd:
		meas.Add(c.Start, c.End)
	case RemoveMeasurementCmd:
		meas.RemoveAt(c.Index)
	case ClearMeasurementsCmd:
		meas.Clear()

	case SetSectionAxisCmd:
		sec.SetAxis(c.Axis)
	case SetSectionPositionCmd:
		sec.SetPosition(c.Position)
	case ToggleSectionCmd:
		sec.Toggle()
	case FlipSectionCmd:
		sec.Flip()
	}
}
