package vantage

import (
	"sort"

	"github.com/vantage3d/vantage/scene"
)

// VisibilityEngine tracks hidden entities and an optional isolation set.
// While isolation is active only isolated ids render, but hiding still
// applies on top: an id that is both hidden and isolated stays hidden.
type VisibilityEngine struct {
	hidden   map[scene.EntityID]struct{}
	isolated map[scene.EntityID]struct{}
	rev      uint64
}

func NewVisibilityEngine() *VisibilityEngine {
	return &VisibilityEngine{hidden: make(map[scene.EntityID]struct{})}
}

func (v *VisibilityEngine) Rev() uint64 { return v.rev }

func (v *VisibilityEngine) Hide(ids ...scene.EntityID) {
	changed := false
	for _, id := range ids {
		if _, ok := v.hidden[id]; !ok {
			v.hidden[id] = struct{}{}
			changed = true
		}
	}
	if changed {
		v.rev++
	}
}

func (v *VisibilityEngine) Show(ids ...scene.EntityID) {
	changed := false
	for _, id := range ids {
		if _, ok := v.hidden[id]; ok {
			delete(v.hidden, id)
			changed = true
		}
	}
	if changed {
		v.rev++
	}
}

// Isolate restricts visibility to the given ids. An empty set means "no
// isolation", identical to EndIsolation.
func (v *VisibilityEngine) Isolate(ids []scene.EntityID) {
	if len(ids) == 0 {
		v.EndIsolation()
		return
	}
	next := make(map[scene.EntityID]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	v.isolated = next
	v.rev++
}

func (v *VisibilityEngine) EndIsolation() {
	if v.isolated == nil {
		return
	}
	v.isolated = nil
	v.rev++
}

func (v *VisibilityEngine) Isolating() bool { return v.isolated != nil }

// ShowAll clears both the hidden set and any isolation.
func (v *VisibilityEngine) ShowAll() {
	if len(v.hidden) == 0 && v.isolated == nil {
		return
	}
	v.hidden = make(map[scene.EntityID]struct{})
	v.isolated = nil
	v.rev++
}

// EffectiveVisible is the single visibility rule every consumer uses: an
// id is visible when it is not hidden and, while isolation is active, is
// part of the isolation set. Ids the scene does not know are callers'
// business; the engine just answers for the sets it holds.
func (v *VisibilityEngine) EffectiveVisible(id scene.EntityID) bool {
	if _, hidden := v.hidden[id]; hidden {
		return false
	}
	if v.isolated != nil {
		_, ok := v.isolated[id]
		return ok
	}
	return true
}

// Hidden returns the hidden ids in ascending order.
func (v *VisibilityEngine) Hidden() []scene.EntityID {
	return sortedIDs(v.hidden)
}

// Isolated returns the isolation set in ascending order, or nil when no
// isolation is active.
func (v *VisibilityEngine) Isolated() []scene.EntityID {
	if v.isolated == nil {
		return nil
	}
	ids := sortedIDs(v.isolated)
	if ids == nil {
		ids = []scene.EntityID{}
	}
	return ids
}

// Replace swaps in a full visibility state from a remote engine.
func (v *VisibilityEngine) Replace(hidden []scene.EntityID, isolated []scene.EntityID, isolating bool) {
	v.hidden = make(map[scene.EntityID]struct{}, len(hidden))
	for _, id := range hidden {
		v.hidden[id] = struct{}{}
	}
	if isolating && len(isolated) > 0 {
		v.isolated = make(map[scene.EntityID]struct{}, len(isolated))
		for _, id := range isolated {
			v.isolated[id] = struct{}{}
		}
	} else {
		v.isolated = nil
	}
	v.rev++
}

// Counts reports visible/hidden totals against the scene for the UI
// status line.
func (v *VisibilityEngine) Counts(sc *scene.Scene) (visible, hidden int) {
	if sc == nil {
		return 0, 0
	}
	sc.EachEntity(func(e *scene.Entity) bool {
		if v.EffectiveVisible(e.ID) {
			visible++
		} else {
			hidden++
		}
		return true
	})
	return visible, hidden
}

func sortedIDs(set map[scene.EntityID]struct{}) []scene.EntityID {
	if len(set) == 0 {
		return nil
	}
	ids := make([]scene.EntityID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type VisibilityModule struct{}

func (VisibilityModule) Install(app *App) {
	app.AddResource(NewVisibilityEngine())
}
