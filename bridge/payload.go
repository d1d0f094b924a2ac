package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// SelectionPayload mirrors the UI/render selection state.
type SelectionPayload struct {
	SelectedIDs []uint64 `json:"selected_ids"`
	HoveredID   *uint64  `json:"hovered_id,omitempty"`
}

// VisibilityPayload mirrors hidden/isolated sets. A nil Isolated means no
// isolation is active.
type VisibilityPayload struct {
	Hidden   []uint64  `json:"hidden"`
	Isolated *[]uint64 `json:"isolated,omitempty"`
}

// CameraPayload carries the logical camera pose for the peer's
// orientation widget.
type CameraPayload struct {
	Azimuth   float32    `json:"azimuth"`
	Elevation float32    `json:"elevation"`
	Distance  float32    `json:"distance"`
	Target    [3]float32 `json:"target"`
}

// SectionPayload carries the clip-plane state.
type SectionPayload struct {
	Enabled  bool    `json:"enabled"`
	Axis     string  `json:"axis"`
	Position float32 `json:"position"`
	Flipped  bool    `json:"flipped"`
}

// CameraCommandPayload is a UI-issued camera command: "home", "fit_all"
// or "set_mode" with Mode one of "orbit", "pan", "walk".
type CameraCommandPayload struct {
	Cmd  string `json:"cmd"`
	Mode string `json:"mode,omitempty"`
}

// FocusPayload asks the render engine to zoom to one entity.
type FocusPayload struct {
	EntityID uint64 `json:"entity_id"`
}

// EntityPayload is one entity record in the entities group.
type EntityPayload struct {
	ID              uint64  `json:"id"`
	Type            string  `json:"type"`
	Name            string  `json:"name,omitempty"`
	Parent          uint64  `json:"parent,omitempty"`
	Storey          string  `json:"storey,omitempty"`
	StoreyElevation float32 `json:"storey_elevation,omitempty"`
}

// NodePayload is one spatial-tree record in the entities group, flattened
// by parent reference.
type NodePayload struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name,omitempty"`
	NodeType    string `json:"node_type"`
	Parent      uint64 `json:"parent,omitempty"`
	HasGeometry bool   `json:"has_geometry,omitempty"`
}

// GeometryMesh is one mesh in the binary geometry payload. Transform is
// column-major.
type GeometryMesh struct {
	EntityID  uint64
	Positions []float32
	Normals   []float32
	Indices   []uint32
	Color     [4]float32
	Transform [16]float32
	Type      string
	Name      string
}

// marshalCanonical encodes v as RFC 8785 canonical JSON so repeated
// writes of equal state produce identical bytes and group round trips are
// bit-exact.
func marshalCanonical(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	return string(canonical), nil
}

func unmarshalPayload[T any](data string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrStaleRead, err)
	}
	return v, nil
}

// DecodeSelection parses a selection group's data field.
func DecodeSelection(data string) (SelectionPayload, error) {
	return unmarshalPayload[SelectionPayload](data)
}

// DecodeVisibility parses a visibility group's data field.
func DecodeVisibility(data string) (VisibilityPayload, error) {
	return unmarshalPayload[VisibilityPayload](data)
}

// DecodeCamera parses a camera group's data field.
func DecodeCamera(data string) (CameraPayload, error) {
	return unmarshalPayload[CameraPayload](data)
}

// DecodeSection parses a section group's data field.
func DecodeSection(data string) (SectionPayload, error) {
	return unmarshalPayload[SectionPayload](data)
}

// DecodeCameraCommand parses a camera_cmd group's data field.
func DecodeCameraCommand(data string) (CameraCommandPayload, error) {
	return unmarshalPayload[CameraCommandPayload](data)
}

// DecodeFocus parses a focus group's data field.
func DecodeFocus(data string) (FocusPayload, error) {
	return unmarshalPayload[FocusPayload](data)
}

// DecodeEntities parses the two documents of an entities group.
func DecodeEntities(entities, nodes string) ([]EntityPayload, []NodePayload, error) {
	ents, err := unmarshalPayload[[]EntityPayload](entities)
	if err != nil {
		return nil, nil, err
	}
	nds, err := unmarshalPayload[[]NodePayload](nodes)
	if err != nil {
		return nil, nil, err
	}
	return ents, nds, nil
}
