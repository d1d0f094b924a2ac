package vantage

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vantage3d/vantage/scene"
)

// SectionAxis names the world axis a section plane is perpendicular to.
type SectionAxis int

const (
	AxisX SectionAxis = iota
	AxisY
	AxisZ
)

func (a SectionAxis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisZ:
		return "z"
	default:
		return "y"
	}
}

func SectionAxisFromString(s string) SectionAxis {
	switch s {
	case "x":
		return AxisX
	case "z":
		return AxisZ
	default:
		return AxisY
	}
}

func (a SectionAxis) normal() mgl32.Vec3 {
	switch a {
	case AxisX:
		return mgl32.Vec3{1, 0, 0}
	case AxisZ:
		return mgl32.Vec3{0, 0, 1}
	default:
		return mgl32.Vec3{0, 1, 0}
	}
}

// SectionPlane is an axis-aligned clip plane at a normalized position
// along the scene bounds. Disabled by default; the default cut is the
// horizontal mid-plane.
type SectionPlane struct {
	Enabled  bool
	Axis     SectionAxis
	Position float32
	Flipped  bool

	rev uint64
}

func NewSectionPlane() *SectionPlane {
	return &SectionPlane{Axis: AxisY, Position: 0.5}
}

func (p *SectionPlane) Rev() uint64 { return p.rev }

func (p *SectionPlane) Toggle() {
	p.Enabled = !p.Enabled
	p.rev++
}

func (p *SectionPlane) SetEnabled(on bool) {
	if p.Enabled == on {
		return
	}
	p.Enabled = on
	p.rev++
}

// SetAxis resets position to the mid-plane on change, so a new axis never
// starts all-clipped or none-clipped.
func (p *SectionPlane) SetAxis(axis SectionAxis) {
	if p.Axis == axis {
		return
	}
	p.Axis = axis
	p.Position = 0.5
	p.rev++
}

func (p *SectionPlane) SetPosition(pos float32) {
	pos = mgl32.Clamp(pos, 0, 1)
	if p.Position == pos {
		return
	}
	p.Position = pos
	p.rev++
}

func (p *SectionPlane) Flip() {
	p.Flipped = !p.Flipped
	p.rev++
}

// Replace applies a full plane state from the remote engine.
func (p *SectionPlane) Replace(enabled bool, axis SectionAxis, pos float32, flipped bool) {
	p.Enabled = enabled
	p.Axis = axis
	p.Position = mgl32.Clamp(pos, 0, 1)
	p.Flipped = flipped
	p.rev++
}

// cutoff maps the normalized position onto the bounds extent along the
// plane's axis.
func (p *SectionPlane) cutoff(bounds scene.AABB) float32 {
	i := int(p.Axis)
	return bounds.Min[i] + p.Position*(bounds.Max[i]-bounds.Min[i])
}

// PlaneEquation returns the world clip plane as (normal, offset) with the
// convention that points where dot(p, normal) > offset are discarded.
func (p *SectionPlane) PlaneEquation(bounds scene.AABB) (mgl32.Vec3, float32) {
	n := p.Axis.normal()
	w := p.cutoff(bounds)
	if p.Flipped {
		return n.Mul(-1), -w
	}
	return n, w
}

// Clips reports whether the point is discarded by the plane. A disabled
// plane clips nothing.
func (p *SectionPlane) Clips(pt mgl32.Vec3, bounds scene.AABB) bool {
	if !p.Enabled {
		return false
	}
	n, w := p.PlaneEquation(bounds)
	return pt.Dot(n) > w
}

type SectionModule struct{}

func (SectionModule) Install(app *App) {
	app.AddResource(NewSectionPlane())
}
