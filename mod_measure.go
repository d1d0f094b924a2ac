package vantage

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Segment is one point-to-point measurement.
type Segment struct {
	Start mgl32.Vec3
	End   mgl32.Vec3
}

func (s Segment) Length() float32 {
	return s.End.Sub(s.Start).Len()
}

// MeasurementSet is the ordered list of measurement segments: append-only
// except for removal by index or a full clear.
type MeasurementSet struct {
	segments []Segment
	rev      uint64
}

func NewMeasurementSet() *MeasurementSet {
	return &MeasurementSet{}
}

func (m *MeasurementSet) Rev() uint64 { return m.rev }

func (m *MeasurementSet) Add(start, end mgl32.Vec3) {
	m.segments = append(m.segments, Segment{Start: start, End: end})
	m.rev++
}

// RemoveAt drops the segment at index; out-of-range indices are ignored.
func (m *MeasurementSet) RemoveAt(index int) {
	if index < 0 || index >= len(m.segments) {
		return
	}
	m.segments = append(m.segments[:index], m.segments[index+1:]...)
	m.rev++
}

func (m *MeasurementSet) Clear() {
	if len(m.segments) == 0 {
		return
	}
	m.segments = m.segments[:0]
	m.rev++
}

func (m *MeasurementSet) Count() int { return len(m.segments) }

// Segments returns a copy; callers must not see internal reslicing.
func (m *MeasurementSet) Segments() []Segment {
	out := make([]Segment, len(m.segments))
	copy(out, m.segments)
	return out
}

func (m *MeasurementSet) TotalLength() float32 {
	var total float32
	for _, s := range m.segments {
		total += s.Length()
	}
	return total
}

type MeasureModule struct{}

func (MeasureModule) Install(app *App) {
	app.AddResource(NewMeasurementSet())
}
