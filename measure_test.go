package vantage

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMeasure_Lengths(t *testing.T) {
	m := NewMeasurementSet()

	m.Add(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 0})
	m.Add(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 4, 0})

	segs := m.Segments()
	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segs))
	}
	if segs[0].Length() != 3 || segs[1].Length() != 4 {
		t.Errorf("Segment lengths wrong: %v, %v", segs[0].Length(), segs[1].Length())
	}
	if m.TotalLength() != 7 {
		t.Errorf("Expected total 7, got %v", m.TotalLength())
	}
}

func TestMeasure_RemoveAt(t *testing.T) {
	m := NewMeasurementSet()
	m.Add(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	m.Add(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 0, 0})
	m.Add(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 0})

	m.RemoveAt(1)

	segs := m.Segments()
	if len(segs) != 2 {
		t.Fatalf("Expected 2 segments after removal, got %d", len(segs))
	}
	if segs[0].Length() != 1 || segs[1].Length() != 3 {
		t.Errorf("Wrong segment removed: %v, %v", segs[0].Length(), segs[1].Length())
	}
}

func TestMeasure_RemoveOutOfRangeIgnored(t *testing.T) {
	m := NewMeasurementSet()
	m.Add(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})
	rev := m.Rev()

	m.RemoveAt(-1)
	m.RemoveAt(5)

	if m.Count() != 1 {
		t.Errorf("Out-of-range removal must be ignored, count=%d", m.Count())
	}
	if m.Rev() != rev {
		t.Error("Ignored removal must not bump the revision")
	}
}

func TestMeasure_Clear(t *testing.T) {
	m := NewMeasurementSet()
	m.Add(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0})

	m.Clear()

	if m.Count() != 0 || m.TotalLength() != 0 {
		t.Error("Clear should drop every segment")
	}

	rev := m.Rev()
	m.Clear()
	if m.Rev() != rev {
		t.Error("Clearing an empty set must not bump the revision")
	}
}

func TestMeasure_ZeroLengthSegment(t *testing.T) {
	m := NewMeasurementSet()
	p := mgl32.Vec3{1, 2, 3}
	m.Add(p, p)

	if m.Segments()[0].Length() != 0 {
		t.Error("Degenerate segment has length 0")
	}
	if m.Count() != 1 {
		t.Error("Degenerate segments are still kept")
	}
}
