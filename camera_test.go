package vantage

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vantage3d/vantage/scene"
)

func testCamera() *CameraController {
	return NewCameraController(DefaultConfig())
}

func TestCamera_OrbitDrag(t *testing.T) {
	cam := testCamera()
	az, el := cam.Azimuth, cam.Elevation

	cam.Drag(10, 5)

	if cam.Azimuth == az {
		t.Error("Azimuth should change on horizontal drag")
	}
	if cam.Elevation == el {
		t.Error("Elevation should change on vertical drag")
	}
}

func TestCamera_ElevationClamped(t *testing.T) {
	cam := testCamera()

	cam.Drag(0, -100000)
	if cam.Elevation > 1.5 {
		t.Errorf("Elevation exceeded clamp: %v", cam.Elevation)
	}

	cam.Drag(0, 100000)
	if cam.Elevation < -1.5 {
		t.Errorf("Elevation below clamp: %v", cam.Elevation)
	}
}

func TestCamera_AzimuthWraps(t *testing.T) {
	cam := testCamera()

	cam.Drag(100000, 0)
	if cam.Azimuth < -math.Pi || cam.Azimuth > math.Pi {
		t.Errorf("Azimuth left [-pi,pi]: %v", cam.Azimuth)
	}
}

func TestCamera_ZoomClamped(t *testing.T) {
	cfg := DefaultConfig()
	cam := NewCameraController(cfg)

	for i := 0; i < 1000; i++ {
		cam.Zoom(100)
	}
	if cam.Distance < cfg.MinDistance {
		t.Errorf("Distance fell below minimum: %v", cam.Distance)
	}

	for i := 0; i < 1000; i++ {
		cam.Zoom(-100)
	}
	if cam.Distance > cfg.MaxDistance {
		t.Errorf("Distance exceeded maximum: %v", cam.Distance)
	}
}

func TestCamera_PanMovesTarget(t *testing.T) {
	cam := testCamera()
	cam.SetMode(ModePan)
	before := cam.Target

	cam.Drag(50, 0)

	if cam.Target == before {
		t.Error("Pan drag should move the target")
	}
	// Pan never changes orientation or distance.
	if cam.Azimuth != isoAzimuth || cam.Elevation != isoElevation {
		t.Error("Pan drag must not change orientation")
	}
}

func TestCamera_Presets(t *testing.T) {
	cam := testCamera()

	cam.ApplyPreset(PresetFront)
	if cam.Azimuth != 0 || cam.Elevation != 0 {
		t.Errorf("Front preset wrong: az=%v el=%v", cam.Azimuth, cam.Elevation)
	}

	cam.ApplyPreset(PresetTop)
	if cam.Elevation <= 1.4 {
		t.Errorf("Top preset should look down steeply, got %v", cam.Elevation)
	}

	cam.Home()
	if cam.Azimuth != isoAzimuth || cam.Elevation != isoElevation {
		t.Errorf("Home should be isometric, got az=%v el=%v", cam.Azimuth, cam.Elevation)
	}
}

func TestCamera_FitBounds(t *testing.T) {
	cam := testCamera()
	box := scene.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{10, 10, 10}}

	cam.FitBounds(box)

	if cam.Target != box.Center() {
		t.Errorf("Fit should center target, got %v", cam.Target)
	}
	want := box.Diagonal() / (2 * float32(math.Tan(float64(mgl32.DegToRad(cam.cfg.FovDegrees))/2)))
	if diff := cam.Distance - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("Fit distance: got %v, want %v", cam.Distance, want)
	}
}

func TestCamera_SanitizeRecoversNaN(t *testing.T) {
	cam := testCamera()
	cam.Azimuth = float32(math.NaN())
	cam.Elevation = float32(math.NaN())
	cam.Distance = -5
	cam.Target[1] = float32(math.NaN())

	cam.Sanitize()

	if isNaN32(cam.Azimuth) || isNaN32(cam.Elevation) || isNaN32(cam.Target[1]) {
		t.Error("Sanitize left NaN state behind")
	}
	if cam.Distance < cam.cfg.MinDistance {
		t.Errorf("Sanitize left bad distance: %v", cam.Distance)
	}

	// The view matrix is usable again.
	view := cam.ViewMatrix()
	for i := 0; i < 16; i++ {
		if isNaN32(view[i]) {
			t.Fatal("View matrix still contains NaN")
		}
	}
}

func TestCamera_DisplayPoseTrailsLogical(t *testing.T) {
	cam := testCamera()
	cam.DisplayEye(0.016) // settle the initial pose

	logicalBefore := cam.Eye()
	cam.Drag(200, 0)
	logicalAfter := cam.Eye()

	display := cam.DisplayEye(0.016)

	if display == logicalAfter {
		t.Error("Display pose should lag the logical pose")
	}
	if display.Sub(logicalAfter).Len() >= logicalBefore.Sub(logicalAfter).Len() {
		t.Error("Display pose should move toward the logical pose")
	}
	// The logical pose is untouched by damping.
	if cam.Eye() != logicalAfter {
		t.Error("Damping must not mutate logical state")
	}
}

func TestCamera_WalkIntegration(t *testing.T) {
	cam := testCamera()
	cam.SetMode(ModeWalk)
	start := cam.Target

	cam.WalkKeys(true, false, false, false, false, false)
	cam.Integrate(0.5)

	if cam.Target == start {
		t.Error("Walk should move the eye position")
	}
	moved := cam.Target.Sub(start).Len()
	want := cam.cfg.WalkSpeed * 0.5
	if diff := moved - want; diff > 0.01*want || diff < -0.01*want {
		t.Errorf("Walk distance: got %v, want %v", moved, want)
	}

	// Leaving walk mode cancels the velocity.
	cam.SetMode(ModeOrbit)
	if cam.Velocity.Len() != 0 {
		t.Error("Mode switch should cancel walk velocity")
	}
}

func TestCamera_Properties(t *testing.T) {
	cfg := DefaultConfig()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("zoom keeps distance within configured range", prop.ForAll(
		func(deltas []float64) bool {
			cam := NewCameraController(cfg)
			for _, d := range deltas {
				cam.Zoom(float32(d))
			}
			return cam.Distance >= cfg.MinDistance && cam.Distance <= cfg.MaxDistance
		},
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
	))

	properties.Property("drag keeps azimuth wrapped and elevation clamped", prop.ForAll(
		func(dx, dy float64) bool {
			cam := NewCameraController(cfg)
			cam.Drag(float32(dx), float32(dy))
			return cam.Azimuth >= -math.Pi && cam.Azimuth <= math.Pi &&
				cam.Elevation >= -1.5 && cam.Elevation <= 1.5
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
	))

	properties.Property("fit distance is positive for any box", prop.ForAll(
		func(x, y, z, ex, ey, ez float64) bool {
			cam := NewCameraController(cfg)
			min := mgl32.Vec3{float32(x), float32(y), float32(z)}
			extent := mgl32.Vec3{float32(ex), float32(ey), float32(ez)}
			cam.FitBounds(scene.AABB{Min: min, Max: min.Add(extent)})
			return cam.Distance >= cfg.MinDistance && cam.Distance <= cfg.MaxDistance
		},
		gen.Float64Range(-1e4, 1e4), gen.Float64Range(-1e4, 1e4), gen.Float64Range(-1e4, 1e4),
		gen.Float64Range(0, 1e5), gen.Float64Range(0, 1e5), gen.Float64Range(0, 1e5),
	))

	properties.TestingRun(t)
}
