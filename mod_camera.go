package vantage

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vantage3d/vantage/scene"
)

// CameraMode selects the active control scheme. Transitions happen only
// on explicit mode-set commands.
type CameraMode int

const (
	ModeOrbit CameraMode = iota
	ModePan
	ModeWalk
)

func (m CameraMode) String() string {
	switch m {
	case ModePan:
		return "pan"
	case ModeWalk:
		return "walk"
	default:
		return "orbit"
	}
}

func CameraModeFromString(s string) CameraMode {
	switch s {
	case "pan":
		return ModePan
	case "walk":
		return ModeWalk
	default:
		return ModeOrbit
	}
}

// CameraPreset names the fixed orientations.
type CameraPreset int

const (
	PresetFront CameraPreset = iota
	PresetBack
	PresetLeft
	PresetRight
	PresetTop
	PresetBottom
	PresetIsometric
)

const (
	elevationLimit = 1.5
	// Top/bottom presets stop just short of the pole to keep LookAtV
	// well-conditioned.
	poleEpsilon = 0.001

	isoAzimuth   = 0.785 // 45 degrees
	isoElevation = 0.615 // ~35 degrees
)

// CameraController holds the logical camera state: target point, orbit
// distance, azimuth/elevation, and walk velocity. The displayed pose is a
// damped copy that trails the logical one; framing computations always
// use the logical state.
type CameraController struct {
	cfg ViewerConfig

	Mode      CameraMode
	Target    mgl32.Vec3
	Distance  float32
	Azimuth   float32
	Elevation float32
	Velocity  mgl32.Vec3

	displayEye  mgl32.Vec3
	displaySeen bool

	rev uint64
}

func NewCameraController(cfg ViewerConfig) *CameraController {
	return &CameraController{
		cfg:       cfg,
		Mode:      ModeOrbit,
		Distance:  100.0,
		Azimuth:   isoAzimuth,
		Elevation: isoElevation,
	}
}

// Rev increments on every logical mutation; the sync module publishes the
// camera group when it changes.
func (c *CameraController) Rev() uint64 { return c.rev }

func (c *CameraController) touch() { c.rev++ }

// SetMode switches the control scheme and cancels any in-flight drag
// accumulation (walk velocity included).
func (c *CameraController) SetMode(mode CameraMode) {
	if c.Mode == mode {
		return
	}
	c.Mode = mode
	c.Velocity = mgl32.Vec3{}
	c.touch()
}

// sphericalDir is the unit offset from target to eye.
func (c *CameraController) sphericalDir() mgl32.Vec3 {
	cosEl := float32(math.Cos(float64(c.Elevation)))
	return mgl32.Vec3{
		cosEl * float32(math.Sin(float64(c.Azimuth))),
		float32(math.Sin(float64(c.Elevation))),
		cosEl * float32(math.Cos(float64(c.Azimuth))),
	}
}

// forward is the view direction used by walk mode.
func (c *CameraController) forward() mgl32.Vec3 {
	cosEl := float32(math.Cos(float64(c.Elevation)))
	return mgl32.Vec3{
		-float32(math.Sin(float64(c.Azimuth))) * cosEl,
		float32(math.Sin(float64(c.Elevation))),
		-float32(math.Cos(float64(c.Azimuth))) * cosEl,
	}
}

func (c *CameraController) right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Azimuth))),
		0,
		-float32(math.Sin(float64(c.Azimuth))),
	}
}

// Eye is the logical camera position. Walk mode moves the eye directly;
// the orbit fields are ignored there.
func (c *CameraController) Eye() mgl32.Vec3 {
	if c.Mode == ModeWalk {
		return c.Target
	}
	return c.Target.Add(c.sphericalDir().Mul(c.Distance))
}

func (c *CameraController) lookAt() mgl32.Vec3 {
	if c.Mode == ModeWalk {
		return c.Target.Add(c.forward())
	}
	return c.Target
}

// ViewMatrix is the logical (undamped) view transform, used for picking
// and framing.
func (c *CameraController) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.lookAt(), mgl32.Vec3{0, 1, 0})
}

// ProjMatrix builds the perspective projection for the given aspect.
func (c *CameraController) ProjMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	near := c.cfg.MinDistance * 0.5
	far := c.cfg.MaxDistance * 2
	return mgl32.Perspective(mgl32.DegToRad(c.cfg.FovDegrees), aspect, near, far)
}

// Drag applies a pointer-drag delta in pixels according to the mode.
func (c *CameraController) Drag(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	switch c.Mode {
	case ModeOrbit:
		c.Azimuth = wrapAngle(c.Azimuth - dx*c.cfg.OrbitSensitivity)
		c.Elevation = mgl32.Clamp(c.Elevation-dy*c.cfg.OrbitSensitivity, -elevationLimit, elevationLimit)
	case ModePan:
		// Pan in the camera's right/up plane, scaled by distance so the
		// model tracks the pointer at any zoom level.
		scale := c.cfg.PanSensitivity * c.Distance * 0.01
		pan := c.right().Mul(dx * scale).Sub(mgl32.Vec3{0, 1, 0}.Mul(dy * scale))
		c.Target = c.Target.Add(pan)
	case ModeWalk:
		// First-person look turns at half the orbit rate.
		c.Azimuth = wrapAngle(c.Azimuth - dx*c.cfg.OrbitSensitivity*0.5)
		c.Elevation = mgl32.Clamp(c.Elevation-dy*c.cfg.OrbitSensitivity*0.5, -elevationLimit, elevationLimit)
	}
	c.touch()
}

// Zoom scales distance exponentially and clamps to the configured range,
// so repeated zoom-in can never invert through the target.
func (c *CameraController) Zoom(delta float32) {
	if delta == 0 {
		return
	}
	d := c.Distance * float32(math.Exp(float64(-delta*c.cfg.ZoomSensitivity)))
	c.Distance = mgl32.Clamp(d, c.cfg.MinDistance, c.cfg.MaxDistance)
	c.touch()
}

// ApplyPreset sets azimuth/elevation directly; the display pose still
// eases toward it.
func (c *CameraController) ApplyPreset(preset CameraPreset) {
	switch preset {
	case PresetFront:
		c.Azimuth, c.Elevation = 0, 0
	case PresetBack:
		c.Azimuth, c.Elevation = math.Pi, 0
	case PresetLeft:
		c.Azimuth, c.Elevation = -math.Pi/2, 0
	case PresetRight:
		c.Azimuth, c.Elevation = math.Pi/2, 0
	case PresetTop:
		c.Azimuth, c.Elevation = 0, math.Pi/2-poleEpsilon
	case PresetBottom:
		c.Azimuth, c.Elevation = 0, -math.Pi/2+poleEpsilon
	case PresetIsometric:
		c.Azimuth, c.Elevation = isoAzimuth, isoElevation
	}
	c.Azimuth = wrapAngle(c.Azimuth)
	c.Elevation = mgl32.Clamp(c.Elevation, -elevationLimit, elevationLimit)
	c.touch()
}

// Home is the isometric overview.
func (c *CameraController) Home() {
	c.ApplyPreset(PresetIsometric)
}

// FitBounds recenters the target on the box and sets the distance so the
// whole box fills the view.
func (c *CameraController) FitBounds(b scene.AABB) {
	c.Target = b.Center()
	halfFov := float64(mgl32.DegToRad(c.cfg.FovDegrees)) / 2
	d := b.Diagonal() / (2 * float32(math.Tan(halfFov)))
	c.Distance = mgl32.Clamp(d, c.cfg.MinDistance, c.cfg.MaxDistance)
	if c.Mode == ModeWalk {
		// Framing only makes sense orbiting the subject.
		c.Mode = ModeOrbit
	}
	c.touch()
}

// WalkKeys converts held-key state into a velocity for this frame.
func (c *CameraController) WalkKeys(forward, back, left, right, down, up bool) {
	if c.Mode != ModeWalk {
		return
	}
	move := mgl32.Vec3{}
	if forward {
		move = move.Add(c.forward())
	}
	if back {
		move = move.Sub(c.forward())
	}
	if left {
		move = move.Sub(c.right())
	}
	if right {
		move = move.Add(c.right())
	}
	if up {
		move = move.Add(mgl32.Vec3{0, 1, 0})
	}
	if down {
		move = move.Sub(mgl32.Vec3{0, 1, 0})
	}
	if move.Len() > 0 {
		c.Velocity = move.Normalize().Mul(c.cfg.WalkSpeed)
	} else {
		c.Velocity = mgl32.Vec3{}
	}
}

// Integrate advances walk movement by dt seconds.
func (c *CameraController) Integrate(dt float32) {
	if c.Mode != ModeWalk || dt <= 0 {
		return
	}
	if c.Velocity.Len() == 0 {
		return
	}
	c.Target = c.Target.Add(c.Velocity.Mul(dt))
	c.touch()
}

// Sanitize corrects degenerate state in place: NaN angles reset, zero or
// negative distance clamps to the floor. The view must never freeze on
// bad input.
func (c *CameraController) Sanitize() {
	if isNaN32(c.Azimuth) {
		c.Azimuth = 0
	}
	if isNaN32(c.Elevation) {
		c.Elevation = 0
	}
	if isNaN32(c.Distance) || c.Distance < c.cfg.MinDistance {
		c.Distance = c.cfg.MinDistance
	}
	if c.Distance > c.cfg.MaxDistance {
		c.Distance = c.cfg.MaxDistance
	}
	c.Elevation = mgl32.Clamp(c.Elevation, -elevationLimit, elevationLimit)
	for i := 0; i < 3; i++ {
		if isNaN32(c.Target[i]) {
			c.Target[i] = 0
		}
	}
}

// DisplayEye advances the damped display position toward the logical eye
// and returns it. Rendering reads this; logical state is untouched.
func (c *CameraController) DisplayEye(dt float32) mgl32.Vec3 {
	eye := c.Eye()
	if !c.displaySeen {
		c.displayEye = eye
		c.displaySeen = true
		return eye
	}
	// Normalize dt against a 60Hz frame so damping feels identical at
	// any refresh rate.
	t := 1 - float32(math.Pow(float64(c.cfg.Damping), float64(dt*60)))
	t = mgl32.Clamp(t, 0, 1)
	c.displayEye = c.displayEye.Add(eye.Sub(c.displayEye).Mul(t))
	return c.displayEye
}

// DisplayView is the damped view transform handed to the renderer.
func (c *CameraController) DisplayView(dt float32) mgl32.Mat4 {
	return mgl32.LookAtV(c.DisplayEye(dt), c.lookAt(), mgl32.Vec3{0, 1, 0})
}

func wrapAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func isNaN32(f float32) bool {
	return f != f
}

// CameraModule wires the controller into the frame loop.
type CameraModule struct {
	Config ViewerConfig
}

func (m CameraModule) Install(app *App) {
	app.AddResource(NewCameraController(m.Config.withDefaults()))
	app.UseSystem(Update, cameraInputSystem)
	app.UseSystem(PostUpdate, cameraUpdateSystem)
}

func cameraInputSystem(in *Input, cam *CameraController) {
	if in.PrimaryDown && in.DidDrag {
		cam.Drag(in.DeltaX, in.DeltaY)
	}
	if in.WheelDelta != 0 {
		cam.Zoom(in.WheelDelta)
	}
	cam.WalkKeys(
		in.Pressed[KeyW] || in.Pressed[KeyUp],
		in.Pressed[KeyS] || in.Pressed[KeyDown],
		in.Pressed[KeyA] || in.Pressed[KeyLeft],
		in.Pressed[KeyD] || in.Pressed[KeyRight],
		in.Pressed[KeyQ],
		in.Pressed[KeyE],
	)
}

func cameraUpdateSystem(cam *CameraController, t *Time) {
	cam.Integrate(float32(t.Dt.Seconds()))
	cam.Sanitize()
}
