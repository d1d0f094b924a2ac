package vantage

// Key identifies an abstract key; raw OS scancodes are translated by the
// host shell before they reach the engine.
type Key int

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyShift
	KeyControl
	keyCount
)

// Input is the per-frame view of abstract pointer/key state. The host
// pushes events between ticks; systems read them during the tick; the
// end-of-frame system clears the transient fields.
type Input struct {
	Pressed     [keyCount]bool
	JustPressed [keyCount]bool

	// Pointer position in pixels and this frame's accumulated deltas.
	PointerX float32
	PointerY float32
	DeltaX   float32
	DeltaY   float32

	WheelDelta float32

	PrimaryDown         bool
	PrimaryJustPressed  bool
	PrimaryJustReleased bool

	// Additive is the toggle-selection modifier (ctrl/cmd).
	Additive bool

	ViewportW float32
	ViewportH float32

	// Click-versus-drag discrimination.
	dragStartX float32
	dragStartY float32
	DidDrag    bool
	clickSlop  float32
}

// PushPointerMove reports an absolute pointer position.
func (in *Input) PushPointerMove(x, y float32) {
	if in.PrimaryDown {
		in.DeltaX += x - in.PointerX
		in.DeltaY += y - in.PointerY
		dx := x - in.dragStartX
		dy := y - in.dragStartY
		if dx*dx+dy*dy > in.clickSlop*in.clickSlop {
			in.DidDrag = true
		}
	}
	in.PointerX = x
	in.PointerY = y
}

// PushPrimaryButton reports the primary pointer button.
func (in *Input) PushPrimaryButton(down bool) {
	switch {
	case down && !in.PrimaryDown:
		in.PrimaryJustPressed = true
		in.dragStartX = in.PointerX
		in.dragStartY = in.PointerY
		in.DidDrag = false
	case !down && in.PrimaryDown:
		in.PrimaryJustReleased = true
	}
	in.PrimaryDown = down
}

// PushWheel accumulates scroll/pinch delta for the frame.
func (in *Input) PushWheel(delta float32) {
	in.WheelDelta += delta
}

// PushKey reports a key transition.
func (in *Input) PushKey(key Key, down bool) {
	if key < 0 || key >= keyCount {
		return
	}
	if down && !in.Pressed[key] {
		in.JustPressed[key] = true
	}
	in.Pressed[key] = down
}

// SetViewport reports the render surface size in pixels.
func (in *Input) SetViewport(w, h float32) {
	in.ViewportW = w
	in.ViewportH = h
}

// JustClicked reports a primary release without a drag in between.
func (in *Input) JustClicked() bool {
	return in.PrimaryJustReleased && !in.DidDrag
}

// NormalizedPointer maps the pointer into [0,1]^2, y down.
func (in *Input) NormalizedPointer() (float32, float32) {
	if in.ViewportW <= 0 || in.ViewportH <= 0 {
		return 0.5, 0.5
	}
	return in.PointerX / in.ViewportW, in.PointerY / in.ViewportH
}

// PointerNDC maps the pointer into clip space: [-1,1]^2, y up.
func (in *Input) PointerNDC() (float32, float32) {
	x, y := in.NormalizedPointer()
	return x*2 - 1, 1 - y*2
}

func (in *Input) Aspect() float32 {
	if in.ViewportW <= 0 || in.ViewportH <= 0 {
		return 1
	}
	return in.ViewportW / in.ViewportH
}

type InputModule struct {
	ClickSlop float32
}

func (m InputModule) Install(app *App) {
	slop := m.ClickSlop
	if slop <= 0 {
		slop = DefaultConfig().ClickSlopPixels
	}
	app.AddResource(&Input{clickSlop: slop, ViewportW: 1920, ViewportH: 1080})
	app.UseSystem(Sync, inputEndFrameSystem)
}

// inputEndFrameSystem clears per-frame transients after every stage has
// seen them.
func inputEndFrameSystem(in *Input) {
	in.DeltaX = 0
	in.DeltaY = 0
	in.WheelDelta = 0
	in.PrimaryJustPressed = false
	in.PrimaryJustReleased = false
	for k := range in.JustPressed {
		in.JustPressed[k] = false
	}
}
