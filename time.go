package vantage

import (
	"time"
)

// Time tracks the frame clock. Dt is the wall time since the previous
// tick.
type Time struct {
	Now   time.Time
	Dt    time.Duration
	Frame uint64
}

type TimeModule struct{}

func (TimeModule) Install(app *App) {
	app.AddResource(&Time{Now: time.Now()})
	app.UseSystem(PreUpdate, timeSystem)
}

func timeSystem(t *Time) {
	now := time.Now()
	t.Dt = now.Sub(t.Now)
	t.Now = now
	t.Frame++
}
