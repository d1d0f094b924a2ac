package vantage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterRes struct {
	ticks int
}

type orderRes struct {
	calls []string
}

type mockModule struct {
	installed bool
}

func (m *mockModule) Install(app *App) {
	m.installed = true
	app.AddResource(&counterRes{})
}

func TestApp_UseModulesInstalls(t *testing.T) {
	m := &mockModule{}
	app := NewApp()
	app.UseModules(m)

	assert.True(t, m.installed)
	assert.NotNil(t, Resource[counterRes](app))
}

func TestApp_SystemInjection(t *testing.T) {
	app := NewApp()
	app.AddResource(&counterRes{})
	app.UseSystem(Update, func(c *counterRes) {
		c.ticks++
	})

	app.Tick()
	app.Tick()

	assert.Equal(t, 2, Resource[counterRes](app).ticks)
}

func TestApp_StageOrder(t *testing.T) {
	app := NewApp()
	app.AddResource(&orderRes{})
	app.UseSystem(Sync, func(o *orderRes) { o.calls = append(o.calls, "sync") })
	app.UseSystem(PreUpdate, func(o *orderRes) { o.calls = append(o.calls, "pre") })
	app.UseSystem(PostUpdate, func(o *orderRes) { o.calls = append(o.calls, "post") })
	app.UseSystem(Update, func(o *orderRes) { o.calls = append(o.calls, "update") })

	app.Tick()

	require.Equal(t, []string{"pre", "update", "post", "sync"}, Resource[orderRes](app).calls)
}

func TestApp_DuplicateResourcePanics(t *testing.T) {
	app := NewApp()
	app.AddResource(&counterRes{})

	assert.Panics(t, func() {
		app.AddResource(&counterRes{})
	})
}

func TestApp_NonPointerResourcePanics(t *testing.T) {
	app := NewApp()

	assert.Panics(t, func() {
		app.AddResource(counterRes{})
	})
}

func TestApp_UnresolvedSystemParamPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(Update, func(c *counterRes) {})

	assert.Panics(t, func() {
		app.Tick()
	})
}

func TestApp_LoggerFallback(t *testing.T) {
	app := NewApp()
	assert.NotNil(t, app.Logger(), "must return a usable logger even when none installed")

	log := NewDefaultLogger("test", false)
	app.AddResource(log)
	assert.Equal(t, Logger(log), app.Logger())
}

func TestApp_MultipleSystemsSameStageRunInOrder(t *testing.T) {
	app := NewApp()
	app.AddResource(&orderRes{})
	app.UseSystem(Update, func(o *orderRes) { o.calls = append(o.calls, "a") })
	app.UseSystem(Update, func(o *orderRes) { o.calls = append(o.calls, "b") })

	app.Tick()

	assert.Equal(t, []string{"a", "b"}, Resource[orderRes](app).calls)
}
