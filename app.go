package vantage

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"time"
)

// Module installs resources and systems into an App.
type Module interface {
	Install(app *App)
}

// Stage orders systems within one frame tick.
type Stage struct {
	Name string
}

var (
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	Sync       = Stage{Name: "Sync"}
)

var defaultStages = []Stage{PreUpdate, Update, PostUpdate, Sync}

type systemFn any

// App is one engine runtime: a set of shared resources and systems run in
// stage order, once per cooperative frame tick. Each engine is
// single-threaded with respect to its own state; the only cross-engine
// surface is the sync module's store polling.
type App struct {
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
}

func NewApp() *App {
	app := &App{
		stages:    defaultStages,
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
	}
	return app
}

// UseModules installs modules in order; later modules may depend on
// resources added by earlier ones.
func (app *App) UseModules(modules ...Module) *App {
	for _, m := range modules {
		m.Install(app)
	}
	return app
}

// AddResource registers a pointer-typed resource; one value per type.
func (app *App) AddResource(resources ...any) *App {
	for _, r := range resources {
		t := reflect.TypeOf(r)
		if t.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", t))
		}
		if _, dup := app.resources[t.Elem()]; dup {
			panic(fmt.Sprintf("%s is already a resource", t.Elem()))
		}
		app.resources[t.Elem()] = r
	}
	return app
}

// Resource fetches a registered resource by example type.
func Resource[T any](app *App) *T {
	var zero T
	r, ok := app.resources[reflect.TypeOf(zero)]
	if !ok {
		panic(fmt.Sprintf("resource %T not registered", zero))
	}
	return r.(*T)
}

// UseSystem schedules a system function in a stage. System parameters are
// pointers to registered resources, resolved on every call.
func (app *App) UseSystem(stage Stage, system systemFn) *App {
	if _, ok := app.systems[stage.Name]; !ok {
		found := false
		for _, s := range app.stages {
			if s.Name == stage.Name {
				found = true
				break
			}
		}
		if !found {
			panic(fmt.Sprintf("stage %s not part of the frame", stage.Name))
		}
	}
	app.systems[stage.Name] = append(app.systems[stage.Name], system)
	return app
}

// Tick runs one frame: every stage, every system, in registration order.
// All state changes issued within one engine are observed in issue order.
func (app *App) Tick() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
}

// Run ticks the frame loop at the given interval until the context is
// canceled.
func (app *App) Run(ctx context.Context, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.Tick()
		}
	}
}

func (app *App) callSystem(system systemFn) {
	sysType := reflect.TypeOf(system)
	sysValue := reflect.ValueOf(system)

	args := make([]reflect.Value, sysType.NumIn())
	for i := 0; i < sysType.NumIn(); i++ {
		argType := sysType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(app.resolveError(sysValue, argType))
		}
		resource, ok := app.resources[argType.Elem()]
		if !ok {
			panic(app.resolveError(sysValue, argType))
		}
		args[i] = reflect.ValueOf(resource)
	}
	sysValue.Call(args)
}

func (app *App) resolveError(sysValue reflect.Value, argType reflect.Type) string {
	return fmt.Sprintf("unable to resolve system dependency\nsystem: %s\ndependency: %s",
		runtime.FuncForPC(sysValue.Pointer()).Name(), argType)
}
