// Package engine implements the deterministic frame host: it owns the
// resources store, event hub, scheduler, asset store, service registry,
// and plugin host, runs statically-linked modules in dependency order,
// and drives the fixed-timestep accumulator loop every Step.
package engine

import (
	"math"
	"time"

	"github.com/forgecore/enginecore/internal/assetstore"
	"github.com/forgecore/enginecore/internal/enginerr"
	"github.com/forgecore/enginecore/internal/eventhub"
	"github.com/forgecore/enginecore/internal/module"
	"github.com/forgecore/enginecore/internal/pluginhost"
	"github.com/forgecore/enginecore/internal/resources"
	"github.com/forgecore/enginecore/internal/scheduler"
	"github.com/forgecore/enginecore/internal/serviceregistry"
	"github.com/forgecore/enginecore/internal/shutdown"
)

// maxFrameDT bounds how much wall-clock time a single Step absorbs,
// preventing a debugger pause or suspend/resume from producing a
// multi-second catch-up burst of fixed updates.
const maxFrameDT = 0.25

// maxAccumulatorFactor bounds the fixed-step accumulator to a small
// multiple of fixed_dt, so step() spirals of death terminate after a
// bounded number of fixed updates per call rather than looping forever.
const maxAccumulatorFactor = 8.0

// defaultAssetPumpBudget is how many queued asset requests Step services
// per frame, after Update and before Render.
const defaultAssetPumpBudget = 64

// Engine is the frame host. The zero value is not usable; use New.
type Engine struct {
	fixedDT float32

	resources *resources.Resources
	events    *eventhub.Hub
	scheduler *scheduler.Scheduler
	assets    *assetstore.Store
	services  *serviceregistry.Registry
	plugins   *pluginhost.Manager

	assetPumpBudget uint32

	modules []module.Module // registration order
	ordered []module.Module // dependency order, computed by Start

	shutdownToken shutdown.Token
	exitRequested bool

	frameIndex uint64
	started    bool
	drained    bool
	last       time.Time
	acc        float32
}

// New returns an Engine with a fixed timestep of fixedDTMillis
// milliseconds (clamped to a minimum of 1ms) and freshly constructed
// resources, event hub, scheduler, asset store, and service registry.
func New(fixedDTMillis uint32) *Engine {
	return NewWithShutdown(fixedDTMillis, shutdown.New())
}

// NewWithShutdown is New but lets the caller supply (and thus retain a
// copy of) the ShutdownToken, so an external supervisor can request a
// cooperative shutdown without going through the Engine.
func NewWithShutdown(fixedDTMillis uint32, token shutdown.Token) *Engine {
	fixedDT := float32(fixedDTMillis) / 1000.0
	if fixedDT < 0.001 {
		fixedDT = 0.001
	}

	res := resources.New()
	hub := eventhub.New()
	sched := scheduler.New()
	assets := assetstore.New()
	svcs := serviceregistry.New()

	e := &Engine{
		fixedDT:         fixedDT,
		resources:       res,
		events:          hub,
		scheduler:       sched,
		assets:          assets,
		services:        svcs,
		assetPumpBudget: defaultAssetPumpBudget,
		shutdownToken:   token,
		last:            time.Now(),
	}
	e.plugins = pluginhost.NewManager(svcs, assets, hub)
	return e
}

// Resources returns the resources store modules and plugins share.
func (e *Engine) Resources() *resources.Resources { return e.resources }

// Events returns the shared event hub.
func (e *Engine) Events() *eventhub.Hub { return e.events }

// Scheduler returns the shared timer scheduler.
func (e *Engine) Scheduler() *scheduler.Scheduler { return e.scheduler }

// Assets returns the shared asset store.
func (e *Engine) Assets() *assetstore.Store { return e.assets }

// Services returns the shared service registry.
func (e *Engine) Services() *serviceregistry.Registry { return e.services }

// Plugins returns the plugin host, for loading *.so plugins before Start.
func (e *Engine) Plugins() *pluginhost.Manager { return e.plugins }

// SetAssetPumpBudget overrides how many queued asset requests Step
// services per frame. The default is defaultAssetPumpBudget.
func (e *Engine) SetAssetPumpBudget(steps uint32) { e.assetPumpBudget = steps }

// RequestExit marks the engine for cooperative shutdown at the next
// stage boundary, in this process and (via the shutdown token) any
// other holder of the same token.
func (e *Engine) RequestExit() {
	e.shutdownToken.Request()
	e.exitRequested = true
}

// ShutdownToken returns the engine's shutdown token. Copies share state
// with the engine's own copy: requesting on any copy is visible to all.
func (e *Engine) ShutdownToken() shutdown.Token { return e.shutdownToken }

// ExitRequested reports whether exit has been requested, either directly
// or via the shutdown token.
func (e *Engine) ExitRequested() bool { return e.isExitRequested() }

func (e *Engine) isExitRequested() bool {
	return e.exitRequested || e.shutdownToken.IsRequested()
}

func (e *Engine) syncShutdownState() {
	if e.shutdownToken.IsRequested() {
		e.exitRequested = true
	}
}

func (e *Engine) propagateShutdownRequest() {
	if e.exitRequested {
		e.shutdownToken.Request()
	}
}

func (e *Engine) newCtx() *module.Ctx {
	return module.NewCtx(e.resources, e.events, e.scheduler, &e.exitRequested)
}

// RegisterModule calls Init on m immediately, then adds it to the
// registration list. Registration order only matters as a tiebreak for
// modules with no ordering relationship to each other; call Start to
// compute the dependency order everything else uses.
func (e *Engine) RegisterModule(m module.Module) error {
	e.syncShutdownState()

	ctx := e.newCtx()
	if err := m.Init(ctx); err != nil {
		return enginerr.StageFailed(enginerr.StageInit, err)
	}

	e.propagateShutdownRequest()
	e.modules = append(e.modules, m)
	return nil
}

// Start computes the dependency-ordered module sequence, calls Start on
// every module in that order, and starts every loaded plugin. Returns
// enginerr.ErrExitRequested if a module requests exit mid-sequence. Safe
// to call twice: once a prior call has completed successfully, Start is a
// no-op. This is distinct from Step's own auto-start, which only ever
// calls Start once because it gates on the same flag Start sets here.
func (e *Engine) Start() error {
	if e.started {
		return nil
	}

	e.last = time.Now()
	e.syncShutdownState()

	ordered, err := module.TopoSort(e.modules)
	if err != nil {
		return err
	}
	e.ordered = ordered

	for _, m := range e.ordered {
		ctx := e.newCtx()
		if err := m.Start(ctx); err != nil {
			return enginerr.StageFailed(enginerr.StageStart, err)
		}
		e.propagateShutdownRequest()
		if e.isExitRequested() {
			return enginerr.ErrExitRequested
		}
	}

	if err := e.plugins.StartAll(); err != nil {
		return err
	}

	e.started = true
	return nil
}

func (e *Engine) runStage(stage enginerr.ModuleStage, frame module.Frame, call func(module.Module, *module.Ctx) error) error {
	for _, m := range e.ordered {
		e.syncShutdownState()

		ctx := e.newCtx().WithFrame(&frame)
		if err := call(m, ctx); err != nil {
			return enginerr.StageFailed(stage, err)
		}

		e.propagateShutdownRequest()
		if e.isExitRequested() {
			return enginerr.ErrExitRequested
		}
	}
	return nil
}

// Step advances the engine by one frame: it measures elapsed wall-clock
// time since the previous Step (clamped to maxFrameDT and accumulated
// against a cap of fixed_dt*maxAccumulatorFactor), runs FixedUpdate as
// many times as the accumulator allows, then runs Update once, pumps the
// asset store, runs Render once, ticks the scheduler, and advances
// the (wrapping) frame index. Calls Start automatically on the first
// invocation. Returns enginerr.ErrExitRequested once exit has been
// requested by any module, plugin, or external shutdown-token holder.
func (e *Engine) Step() (module.Frame, error) {
	e.syncShutdownState()
	if e.isExitRequested() {
		return module.Frame{}, enginerr.ErrExitRequested
	}

	now := time.Now()

	if !e.started {
		if err := e.Start(); err != nil {
			return module.Frame{}, err
		}
		e.last = now
	}

	dt := float32(now.Sub(e.last).Seconds())
	e.last = now

	if math.IsNaN(float64(dt)) || math.IsInf(float64(dt), 0) || dt < 0 {
		dt = 0
	}
	if dt > maxFrameDT {
		dt = maxFrameDT
	}

	e.acc += dt
	if accCap := e.fixedDT * maxAccumulatorFactor; e.acc > accCap {
		e.acc = accCap
	}

	var fixedSteps uint32
	for e.acc >= e.fixedDT {
		e.acc -= e.fixedDT
		fixedSteps++

		fixedFrame := module.Frame{
			FrameIndex: e.frameIndex,
			DT:         e.fixedDT,
			FixedDT:    e.fixedDT,
			FixedAlpha: 0,
			FixedSteps: 1,
		}
		if err := e.runStage(enginerr.StageFixedUpdate, fixedFrame, func(m module.Module, c *module.Ctx) error { return m.FixedUpdate(c) }); err != nil {
			return module.Frame{}, err
		}
		if err := e.plugins.FixedUpdateAll(e.fixedDT); err != nil {
			return module.Frame{}, err
		}
	}

	alpha := e.acc / e.fixedDT
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 0.999999 {
		alpha = 0.999999
	}

	frame := module.Frame{
		FrameIndex: e.frameIndex,
		DT:         dt,
		FixedDT:    e.fixedDT,
		FixedAlpha: alpha,
		FixedSteps: fixedSteps,
	}

	if err := e.runStage(enginerr.StageUpdate, frame, func(m module.Module, c *module.Ctx) error { return m.Update(c) }); err != nil {
		return module.Frame{}, err
	}
	if err := e.plugins.UpdateAll(dt); err != nil {
		return module.Frame{}, err
	}

	e.assets.Pump(assetstore.PumpBudget{Steps: e.assetPumpBudget})

	if err := e.runStage(enginerr.StageRender, frame, func(m module.Module, c *module.Ctx) error { return m.Render(c) }); err != nil {
		return module.Frame{}, err
	}
	if err := e.plugins.RenderAll(dt); err != nil {
		return module.Frame{}, err
	}

	e.scheduler.Tick(time.Duration(dt * float32(time.Second)))
	e.frameIndex++

	return frame, nil
}

// DispatchExternalEvent delivers event to every module's
// OnExternalEvent, in dependency order, stopping at the first error or
// exit request.
func (e *Engine) DispatchExternalEvent(event any) error {
	e.syncShutdownState()

	order := e.ordered
	if order == nil {
		order = e.modules
	}

	for _, m := range order {
		e.syncShutdownState()

		ctx := e.newCtx()
		if err := m.OnExternalEvent(ctx, event); err != nil {
			return enginerr.StageFailed(enginerr.StageExternalEvent, err)
		}

		e.propagateShutdownRequest()
		if e.isExitRequested() {
			return enginerr.ErrExitRequested
		}
	}
	return nil
}

// Shutdown calls Shutdown on every module in reverse dependency order,
// then shuts down every loaded plugin in reverse load order. Module
// shutdown errors are not propagated, matching the original's
// best-effort teardown: every module gets a chance to release its
// resources regardless of an earlier one failing. The engine marks
// itself drained once this completes, so a second call is a no-op and
// no module or plugin is ever shut down more than once.
func (e *Engine) Shutdown() error {
	if e.drained {
		return nil
	}

	e.syncShutdownState()

	order := e.ordered
	if order == nil {
		order = e.modules
	}

	for _, m := range module.Reversed(order) {
		ctx := e.newCtx()
		_ = m.Shutdown(ctx)
	}

	e.plugins.Shutdown()
	e.drained = true
	return nil
}
