// Package module defines the engine's module contract: the interface
// every statically-linked module implements, the per-call context handed
// to each lifecycle method, and the topological ordering used to run
// modules in dependency order.
package module

import (
	"sort"

	"github.com/forgecore/enginecore/internal/enginerr"
	"github.com/forgecore/enginecore/internal/eventhub"
	"github.com/forgecore/enginecore/internal/resources"
	"github.com/forgecore/enginecore/internal/scheduler"
)

// Frame carries per-step timing information into module lifecycle calls
// that run once per tick. It is rebuilt every step.
type Frame struct {
	FrameIndex uint64
	DT         float32
	FixedDT    float32
	FixedAlpha float32
	FixedSteps uint32
}

// Module is the contract every engine module implements. Every method
// beyond ID is optional: embedding Base gives a module no-op defaults for
// all of them, so a module need only override what it uses.
type Module interface {
	// ID returns this module's unique, stable, case-sensitive identifier.
	ID() string
	// Dependencies returns the module-ids that must be started, and must
	// run update/fixed_update/render, before this module in any given frame.
	Dependencies() []string

	Init(ctx *Ctx) error
	Start(ctx *Ctx) error
	Update(ctx *Ctx) error
	FixedUpdate(ctx *Ctx) error
	Render(ctx *Ctx) error
	Shutdown(ctx *Ctx) error
	OnExternalEvent(ctx *Ctx, event any) error
}

// Base gives embedders no-op implementations of every optional method,
// so a concrete module can implement only what it needs.
type Base struct{}

func (Base) Dependencies() []string                  { return nil }
func (Base) Init(*Ctx) error                         { return nil }
func (Base) Start(*Ctx) error                        { return nil }
func (Base) Update(*Ctx) error                        { return nil }
func (Base) FixedUpdate(*Ctx) error                   { return nil }
func (Base) Render(*Ctx) error                        { return nil }
func (Base) Shutdown(*Ctx) error                      { return nil }
func (Base) OnExternalEvent(*Ctx, any) error          { return nil }

// Ctx is the per-call context passed to every module lifecycle method. It
// exposes the resources store, event hub, scheduler, a way to request
// exit, and — inside per-frame stages only — the current Frame.
type Ctx struct {
	Resources *resources.Resources
	Events    *eventhub.Hub
	Scheduler *scheduler.Scheduler

	frame        *Frame
	exitRequested *bool
}

// NewCtx builds a Ctx for use outside a per-frame stage (init/start/
// shutdown/external-event). Frame() will return nil.
func NewCtx(res *resources.Resources, hub *eventhub.Hub, sched *scheduler.Scheduler, exitRequested *bool) *Ctx {
	return &Ctx{Resources: res, Events: hub, Scheduler: sched, exitRequested: exitRequested}
}

// WithFrame returns a copy of ctx carrying frame, for use during a
// per-frame stage (fixed_update/update/render).
func (c *Ctx) WithFrame(frame *Frame) *Ctx {
	cp := *c
	cp.frame = frame
	return &cp
}

// Frame returns the current frame, or nil outside a per-frame stage.
func (c *Ctx) Frame() *Frame { return c.frame }

// RequestExit marks the engine for cooperative shutdown at the next
// stage boundary.
func (c *Ctx) RequestExit() {
	if c.exitRequested != nil {
		*c.exitRequested = true
	}
}

// TopoSort returns modules ordered so that every module appears after all
// of its declared dependencies (a leaf-first Kahn sort). Ties among
// modules with no ordering constraint between them are broken by
// insertion order, so the sort is deterministic for a given registration
// sequence. Returns an InvalidInput error if a module id is duplicated,
// if a dependency names an unknown id (the message names both ids), or if
// the dependency graph contains a cycle (the message does not name the
// modules involved).
func TopoSort(modules []Module) ([]Module, error) {
	index := make(map[string]int, len(modules))
	for i, m := range modules {
		if _, dup := index[m.ID()]; dup {
			return nil, enginerr.InvalidInput("module: duplicate module id " + m.ID())
		}
		index[m.ID()] = i
	}

	inDegree := make([]int, len(modules))
	dependents := make([][]int, len(modules))

	for i, m := range modules {
		for _, dep := range m.Dependencies() {
			depIdx, ok := index[dep]
			if !ok {
				return nil, enginerr.InvalidInput("module: " + m.ID() + " depends on unknown module " + dep)
			}
			inDegree[i]++
			dependents[depIdx] = append(dependents[depIdx], i)
		}
	}

	// Seed the ready queue with zero-indegree modules in insertion order,
	// and keep it sorted by insertion order on every pop so output is
	// deterministic regardless of map iteration order above.
	var ready []int
	for i := range modules {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	sort.Ints(ready)

	out := make([]Module, 0, len(modules))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		out = append(out, modules[i])

		var freed []int
		for _, dep := range dependents[i] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				freed = append(freed, dep)
			}
		}
		sort.Ints(freed)
		ready = append(ready, freed...)
		sort.Ints(ready)
	}

	if len(out) != len(modules) {
		return nil, enginerr.InvalidInput("module: dependency cycle detected")
	}
	return out, nil
}

// Reversed returns a new slice containing modules in reverse order, used
// for shutdown.
func Reversed(modules []Module) []Module {
	out := make([]Module, len(modules))
	for i, m := range modules {
		out[len(modules)-1-i] = m
	}
	return out
}
