// Package demomodules provides a handful of small modules used by the
// harness CLI to demonstrate a working Engine: a clock that ticks a
// scheduled log line, and a counter that depends on it and tracks how
// many fixed steps have run.
package demomodules

import (
	"time"

	"github.com/forgecore/enginecore/internal/module"
	"github.com/forgecore/enginecore/internal/resources"
	"github.com/forgecore/enginecore/pkg/enginelog"
)

// Clock logs a "tick" line once a second via the scheduler, using
// Every rather than counting frames itself so it exercises
// internal/scheduler.
type Clock struct {
	module.Base
}

func (*Clock) ID() string { return "demo.clock" }

func (c *Clock) Start(ctx *module.Ctx) error {
	ctx.Scheduler.Every(time.Second, func() {
		enginelog.Info("demo.clock", "tick")
	})
	return nil
}

// CounterState is the resource Counter publishes for other modules (or
// the harness) to read.
type CounterState struct {
	FixedSteps uint64
}

// Counter depends on Clock purely to demonstrate dependency-ordered
// Start/FixedUpdate; it has no actual runtime dependency on the clock's
// behavior.
type Counter struct {
	module.Base
	state CounterState
}

func (*Counter) ID() string             { return "demo.counter" }
func (*Counter) Dependencies() []string { return []string{"demo.clock"} }

func (c *Counter) Start(ctx *module.Ctx) error {
	resources.Insert(ctx.Resources, &c.state)
	return nil
}

func (c *Counter) FixedUpdate(ctx *module.Ctx) error {
	c.state.FixedSteps++
	return nil
}

func (c *Counter) Shutdown(ctx *module.Ctx) error {
	enginelog.Info("demo.counter", "ran %d fixed steps", c.state.FixedSteps)
	return nil
}
