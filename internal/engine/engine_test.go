package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecore/enginecore/internal/enginerr"
	"github.com/forgecore/enginecore/internal/module"
	"github.com/forgecore/enginecore/internal/resources"
)

type recordingModule struct {
	module.Base
	id          string
	deps        []string
	log         *[]string
	exitOnStart bool
}

func (m *recordingModule) ID() string             { return m.id }
func (m *recordingModule) Dependencies() []string { return m.deps }

func (m *recordingModule) Init(ctx *module.Ctx) error {
	*m.log = append(*m.log, m.id+".init")
	return nil
}
func (m *recordingModule) Start(ctx *module.Ctx) error {
	*m.log = append(*m.log, m.id+".start")
	if m.exitOnStart {
		ctx.RequestExit()
	}
	return nil
}
func (m *recordingModule) Update(ctx *module.Ctx) error {
	*m.log = append(*m.log, m.id+".update")
	return nil
}
func (m *recordingModule) FixedUpdate(ctx *module.Ctx) error {
	*m.log = append(*m.log, m.id+".fixed")
	return nil
}
func (m *recordingModule) Render(ctx *module.Ctx) error {
	*m.log = append(*m.log, m.id+".render")
	return nil
}
func (m *recordingModule) Shutdown(ctx *module.Ctx) error {
	*m.log = append(*m.log, m.id+".shutdown")
	return nil
}

func TestRegisterModuleRunsInitImmediately(t *testing.T) {
	e := New(16)
	var log []string
	m := &recordingModule{id: "a", log: &log}

	require.NoError(t, e.RegisterModule(m))
	assert.Equal(t, []string{"a.init"}, log)
}

func TestStartRunsInDependencyOrder(t *testing.T) {
	e := New(16)
	var log []string
	a := &recordingModule{id: "a", log: &log}
	b := &recordingModule{id: "b", deps: []string{"a"}, log: &log}

	require.NoError(t, e.RegisterModule(b))
	require.NoError(t, e.RegisterModule(a))
	log = nil

	require.NoError(t, e.Start())
	assert.Equal(t, []string{"a.start", "b.start"}, log)
}

func TestStartIsIdempotentAfterSuccess(t *testing.T) {
	e := New(16)
	var log []string
	a := &recordingModule{id: "a", log: &log}
	require.NoError(t, e.RegisterModule(a))

	require.NoError(t, e.Start())
	log = nil

	require.NoError(t, e.Start())
	assert.Empty(t, log, "a second Start must be a no-op once the first has succeeded")
}

func TestStepRunsUpdateAndRender(t *testing.T) {
	e := New(16)
	var log []string
	m := &recordingModule{id: "a", log: &log}
	require.NoError(t, e.RegisterModule(m))
	require.NoError(t, e.Start())

	log = nil
	_, err := e.Step()
	require.NoError(t, err)

	assert.Contains(t, log, "a.update")
	assert.Contains(t, log, "a.render")
}

func TestStepReturnsExitRequestedAfterRequestExit(t *testing.T) {
	e := New(16)
	e.RequestExit()

	_, err := e.Step()
	assert.True(t, errors.Is(err, enginerr.ErrExitRequested))
}

func TestStartPropagatesExitRequestedFromModule(t *testing.T) {
	e := New(16)
	var log []string
	m := &recordingModule{id: "a", log: &log, exitOnStart: true}
	require.NoError(t, e.RegisterModule(m))

	err := e.Start()
	assert.True(t, errors.Is(err, enginerr.ErrExitRequested))
	assert.True(t, e.ExitRequested())
}

func TestShutdownRunsInReverseDependencyOrderAndIsIdempotent(t *testing.T) {
	e := New(16)
	var log []string
	a := &recordingModule{id: "a", log: &log}
	b := &recordingModule{id: "b", deps: []string{"a"}, log: &log}

	require.NoError(t, e.RegisterModule(a))
	require.NoError(t, e.RegisterModule(b))
	require.NoError(t, e.Start())

	log = nil
	require.NoError(t, e.Shutdown())
	assert.Equal(t, []string{"b.shutdown", "a.shutdown"}, log)

	log = nil
	require.NoError(t, e.Shutdown())
	assert.Empty(t, log, "a second Shutdown must be a no-op: each module's shutdown runs exactly once")
}

func TestEngineResourcesInsertAndGet(t *testing.T) {
	e := New(16)

	type marker struct{ N int }

	writer := &recordingModule{id: "writer", log: &[]string{}}
	require.NoError(t, e.RegisterModule(writer))
	resources.Insert(e.Resources(), marker{N: 42})

	got, ok := resources.Get[marker](e.Resources())
	require.True(t, ok)
	assert.Equal(t, 42, got.N)
}

func TestDispatchExternalEventReachesModulesInOrder(t *testing.T) {
	e := New(16)
	var received []string
	m := &dispatchModule{id: "a", received: &received}
	require.NoError(t, e.RegisterModule(m))
	require.NoError(t, e.Start())

	require.NoError(t, e.DispatchExternalEvent("ping"))
	assert.Equal(t, []string{"ping"}, received)
}

type dispatchModule struct {
	module.Base
	id       string
	received *[]string
}

func (m *dispatchModule) ID() string { return m.id }
func (m *dispatchModule) OnExternalEvent(ctx *module.Ctx, event any) error {
	*m.received = append(*m.received, event.(string))
	return nil
}

func TestAssetPumpBudgetIsConfigurable(t *testing.T) {
	e := New(16)
	e.SetAssetPumpBudget(128)
	require.NoError(t, e.Start())

	_, err := e.Step()
	require.NoError(t, err)
}
