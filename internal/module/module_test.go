package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModule struct {
	Base
	id   string
	deps []string
}

func (m *stubModule) ID() string             { return m.id }
func (m *stubModule) Dependencies() []string { return m.deps }

func ids(modules []Module) []string {
	out := make([]string, len(modules))
	for i, m := range modules {
		out[i] = m.ID()
	}
	return out
}

func TestTopoSortOrdersByDependency(t *testing.T) {
	a := &stubModule{id: "a"}
	b := &stubModule{id: "b", deps: []string{"a"}}
	c := &stubModule{id: "c", deps: []string{"b"}}

	out, err := TopoSort([]Module{c, b, a})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(out))
}

func TestTopoSortTiebreaksByInsertionOrder(t *testing.T) {
	a := &stubModule{id: "a"}
	b := &stubModule{id: "b"}
	c := &stubModule{id: "c"}

	out, err := TopoSort([]Module{b, c, a})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(out), "modules with no ordering relationship must come out in registration order")
}

func TestTopoSortDeterministicAcrossRuns(t *testing.T) {
	build := func() []Module {
		return []Module{
			&stubModule{id: "render", deps: []string{"physics"}},
			&stubModule{id: "physics", deps: []string{"input"}},
			&stubModule{id: "input"},
			&stubModule{id: "audio", deps: []string{"input"}},
		}
	}

	first, err := TopoSort(build())
	require.NoError(t, err)
	second, err := TopoSort(build())
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, []string{"input", "physics", "render", "audio"}, ids(first))
}

func TestTopoSortDetectsCycle(t *testing.T) {
	a := &stubModule{id: "a", deps: []string{"b"}}
	b := &stubModule{id: "b", deps: []string{"a"}}

	_, err := TopoSort([]Module{a, b})
	require.Error(t, err)
}

func TestTopoSortRejectsUnknownDependency(t *testing.T) {
	a := &stubModule{id: "a", deps: []string{"ghost"}}
	_, err := TopoSort([]Module{a})
	require.Error(t, err)
}

func TestTopoSortRejectsDuplicateID(t *testing.T) {
	a := &stubModule{id: "a"}
	a2 := &stubModule{id: "a"}
	_, err := TopoSort([]Module{a, a2})
	require.Error(t, err)
}

func TestReversed(t *testing.T) {
	a := &stubModule{id: "a"}
	b := &stubModule{id: "b"}
	c := &stubModule{id: "c"}

	out := Reversed([]Module{a, b, c})
	assert.Equal(t, []string{"c", "b", "a"}, ids(out))
}

func TestCtxRequestExit(t *testing.T) {
	var exitRequested bool
	ctx := NewCtx(nil, nil, nil, &exitRequested)

	assert.Nil(t, ctx.Frame())
	ctx.RequestExit()
	assert.True(t, exitRequested)
}

func TestCtxWithFrameDoesNotMutateOriginal(t *testing.T) {
	var exitRequested bool
	base := NewCtx(nil, nil, nil, &exitRequested)
	framed := base.WithFrame(&Frame{FrameIndex: 7})

	assert.Nil(t, base.Frame())
	require.NotNil(t, framed.Frame())
	assert.Equal(t, uint64(7), framed.Frame().FrameIndex)
}
