package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterFiresOnceAfterDelay(t *testing.T) {
	s := New()
	var fired int
	s.After(100*time.Millisecond, func() { fired++ })

	s.Tick(50 * time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, s.Len())

	s.Tick(60 * time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, s.Len())

	s.Tick(time.Second)
	assert.Equal(t, 1, fired, "one-shot task must not fire twice")
}

func TestEveryFiresOncePerIntervalNoCatchUp(t *testing.T) {
	s := New()
	var fired int
	s.Every(100*time.Millisecond, func() { fired++ })

	s.Tick(350 * time.Millisecond)
	assert.Equal(t, 1, fired, "a long dt must not fire a recurring task more than once per Tick")
	require.Equal(t, 1, s.Len())

	s.Tick(100 * time.Millisecond)
	assert.Equal(t, 2, fired)
}

func TestCancelPreventsFiring(t *testing.T) {
	s := New()
	var fired int
	h := s.After(10*time.Millisecond, func() { fired++ })
	s.Cancel(h)

	s.Tick(100 * time.Millisecond)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 0, s.Len())
}

func TestCancelUnknownHandleIsNoOp(t *testing.T) {
	s := New()
	assert.NotPanics(t, func() { s.Cancel(Handle(9999)) })
}

func TestTickOnEmptySchedulerIsNoOp(t *testing.T) {
	s := New()
	assert.NotPanics(t, func() { s.Tick(time.Second) })
	assert.Equal(t, 0, s.Len())
}
