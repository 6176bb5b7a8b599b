package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathQueueDrainsInOrderUpToHorizon(t *testing.T) {
	q := NewPathQueue()
	require.False(t, q.Push(PathEvent{Kind: PathStart, AtMs: 10}))
	require.False(t, q.Push(PathEvent{Kind: PathUpdate, AtMs: 25}))
	require.False(t, q.Push(PathEvent{Kind: PathUpdate, AtMs: 50}))

	drained := q.DrainUntil(32)
	require.Len(t, drained, 2)
	assert.Equal(t, PathStart, drained[0].Kind)
	assert.Equal(t, PathUpdate, drained[1].Kind)
	assert.Equal(t, 1, q.Len())

	rest := q.DrainUntil(64)
	require.Len(t, rest, 1)
	assert.Equal(t, 0, q.Len())
}

func TestPathQueueOverflowReportsDesync(t *testing.T) {
	q := NewPathQueue()
	for i := 0; i < pathQueueCapacity; i++ {
		require.False(t, q.Push(PathEvent{AtMs: int64(i)}))
	}
	assert.True(t, q.Push(PathEvent{AtMs: 999}), "ninth push should overflow the bounded queue")

	q.Reset()
	assert.Equal(t, 0, q.Len())
}
