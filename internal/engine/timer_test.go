package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerQueueFiresInOrder(t *testing.T) {
	q := NewTimerQueue()
	var order []int
	q.Schedule(30, func(int64) { order = append(order, 3) })
	q.Schedule(10, func(int64) { order = append(order, 1) })
	q.Schedule(20, func(int64) { order = append(order, 2) })

	q.PopDue(25)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, q.Len())

	q.PopDue(30)
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, q.Len())
}

func TestTimerQueueCancel(t *testing.T) {
	q := NewTimerQueue()
	fired := false
	id := q.Schedule(10, func(int64) { fired = true })
	q.Cancel(id)
	q.PopDue(100)
	assert.False(t, fired)
}

func TestTimerQueueNextFireAt(t *testing.T) {
	q := NewTimerQueue()
	_, ok := q.NextFireAt()
	assert.False(t, ok)

	q.Schedule(50, func(int64) {})
	at, ok := q.NextFireAt()
	require.True(t, ok)
	assert.Equal(t, int64(50), at)
}
