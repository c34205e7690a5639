package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueFIFO(t *testing.T) {
	q := newQueue[int](4)

	assert.Equal(t, 0, q.push(1))
	assert.Equal(t, 0, q.push(2))
	assert.Equal(t, 2, q.len())

	v, ok := q.pop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.pop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, uint64(0), q.drops())
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := newQueue[int](2)

	q.push(1)
	q.push(2)
	assert.Equal(t, 1, q.push(3))
	assert.Equal(t, uint64(1), q.drops())

	// The oldest item made room for the newest.
	v, _ := q.pop()
	assert.Equal(t, 2, v)
	v, _ = q.pop()
	assert.Equal(t, 3, v)
}

func TestQueueCloseDrainsRemainingItems(t *testing.T) {
	q := newQueue[string](4)
	q.push("a")
	q.push("b")
	q.close()

	// Push after close is a no-op.
	assert.Equal(t, 0, q.push("c"))

	v, ok := q.pop()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	v, ok = q.pop()
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = q.pop()
	assert.False(t, ok)
}

func TestQueueCloseWakesBlockedConsumer(t *testing.T) {
	q := newQueue[int](1)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer still blocked after close")
	}
}

func TestQueueMinimumCapacity(t *testing.T) {
	q := newQueue[int](0)
	q.push(1)
	assert.Equal(t, 1, q.push(2))
	v, ok := q.pop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
