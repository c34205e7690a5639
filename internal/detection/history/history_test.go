package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/okieraised/fatigue-agent/internal/detection/alert"
	"github.com/okieraised/fatigue-agent/internal/infrastructure/local_cache"
	"github.com/stretchr/testify/assert"
)

func eventWithID(id string, level alert.Level) *alert.Event {
	return &alert.Event{ID: id, Level: level, Timestamp: time.Now()}
}

func TestStoreRecentNewestFirst(t *testing.T) {
	assert.NoError(t, local_cache.NewLocalCache())
	s := NewStore(8)

	for i := 1; i <= 3; i++ {
		s.Add(eventWithID(fmt.Sprintf("ev-%d", i), alert.LevelLow))
	}

	recent := s.Recent(0)
	if assert.Len(t, recent, 3) {
		assert.Equal(t, "ev-3", recent[0].ID)
		assert.Equal(t, "ev-2", recent[1].ID)
		assert.Equal(t, "ev-1", recent[2].ID)
	}

	limited := s.Recent(2)
	if assert.Len(t, limited, 2) {
		assert.Equal(t, "ev-3", limited[0].ID)
	}
}

func TestStoreRingWrapsAround(t *testing.T) {
	assert.NoError(t, local_cache.NewLocalCache())
	s := NewStore(4)

	for i := 1; i <= 6; i++ {
		s.Add(eventWithID(fmt.Sprintf("ev-%d", i), alert.LevelMedium))
	}

	recent := s.Recent(10)
	if assert.Len(t, recent, 4) {
		assert.Equal(t, "ev-6", recent[0].ID)
		assert.Equal(t, "ev-3", recent[3].ID)
	}
}

func TestStoreGetByID(t *testing.T) {
	assert.NoError(t, local_cache.NewLocalCache())
	s := NewStore(4)

	ev := eventWithID("ev-lookup", alert.LevelHigh)
	s.Add(ev)
	time.Sleep(50 * time.Millisecond) // cache admission is asynchronous

	got, ok := s.Get("ev-lookup")
	assert.True(t, ok)
	assert.Equal(t, ev, got)

	_, ok = s.Get("ev-absent")
	assert.False(t, ok)
}

func TestStoreIgnoresNilEvents(t *testing.T) {
	assert.NoError(t, local_cache.NewLocalCache())
	s := NewStore(4)
	s.Add(nil)
	assert.Empty(t, s.Recent(0))
}
