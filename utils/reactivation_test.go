package utils

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(delay time.Duration) *ReactivationScheduler {
	return &ReactivationScheduler{
		pending: make(map[string]*time.Timer),
		delay:   delay,
	}
}

func TestScheduleFiresAfterDelay(t *testing.T) {
	s := newTestScheduler(10 * time.Millisecond)

	done := make(chan string, 1)
	ok := s.Schedule("user-1", func(id string) { done <- id })
	require.True(t, ok)
	assert.True(t, s.Pending("user-1"))

	select {
	case id := <-done:
		assert.Equal(t, "user-1", id)
	case <-time.After(time.Second):
		t.Fatal("reactivation never fired")
	}

	assert.Eventually(t, func() bool { return !s.Pending("user-1") },
		time.Second, 5*time.Millisecond)
}

func TestScheduleIsIdempotentPerUser(t *testing.T) {
	s := newTestScheduler(20 * time.Millisecond)

	var calls int32
	reactivate := func(string) { atomic.AddInt32(&calls, 1) }

	assert.True(t, s.Schedule("user-1", reactivate))
	assert.False(t, s.Schedule("user-1", reactivate))
	assert.False(t, s.Schedule("user-1", reactivate))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1 && !s.Pending("user-1")
	}, time.Second, 5*time.Millisecond)

	// once fired the user can be scheduled again
	assert.True(t, s.Schedule("user-1", reactivate))
}

func TestScheduleTracksUsersIndependently(t *testing.T) {
	s := newTestScheduler(time.Minute)

	assert.True(t, s.Schedule("user-1", func(string) {}))
	assert.True(t, s.Schedule("user-2", func(string) {}))
	assert.True(t, s.Pending("user-1"))
	assert.True(t, s.Pending("user-2"))
	assert.False(t, s.Pending("user-3"))
}

func TestReactivationDelayDefault(t *testing.T) {
	t.Setenv("REACTIVATION_DELAY_SECONDS", "")
	assert.Equal(t, 60*time.Second, ReactivationDelay())

	t.Setenv("REACTIVATION_DELAY_SECONDS", "5")
	assert.Equal(t, 5*time.Second, ReactivationDelay())
}
