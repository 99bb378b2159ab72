package utils

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

// ReactivationScheduler flips deactivated accounts back to active after
// a fixed delay. Scheduling is keyed by user id and idempotent: while a
// reactivation is pending, further Schedule calls for the same user are
// no-ops. Pending entries live in process memory only; a restart drops
// them and the next login attempt schedules again.
type ReactivationScheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	delay   time.Duration
}

func NewReactivationScheduler() *ReactivationScheduler {
	return &ReactivationScheduler{
		pending: make(map[string]*time.Timer),
		delay:   ReactivationDelay(),
	}
}

func ReactivationDelay() time.Duration {
	secs, _ := strconv.Atoi(os.Getenv("REACTIVATION_DELAY_SECONDS"))
	if secs <= 0 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}

// Schedule queues the delayed reactivation and returns true, or returns
// false when one is already pending for that user.
func (s *ReactivationScheduler) Schedule(userID string, reactivate func(userID string)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[userID]; exists {
		return false
	}

	s.pending[userID] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.pending, userID)
		s.mu.Unlock()

		reactivate(userID)
		log.Printf("user %s account reactivated", userID)
	})
	return true
}

// Pending reports whether a reactivation is queued for the user.
func (s *ReactivationScheduler) Pending(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[userID]
	return ok
}

// Delay exposes the configured reactivation delay.
func (s *ReactivationScheduler) Delay() time.Duration { return s.delay }
