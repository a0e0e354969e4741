package web

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterStore holds one token bucket per client and forgets idle clients.
type limiterStore struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LimiterState is the rate limiter as shown at /debug/state.
type LimiterState struct {
	RPS     float64 `json:"rps"`
	Burst   int     `json:"burst"`
	Clients int     `json:"clients"`
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	if burst < 1 {
		burst = 1
	}
	return &limiterStore{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *limiterStore) cleanup(now time.Time) {
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// startJanitor removes idle clients periodically until ctx is done.
func (s *limiterStore) startJanitor(ctx context.Context) {
	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				s.cleanup(now)
			}
		}
	}()
}

// State implements introspection.Introspectable.
func (s *limiterStore) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LimiterState{RPS: float64(s.rps), Burst: s.burst, Clients: len(s.entries)}
}

// rateLimitMessage is shown to clients over their budget.
const rateLimitMessage = "Too many requests, slow down"

// rateLimit sets Retry-After and hands requests over the client's budget to
// reject, which must abort the chain.
func rateLimit(store *limiterStore, reject gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := store.get(c.ClientIP())
		r := lim.Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			reject(c)
			return
		}
		c.Next()
	}
}
