package chaos

import (
	"math/rand/v2"
	"sync"
)

// DefaultFailureRate is the probability used when none is configured.
const DefaultFailureRate = 0.5

// FailureStrategy decides whether a single attempt should fail.
type FailureStrategy interface {
	ShouldFail() bool
}

// FailureFunc adapts a plain function to FailureStrategy.
type FailureFunc func() bool

func (f FailureFunc) ShouldFail() bool { return f() }

type constant bool

func (c constant) ShouldFail() bool { return bool(c) }

// Always fails every attempt.
func Always() FailureStrategy { return constant(true) }

// Never lets every attempt through.
func Never() FailureStrategy { return constant(false) }

// probability fails each attempt independently with probability p.
type probability struct {
	mu  sync.Mutex
	p   float64
	rng *rand.Rand
}

// Probability returns a strategy failing with probability p, clamped to [0, 1].
// A fixed seed makes the sequence reproducible.
func Probability(p float64, seed uint64) FailureStrategy {
	switch {
	case p <= 0:
		return Never()
	case p >= 1:
		return Always()
	}
	return &probability{
		p:   p,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *probability) ShouldFail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.p
}

// sequence replays a fixed pattern of outcomes, cycling when exhausted.
type sequence struct {
	mu       sync.Mutex
	outcomes []bool
	next     int
}

// Sequence returns a strategy replaying outcomes in order. An empty sequence never fails.
func Sequence(outcomes ...bool) FailureStrategy {
	if len(outcomes) == 0 {
		return Never()
	}
	return &sequence{outcomes: append([]bool(nil), outcomes...)}
}

func (s *sequence) ShouldFail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outcomes[s.next]
	s.next = (s.next + 1) % len(s.outcomes)
	return out
}
