package chaos

import (
	"context"
	"time"
)

// DefaultDelay is the simulated latency of a delete.
const DefaultDelay = 2 * time.Second

// Latency simulates a slow backend.
type Latency interface {
	// Wait blocks for the simulated latency or until ctx is done.
	Wait(ctx context.Context) error
}

// FixedDelay waits for the same duration on every call.
type FixedDelay time.Duration

func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelay returns immediately.
func NoDelay() Latency { return FixedDelay(0) }
