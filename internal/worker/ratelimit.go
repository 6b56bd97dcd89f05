package worker

import (
	"context"
	"fmt"
	"time"
)

// pacer enforces a minimum delay between successive classification calls.
// This is a scheduling courtesy toward the remote service's rate limits,
// not a correctness requirement.
type pacer struct {
	minDelay time.Duration
	lastCall time.Time
}

func newPacer(minDelay time.Duration) *pacer {
	return &pacer{minDelay: minDelay}
}

// wait blocks until enough time has passed since the last recorded call.
// Returns an error only if the context is cancelled while waiting.
func (p *pacer) wait(ctx context.Context) error {
	if p.minDelay <= 0 || p.lastCall.IsZero() {
		return nil
	}

	elapsed := time.Since(p.lastCall)
	if elapsed >= p.minDelay {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("inter-call delay: %w", ctx.Err())
	case <-time.After(p.minDelay - elapsed):
	}
	return nil
}

// record marks the time of the call just issued.
func (p *pacer) record() {
	p.lastCall = time.Now()
}
