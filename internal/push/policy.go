package push

import (
	"context"
	"time"
)

// DefaultRetryDelay matches the storefront backend's client reconnect delay.
const DefaultRetryDelay = 3 * time.Second

// ReconnectPolicy retries forever with a fixed delay while subscribers remain.
type ReconnectPolicy struct {
	Delay time.Duration
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{Delay: DefaultRetryDelay}
}

// Wait blocks for the policy delay or until ctx is done.
func (p ReconnectPolicy) Wait(ctx context.Context) error {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
