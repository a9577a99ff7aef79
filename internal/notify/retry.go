package notify

import (
	"context"
	"errors"
	"net/textproto"
	"time"
)

// errPermanent marks failures that another delivery attempt cannot fix.
var errPermanent = errors.New("permanent delivery failure")

// RetryPolicy decides whether and when a failed email delivery is attempted again.
type RetryPolicy struct {
	Retries  int
	Delay    time.Duration
	MaxDelay time.Duration
}

// Backoff returns the wait before retry n (1-based). The delay doubles per retry up to MaxDelay.
func (p RetryPolicy) Backoff(n int) time.Duration {
	d := p.Delay
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Retryable reports whether err is worth another attempt. SMTP 5xx replies (unknown
// mailbox, rejected sender, policy blocks) are final; 4xx replies and network errors are not.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil || errors.Is(err, errPermanent) || errors.Is(err, context.Canceled) {
		return false
	}
	var reply *textproto.Error
	if errors.As(err, &reply) {
		return reply.Code < 500
	}
	return true
}
