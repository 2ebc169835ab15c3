package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tradexinvest/tradex/internal/logging"
)

const defaultRetryBase = 200 * time.Millisecond

// RetryingSender retries a Sender with exponential backoff. Each attempt
// gets its own timeout. Delivery continues even if the caller's context is
// cancelled, so a committed change still gets its email.
type RetryingSender struct {
	next     Sender
	attempts int
	base     time.Duration
	timeout  time.Duration
	log      logging.Logger
}

func NewRetryingSender(next Sender, attempts int, timeout time.Duration, log logging.Logger) *RetryingSender {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingSender{next: next, attempts: attempts, base: defaultRetryBase, timeout: timeout, log: log}
}

func (s *RetryingSender) Send(ctx context.Context, msg Message) error {
	ctx = context.WithoutCancel(ctx)
	backoff := retry.WithMaxRetries(uint64(s.attempts-1), retry.NewExponential(s.base))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		actx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		if err := s.next.Send(actx, msg); err != nil {
			s.log.Warn(ctx, "mail attempt failed", "to", msg.To, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return nil
}
