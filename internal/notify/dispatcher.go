package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultSendTimeout = 5 * time.Second

// Dispatcher fans each notification out to every notifier on its own goroutine.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &Dispatcher{notifiers: active, timeout: timeout}
}

func (d *Dispatcher) Send(ctx context.Context, n Notification) {
	if d == nil {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	logger := log.Ctx(ctx)
	for _, notifier := range d.notifiers {
		d.wg.Add(1)
		go func(notifier Notifier) {
			defer d.wg.Done()
			sendCtx, cancel := newSendContext(ctx, d.timeout)
			defer cancel()
			if err := notifier.Notify(sendCtx, n); err != nil {
				logger.Error().
					Err(err).
					Str("notifier", fmt.Sprintf("%T", notifier)).
					Str("type", string(n.Type)).
					Int64("user_id", n.UserID).
					Msg("Failed to deliver notification")
			}
		}(notifier)
	}
}

// Wait blocks until every in-flight delivery has returned.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
