package events

import (
	"context"
	"sync"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// Recorder captures every notification it is asked to publish.
type Recorder struct {
	mu            sync.Mutex
	notifications []core.Notification
}

func (r *Recorder) Publish(_ context.Context, notification core.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *Recorder) Notifications() []core.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Notification(nil), r.notifications...)
}

// Kinds returns the recorded kinds in publish order.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, 0, len(r.notifications))
	for _, notification := range r.notifications {
		kinds = append(kinds, notification.Kind)
	}
	return kinds
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notifications = nil
	r.mu.Unlock()
}

// Fanout publishes to every publisher in order, stopping at the first error.
type Fanout []core.Publisher

func (f Fanout) Publish(ctx context.Context, notification core.Notification) error {
	for _, publisher := range f {
		if publisher == nil {
			continue
		}
		if err := publisher.Publish(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ core.Publisher = (*Recorder)(nil)
	_ core.Publisher = Fanout(nil)
)
