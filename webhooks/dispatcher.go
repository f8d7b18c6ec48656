package webhooks

import (
	"context"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// Dispatcher publishes the universal, category and activity notifications
// for one classified event, in that order.
type Dispatcher struct {
	Publisher core.Publisher
}

func NewDispatcher(publisher core.Publisher) *Dispatcher {
	return &Dispatcher{Publisher: publisher}
}

// Dispatch stops at the first publish failure and reports it as a
// DispatchFailure for the event.
func (d *Dispatcher) Dispatch(ctx context.Context, event core.RawEvent, classification core.Classification) error {
	if d == nil || d.Publisher == nil {
		return core.DispatchFailure(
			core.InternalError("webhooks: dispatcher requires a publisher", nil),
			core.EventKindAny,
			event.ID,
		)
	}
	for _, kind := range classification.Kinds() {
		if err := d.Publisher.Publish(ctx, core.NewNotification(kind, event)); err != nil {
			return core.DispatchFailure(err, kind, event.ID)
		}
	}
	return nil
}
