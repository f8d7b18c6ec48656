package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-cashier-fastspring/adapters/gocommand"
	"github.com/goliatone/go-cashier-fastspring/core"
)

const TypeNotification = "cashier.fastspring.notification"

// NotificationMessage carries a notification through the go-command
// dispatcher. Subscribe with gocommand.SubscribeCommandFunc and switch on
// Notification.Kind.
type NotificationMessage struct {
	Notification core.Notification
}

func (NotificationMessage) Type() string { return TypeNotification }

func (m NotificationMessage) Validate() error {
	if strings.TrimSpace(m.Notification.Kind) == "" {
		return fmt.Errorf("events: notification kind is required")
	}
	return nil
}

// CommandBus publishes notifications on the process-wide go-command
// dispatcher.
type CommandBus struct{}

func NewCommandBus() CommandBus {
	return CommandBus{}
}

func (CommandBus) Publish(ctx context.Context, notification core.Notification) error {
	msg := NotificationMessage{Notification: notification}
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		return err
	}
	return gocommand.Dispatch(ctx, msg)
}

// KindFilter wraps handler so that it only sees notifications of the given
// kinds.
func KindFilter(handler func(ctx context.Context, notification core.Notification) error, kinds ...string) func(context.Context, NotificationMessage) error {
	allowed := make(map[string]struct{}, len(kinds))
	for _, kind := range kinds {
		allowed[strings.TrimSpace(kind)] = struct{}{}
	}
	return func(ctx context.Context, msg NotificationMessage) error {
		if len(allowed) > 0 {
			if _, ok := allowed[msg.Notification.Kind]; !ok {
				return nil
			}
		}
		return handler(ctx, msg.Notification)
	}
}

var _ core.Publisher = CommandBus{}
