package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/subscription"
)

// SubscriptionService starts subscription builders for an owner.
type SubscriptionService interface {
	NewSubscription(owner core.Customer, name string, plan string) *subscription.Builder
}

type WebhookProcessor interface {
	Process(ctx context.Context, req core.InboundRequest) (core.Acknowledgment, error)
}

type CreateSessionCommand struct {
	customers     core.CustomerStore
	subscriptions SubscriptionService
}

func NewCreateSessionCommand(customers core.CustomerStore, subscriptions SubscriptionService) *CreateSessionCommand {
	return &CreateSessionCommand{customers: customers, subscriptions: subscriptions}
}

func (c *CreateSessionCommand) Execute(ctx context.Context, msg CreateSessionMessage) error {
	if c == nil || c.customers == nil || c.subscriptions == nil {
		return commandDependencyError("command: customer store and subscription service are required")
	}
	owner, err := c.customers.Get(ctx, msg.OwnerID)
	if err != nil {
		return err
	}

	builder := c.subscriptions.NewSubscription(owner, msg.Name, msg.Plan)
	if msg.Quantity > 0 {
		builder.Quantity(msg.Quantity)
	}
	if msg.Coupon != "" {
		builder.WithCoupon(msg.Coupon)
	}
	if !msg.Contact.IsZero() {
		builder.WithContact(msg.Contact)
	}
	for _, override := range msg.Overrides {
		builder.Payload(override)
	}

	session, err := builder.Create(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, session)
	return nil
}

type ProcessWebhookCommand struct {
	processor WebhookProcessor
}

func NewProcessWebhookCommand(processor WebhookProcessor) *ProcessWebhookCommand {
	return &ProcessWebhookCommand{processor: processor}
}

func (c *ProcessWebhookCommand) Execute(ctx context.Context, msg ProcessWebhookMessage) error {
	if c == nil || c.processor == nil {
		return commandDependencyError("command: webhook processor is required")
	}
	ack, err := c.processor.Process(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, ack)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
