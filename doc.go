// Package cashier connects a FastSpring store to an application.
//
// Setup builds a Service that verifies and fans out webhook events and starts
// subscription checkout sessions:
//
//	service, err := cashier.Setup(core.Config{}, cashier.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	unsubscribe, err := service.Subscribe("OrderCompleted", onOrderCompleted)
//	router.Post("/fastspring/webhook", service.WebhookHandler().ServeHTTP)
//
//	session, err := service.NewSubscription(owner, "main", "pro-monthly").
//		Quantity(2).
//		WithCoupon("SAVE10").
//		Create(ctx)
//
// Facade exposes the same operations as go-command handlers.
package cashier
