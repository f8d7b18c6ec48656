// Package gojob moves notification delivery onto a go-job queue.
//
// It is opt-in. cashier.Setup publishes synchronously on the in-process bus
// and never constructs anything from this package. A host that wants queued
// delivery passes a QueuePublisher through cashier.WithPublisher and runs a
// Deliverer against the same queue, which then publishes each dequeued
// notification to the host's own publisher. RetryPolicy only bounds the
// Deliverer's nack behaviour; the webhook response never waits on it.
package gojob
