package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-cashier-fastspring/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const (
	JobIDNotificationDeliver  = "cashier.notification.deliver"
	ScriptNotificationDeliver = "cashier.notification.deliver"
)

// RetryPolicy bounds redelivery of notifications that failed to publish.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// ToExecutionMessage encodes a notification as a go-job execution message
// keyed by variant and event id.
func ToExecutionMessage(notification core.Notification) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      JobIDNotificationDeliver,
		ScriptPath: ScriptNotificationDeliver,
		Parameters: map[string]any{
			"kind":      notification.Kind,
			"id":        notification.ID,
			"type":      notification.Type,
			"live":      notification.Live,
			"processed": notification.Processed,
			"created":   notification.Created.String(),
			"data":      string(notification.Data),
		},
		IdempotencyKey: notification.Kind + ":" + notification.ID,
	}
}

// FromExecutionMessage rebuilds the notification carried by msg.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.Notification, error) {
	if msg == nil {
		return core.Notification{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDNotificationDeliver {
		return core.Notification{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	params := msg.Parameters
	notification := core.Notification{
		Kind:      stringParam(params, "kind"),
		ID:        stringParam(params, "id"),
		Type:      stringParam(params, "type"),
		Live:      boolParam(params, "live"),
		Processed: boolParam(params, "processed"),
		Created:   json.Number(stringParam(params, "created")),
	}
	if data := stringParam(params, "data"); data != "" {
		notification.Data = json.RawMessage(data)
	}
	if notification.Kind == "" {
		return core.Notification{}, fmt.Errorf("gojob: notification kind is required")
	}
	return notification, nil
}

// QueuePublisher implements core.Publisher by enqueueing notifications for
// out-of-band delivery.
type QueuePublisher struct {
	enqueuer queue.Enqueuer
}

func NewQueuePublisher(enqueuer queue.Enqueuer) *QueuePublisher {
	return &QueuePublisher{enqueuer: enqueuer}
}

func (p *QueuePublisher) Publish(ctx context.Context, notification core.Notification) error {
	if p == nil || p.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	return p.enqueuer.Enqueue(ctx, ToExecutionMessage(notification))
}

// Deliverer drains queued notifications into a publisher, typically the
// in-process bus.
type Deliverer struct {
	dequeuer  queue.Dequeuer
	publisher core.Publisher
	policy    RetryPolicy
	hook      worker.Hook
	now       func() time.Time

	mu       sync.Mutex
	attempts map[string]int
}

func NewDeliverer(dequeuer queue.Dequeuer, publisher core.Publisher, policy RetryPolicy) *Deliverer {
	return &Deliverer{
		dequeuer:  dequeuer,
		publisher: publisher,
		policy:    policy,
		attempts:  map[string]int{},
	}
}

// WithHook reports each delivery attempt to hook.
func (d *Deliverer) WithHook(hook worker.Hook) *Deliverer {
	if d != nil {
		d.hook = hook
	}
	return d
}

// DeliverNext dequeues one message and publishes it. Publish failures nack
// the delivery under the retry policy and are returned to the caller.
func (d *Deliverer) DeliverNext(ctx context.Context) error {
	if d == nil || d.dequeuer == nil || d.publisher == nil {
		return fmt.Errorf("gojob: deliverer is not configured")
	}
	delivery, err := d.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	if delivery == nil {
		return nil
	}
	msg := delivery.Message()
	key := ""
	if msg != nil {
		key = msg.IdempotencyKey
	}
	attempt := d.nextAttempt(key)
	started := d.clock()
	event := worker.Event{Message: msg, Delivery: delivery, Attempt: attempt, StartedAt: started}
	d.onStart(ctx, event)

	notification, err := FromExecutionMessage(msg)
	if err != nil {
		event.Err = err
		event.Duration = d.clock().Sub(started)
		d.onFailure(ctx, event)
		d.forget(key)
		return delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: err.Error()})
	}

	if err := d.publisher.Publish(ctx, notification); err != nil {
		opts := d.policy.NormalizeAttempt(queue.NackOptions{Requeue: true, Reason: err.Error()}, attempt)
		event.Err = err
		event.Delay = opts.Delay
		event.Duration = d.clock().Sub(started)
		if opts.Requeue {
			d.onRetry(ctx, event)
		} else {
			d.onFailure(ctx, event)
			d.forget(key)
		}
		if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
			return nackErr
		}
		return err
	}

	d.forget(key)
	event.Duration = d.clock().Sub(started)
	d.onSuccess(ctx, event)
	return delivery.Ack(ctx)
}

func (d *Deliverer) nextAttempt(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts[key]++
	return d.attempts[key]
}

func (d *Deliverer) forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.attempts, key)
}

func (d *Deliverer) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now().UTC()
}

func (d *Deliverer) onStart(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnStart(ctx, event)
	}
}

func (d *Deliverer) onSuccess(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnSuccess(ctx, event)
	}
}

func (d *Deliverer) onFailure(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnFailure(ctx, event)
	}
}

func (d *Deliverer) onRetry(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnRetry(ctx, event)
	}
}

// ObserverHook logs worker lifecycle events through a core.Observer.
type ObserverHook struct {
	Observer core.Observer
}

func (h ObserverHook) OnStart(ctx context.Context, event worker.Event) {
	h.Observer.Debug(ctx, "cashier.notification.delivery.start", eventFields(event))
}

func (h ObserverHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.Observer.Debug(ctx, "cashier.notification.delivery.success", eventFields(event))
}

func (h ObserverHook) OnFailure(ctx context.Context, event worker.Event) {
	h.Observer.Error(ctx, "cashier.notification.delivery.failed", core.ErrorFields(event.Err, eventFields(event)))
}

func (h ObserverHook) OnRetry(ctx context.Context, event worker.Event) {
	h.Observer.Warn(ctx, "cashier.notification.delivery.retry", core.ErrorFields(event.Err, eventFields(event)))
}

func eventFields(event worker.Event) map[string]any {
	fields := map[string]any{
		"attempt":     event.Attempt,
		"duration_ms": event.Duration.Milliseconds(),
	}
	if event.Delay > 0 {
		fields["delay_ms"] = event.Delay.Milliseconds()
	}
	if event.Message != nil {
		fields["job_id"] = event.Message.JobID
		fields["idempotency_key"] = event.Message.IdempotencyKey
	}
	return fields
}

func stringParam(params map[string]any, key string) string {
	switch value := params[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case json.Number:
		return value.String()
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func boolParam(params map[string]any, key string) bool {
	switch value := params[key].(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(strings.TrimSpace(value), "true")
	default:
		return false
	}
}

var (
	_ core.Publisher = (*QueuePublisher)(nil)
	_ worker.Hook    = ObserverHook{}
)
