package gojob

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-cashier-fastspring/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

func TestExecutionMessageCarriesNotification(t *testing.T) {
	original := core.Notification{
		Kind:      "OrderCompleted",
		ID:        "evt_1",
		Type:      "order.completed",
		Live:      true,
		Processed: false,
		Created:   json.Number("1700000000000"),
		Data:      json.RawMessage(`{"order":"o_1"}`),
	}

	msg := ToExecutionMessage(original)
	if msg.JobID != JobIDNotificationDeliver {
		t.Fatalf("unexpected job id %q", msg.JobID)
	}
	if msg.IdempotencyKey != "OrderCompleted:evt_1" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}

	decoded, err := FromExecutionMessage(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Kind != original.Kind || decoded.ID != original.ID || decoded.Type != original.Type {
		t.Fatalf("unexpected notification %#v", decoded)
	}
	if !decoded.Live || decoded.Created != original.Created || string(decoded.Data) != string(original.Data) {
		t.Fatalf("expected event fields to survive, got %#v", decoded)
	}
}

func TestFromExecutionMessageRejectsForeignJobs(t *testing.T) {
	if _, err := FromExecutionMessage(nil); err == nil {
		t.Fatalf("expected nil message error")
	}
	if _, err := FromExecutionMessage(&job.ExecutionMessage{JobID: "other.job"}); err == nil {
		t.Fatalf("expected job id error")
	}
}

func TestQueuePublisherEnqueues(t *testing.T) {
	enqueuer := &stubQueueEnqueuer{}
	publisher := NewQueuePublisher(enqueuer)
	if err := publisher.Publish(context.Background(), core.Notification{Kind: "Any", ID: "evt_1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.IdempotencyKey != "Any:evt_1" {
		t.Fatalf("expected enqueued message, got %#v", enqueuer.last)
	}

	var missing *QueuePublisher
	if err := missing.Publish(context.Background(), core.Notification{Kind: "Any"}); err == nil {
		t.Fatalf("expected unconfigured publisher error")
	}
}

func TestDelivererPublishesAndAcks(t *testing.T) {
	delivery := &stubQueueDelivery{msg: ToExecutionMessage(core.Notification{Kind: "Order", ID: "evt_1"})}
	var published []core.Notification
	publisher := core.PublisherFunc(func(_ context.Context, notification core.Notification) error {
		published = append(published, notification)
		return nil
	})
	hook := &capturingHook{}
	deliverer := NewDeliverer(&stubQueueDequeuer{delivery: delivery}, publisher, RetryPolicy{}).WithHook(hook)

	if err := deliverer.DeliverNext(context.Background()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !delivery.acked {
		t.Fatalf("expected ack")
	}
	if len(published) != 1 || published[0].Kind != "Order" {
		t.Fatalf("unexpected published notifications %#v", published)
	}
	if hook.starts != 1 || hook.successes != 1 {
		t.Fatalf("unexpected hook calls %#v", hook)
	}
}

func TestDelivererNacksUnderRetryPolicy(t *testing.T) {
	failure := errors.New("subscriber down")
	delivery := &stubQueueDelivery{msg: ToExecutionMessage(core.Notification{Kind: "Order", ID: "evt_1"})}
	publisher := core.PublisherFunc(func(context.Context, core.Notification) error { return failure })
	hook := &capturingHook{}
	deliverer := NewDeliverer(&stubQueueDequeuer{delivery: delivery}, publisher, RetryPolicy{
		MaxAttempts:     2,
		DeadLetterOnMax: true,
	}).WithHook(hook)

	if err := deliverer.DeliverNext(context.Background()); !errors.Is(err, failure) {
		t.Fatalf("expected publish failure, got %v", err)
	}
	if !delivery.nackOpts.Requeue || delivery.nackOpts.Reason != "subscriber down" {
		t.Fatalf("expected requeue on first attempt, got %#v", delivery.nackOpts)
	}
	if hook.retries != 1 || hook.last.Attempt != 1 {
		t.Fatalf("expected retry hook for attempt 1, got %#v", hook)
	}

	if err := deliverer.DeliverNext(context.Background()); !errors.Is(err, failure) {
		t.Fatalf("expected publish failure, got %v", err)
	}
	if delivery.nackOpts.Requeue || !delivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter on max attempts, got %#v", delivery.nackOpts)
	}
	if hook.failures != 1 || hook.last.Attempt != 2 {
		t.Fatalf("expected failure hook for attempt 2, got %#v", hook)
	}
}

func TestDelivererDeadLettersUndecodableMessages(t *testing.T) {
	delivery := &stubQueueDelivery{msg: &job.ExecutionMessage{JobID: "other.job"}}
	publisher := core.PublisherFunc(func(context.Context, core.Notification) error {
		t.Fatalf("publisher must not be called")
		return nil
	})
	deliverer := NewDeliverer(&stubQueueDequeuer{delivery: delivery}, publisher, RetryPolicy{})
	if err := deliverer.DeliverNext(context.Background()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !delivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter, got %#v", delivery.nackOpts)
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, MaxDelay: 10 * time.Second, DeadLetterOnMax: true}

	opts := policy.NormalizeAttempt(queue.NackOptions{Delay: 30 * time.Second, Requeue: true, Reason: " transient "}, 1)
	if opts.Delay != 10*time.Second || !opts.Requeue || opts.Reason != "transient" {
		t.Fatalf("unexpected first attempt options %#v", opts)
	}

	opts = policy.NormalizeAttempt(queue.NackOptions{Delay: time.Second, Requeue: true}, 3)
	if opts.Requeue || !opts.DeadLetter {
		t.Fatalf("expected dead letter once max attempts is reached, got %#v", opts)
	}

	opts = RetryPolicy{}.NormalizeAttempt(queue.NackOptions{Delay: -time.Second}, 1)
	if opts.Delay != 0 || !opts.Requeue {
		t.Fatalf("expected defaults to requeue without delay, got %#v", opts)
	}
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

type capturingHook struct {
	starts    int
	successes int
	failures  int
	retries   int
	last      worker.Event
}

func (h *capturingHook) OnStart(_ context.Context, event worker.Event) {
	h.starts++
	h.last = event
}

func (h *capturingHook) OnSuccess(_ context.Context, event worker.Event) {
	h.successes++
	h.last = event
}

func (h *capturingHook) OnFailure(_ context.Context, event worker.Event) {
	h.failures++
	h.last = event
}

func (h *capturingHook) OnRetry(_ context.Context, event worker.Event) {
	h.retries++
	h.last = event
}
