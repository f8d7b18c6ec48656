package webhooks

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-cashier-fastspring/core"
)

func TestDispatcher_PublishesThreeKindsInOrder(t *testing.T) {
	publisher := &recordingPublisher{}
	dispatcher := NewDispatcher(publisher)
	event := core.RawEvent{ID: "evt_1", Type: "order.completed"}
	classification := core.Classification{EventType: "order.completed", Category: "OrderAny", Activity: "OrderCompleted"}

	if err := dispatcher.Dispatch(context.Background(), event, classification); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	got := publisher.kinds()
	want := []string{"evt_1:Any", "evt_1:OrderAny", "evt_1:OrderCompleted"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDispatcher_StopsAtFirstFailure(t *testing.T) {
	publisher := &recordingPublisher{failKind: "OrderAny"}
	dispatcher := NewDispatcher(publisher)
	err := dispatcher.Dispatch(context.Background(), core.RawEvent{ID: "evt_1", Type: "order.completed"},
		core.Classification{Category: "OrderAny", Activity: "OrderCompleted"})
	if !core.HasTextCode(err, core.ErrorDispatchFailed) {
		t.Fatalf("expected dispatch failure, got %v", err)
	}
	if len(publisher.notifications) != 1 {
		t.Fatalf("expected publishing to stop after failure, got %d", len(publisher.notifications))
	}
}

func TestDispatcher_RequiresPublisher(t *testing.T) {
	err := NewDispatcher(nil).Dispatch(context.Background(), core.RawEvent{ID: "evt_1"}, core.Classification{})
	if err == nil {
		t.Fatalf("expected error without publisher")
	}
	sentinel := errors.New("sentinel")
	err = NewDispatcher(core.PublisherFunc(func(context.Context, core.Notification) error { return sentinel })).
		Dispatch(context.Background(), core.RawEvent{ID: "evt_1"}, core.Classification{Category: "OrderAny", Activity: "OrderCompleted"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}
