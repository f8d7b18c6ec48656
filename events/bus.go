package events

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// KindAny receives the universal notification published for every event.
const KindAny = core.EventKindAny

type Subscriber interface {
	Handle(ctx context.Context, notification core.Notification) error
}

type SubscriberFunc func(ctx context.Context, notification core.Notification) error

func (f SubscriberFunc) Handle(ctx context.Context, notification core.Notification) error {
	return f(ctx, notification)
}

type subscription struct {
	id         uint64
	subscriber Subscriber
}

// Bus is an in-process publisher keyed by notification kind. Subscribers run
// synchronously in registration order and the first error stops delivery.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	byKind map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{byKind: make(map[string][]subscription)}
}

// Subscribe registers subscriber for kind and returns a function that
// removes it again.
func (b *Bus) Subscribe(kind string, subscriber Subscriber) (func(), error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, fmt.Errorf("events: kind is required")
	}
	if subscriber == nil {
		return nil, fmt.Errorf("events: subscriber is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.byKind == nil {
		b.byKind = make(map[string][]subscription)
	}
	b.nextID++
	id := b.nextID
	b.byKind[kind] = append(b.byKind[kind], subscription{id: id, subscriber: subscriber})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(kind, id) })
	}, nil
}

func (b *Bus) unsubscribe(kind string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.byKind[kind]
	for i, sub := range current {
		if sub.id == id {
			b.byKind[kind] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
	if len(b.byKind[kind]) == 0 {
		delete(b.byKind, kind)
	}
}

func (b *Bus) Publish(ctx context.Context, notification core.Notification) error {
	b.mu.RLock()
	subs := append([]subscription(nil), b.byKind[notification.Kind]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		if err := sub.subscriber.Handle(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}

// Kinds lists the kinds that currently have subscribers.
func (b *Bus) Kinds() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	kinds := make([]string, 0, len(b.byKind))
	for kind := range b.byKind {
		kinds = append(kinds, kind)
	}
	return kinds
}

var _ core.Publisher = (*Bus)(nil)
