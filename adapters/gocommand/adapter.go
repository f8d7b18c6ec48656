package gocommand

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// ValidateMessageContract checks that msg carries a non-empty Type() and
// passes its own Validate() hook when it has one.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return core.WrapBadInput(err, "gocommand: message rejected", nil)
	}
	typed, ok := msg.(command.Message)
	if !ok {
		return core.BadInputError("gocommand: message must implement Type() string", nil)
	}
	if strings.TrimSpace(typed.Type()) == "" {
		return core.BadInputError("gocommand: message type is required", nil)
	}
	return nil
}

// RegistryAdapter owns the go-command registry that cashier commands are
// registered against. Resolvers added before Initialize run once per command.
type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) configured() (*command.Registry, error) {
	if a == nil || a.registry == nil {
		return nil, core.InternalError("gocommand: registry is not configured", nil)
	}
	return a.registry, nil
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	registry, err := a.configured()
	if err != nil {
		return err
	}
	return registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	registry, err := a.configured()
	if err != nil {
		return err
	}
	return registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors every registered command into queueRegistry so a
// go-job worker can execute it outside the request path.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return core.BadInputError("gocommand: queue registry is required", map[string]any{"resolver": key})
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	registry, err := a.configured()
	if err != nil {
		return false
	}
	return registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	registry, err := a.configured()
	if err != nil {
		return err
	}
	return registry.Initialize()
}

// RegisterAndSubscribe subscribes cmd on the global dispatcher and registers
// it with the adapter. The subscription is dropped if registration fails.
func RegisterAndSubscribe[T any](adapter *RegistryAdapter, cmd command.Commander[T], opts ...runner.Option) (commanddispatcher.Subscription, error) {
	if _, err := adapter.configured(); err != nil {
		return nil, err
	}
	if cmd == nil {
		return nil, core.BadInputError("gocommand: command is required", nil)
	}
	sub := commanddispatcher.SubscribeCommand(cmd, opts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if sub != nil {
			sub.Unsubscribe()
		}
		return nil, err
	}
	return sub, nil
}

func SubscribeCommand[T any](cmd command.Commander[T], opts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, opts...)
}

func SubscribeCommandFunc[T any](fn command.CommandFunc[T], opts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(fn, opts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], opts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, opts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

// Subscriptions tracks dispatcher subscriptions owned by a facade.
type Subscriptions struct {
	mu   sync.Mutex
	subs []commanddispatcher.Subscription
}

func (s *Subscriptions) Add(sub commanddispatcher.Subscription) {
	if s == nil || sub == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

func (s *Subscriptions) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// UnsubscribeAll releases tracked subscriptions, newest first.
func (s *Subscriptions) UnsubscribeAll() {
	if s == nil {
		return
	}
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Unsubscribe()
	}
}
