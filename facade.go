package cashier

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-cashier-fastspring/adapters/gocommand"
	cashiercommand "github.com/goliatone/go-cashier-fastspring/command"
	"github.com/goliatone/go-cashier-fastspring/core"
	cashierquery "github.com/goliatone/go-cashier-fastspring/query"
)

type Commands struct {
	CreateSession  *cashiercommand.CreateSessionCommand
	ProcessWebhook *cashiercommand.ProcessWebhookCommand
}

type Queries struct {
	GetCustomer            *cashierquery.GetCustomerQuery
	ListRegisteredVariants *cashierquery.ListRegisteredVariantsQuery
}

// Facade exposes the service operations as go-command handlers.
type Facade struct {
	service  *Service
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	customers core.CustomerStore
}

// WithFacadeCustomerStore overrides the store used to look up owners.
func WithFacadeCustomerStore(store core.CustomerStore) FacadeOption {
	return func(options *facadeOptions) {
		options.customers = store
	}
}

func NewFacade(service *Service, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("cashier: service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	customers := cfg.customers
	if customers == nil {
		customers = service.Customers()
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateSession:  cashiercommand.NewCreateSessionCommand(customers, service),
		ProcessWebhook: cashiercommand.NewProcessWebhookCommand(service),
	}
	facade.queries = Queries{
		GetCustomer:            cashierquery.NewGetCustomerQuery(customers),
		ListRegisteredVariants: cashierquery.NewListRegisteredVariantsQuery(service.Registry()),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() *Service {
	if f == nil {
		return nil
	}
	return f.service
}

// Register subscribes every command and query on the go-command dispatcher
// and records the commands in the adapter's registry. The returned
// subscriptions must be released by the caller.
func (f *Facade) Register(adapter *gocommand.RegistryAdapter) (*gocommand.Subscriptions, error) {
	if f == nil {
		return nil, fmt.Errorf("cashier: facade is required")
	}
	subs := &gocommand.Subscriptions{}
	for _, register := range []func() (commanddispatcher.Subscription, error){
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe[cashiercommand.CreateSessionMessage](adapter, f.commands.CreateSession)
		},
		func() (commanddispatcher.Subscription, error) {
			return gocommand.RegisterAndSubscribe[cashiercommand.ProcessWebhookMessage](adapter, f.commands.ProcessWebhook)
		},
	} {
		sub, err := register()
		if err != nil {
			subs.UnsubscribeAll()
			return nil, err
		}
		subs.Add(sub)
	}
	subs.Add(gocommand.SubscribeQuery[cashierquery.GetCustomerMessage, core.Customer](f.queries.GetCustomer))
	subs.Add(gocommand.SubscribeQuery[cashierquery.ListRegisteredVariantsMessage, []string](f.queries.ListRegisteredVariants))
	return subs, nil
}
