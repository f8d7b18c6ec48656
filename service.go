package cashier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-cashier-fastspring/audit"
	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/events"
	"github.com/goliatone/go-cashier-fastspring/fastspring"
	"github.com/goliatone/go-cashier-fastspring/subscription"
	"github.com/goliatone/go-cashier-fastspring/webhooks"
)

// Service wires webhook intake and subscription checkout for one FastSpring
// store.
type Service struct {
	config    core.Config
	logger    core.Logger
	observer  core.Observer
	registry  *webhooks.Registry
	bus       *events.Bus
	publisher core.Publisher
	audit     core.AuditSink
	customers core.CustomerStore
	client    *fastspring.Client
	resolver  *subscription.CustomerResolver
	sessions  core.SessionsAPI
	processor *webhooks.Processor
}

// Setup resolves configuration and builds a Service. The runtime cfg takes
// precedence over the configured provider, which takes precedence over
// core.DefaultConfig.
func Setup(cfg core.Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("cashier", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("cashier"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = core.NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = webhooks.DefaultRegistry()
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, core.WrapBadInput(err, "cashier: load configuration", nil)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, core.WrapBadInput(err, "cashier: resolve configuration", nil)
	}

	if builder.repositoryFactory != nil && (builder.customerStore == nil || builder.auditSink == nil) {
		if err := builder.repositoryFactory.BuildStores(builder.persistenceClient); err != nil {
			return nil, core.WrapInternal(err, "cashier: build repository stores", nil)
		}
		if builder.customerStore == nil {
			if stores, ok := builder.repositoryFactory.(customerStoreProvider); ok {
				builder.customerStore = stores.Customers()
			}
		}
		if builder.auditSink == nil {
			if stores, ok := builder.repositoryFactory.(auditSinkProvider); ok {
				builder.auditSink = stores.AuditSink()
			}
		}
	}

	observer := core.NewObserver(logger, builder.metricsRecorder)

	sink := builder.auditSink
	if dir := strings.TrimSpace(finalConfig.Webhook.AuditDir); dir != "" {
		fileSink := audit.NewFileSink(dir)
		if sink != nil {
			sink = audit.Multi{fileSink, sink}
		} else {
			sink = fileSink
		}
	}
	if sink == nil {
		sink = audit.NopSink{}
	}

	bus := events.NewBus()
	var publisher core.Publisher = bus
	if len(builder.publishers) > 0 {
		publisher = append(events.Fanout{bus}, builder.publishers...)
	}

	client := fastspring.NewClient(finalConfig.FastSpring, builder.httpClient)
	client.Observer = observer

	accounts := builder.accounts
	if accounts == nil {
		accounts = client
	}
	sessions := builder.sessions
	if sessions == nil {
		sessions = client
	}

	verifier := webhooks.HMACVerifier{
		Header:   finalConfig.SignatureHeader(),
		Secret:   core.ResolveHMACSecret(finalConfig, builder.lookupEnv),
		Encoding: webhooks.EncodingBase64,
	}
	processor := webhooks.NewProcessor(
		verifier,
		webhooks.NewClassifier(builder.registry),
		webhooks.NewDispatcher(publisher),
	)
	processor.Audit = sink
	processor.Observer = observer

	resolver := subscription.NewCustomerResolver(accounts, builder.customerStore)
	resolver.Observer = observer

	observer.Debug(context.Background(), "cashier.setup", map[string]any{
		"service":          finalConfig.ServiceName,
		"signature_header": verifier.Header,
		"variants":         len(builder.registry.List()),
		"customer_store":   builder.customerStore != nil,
	})

	return &Service{
		config:    finalConfig,
		logger:    logger,
		observer:  observer,
		registry:  builder.registry,
		bus:       bus,
		publisher: publisher,
		audit:     sink,
		customers: builder.customerStore,
		client:    client,
		resolver:  resolver,
		sessions:  sessions,
		processor: processor,
	}, nil
}

func (s *Service) Config() core.Config {
	if s == nil {
		return core.Config{}
	}
	return s.config
}

func (s *Service) Logger() core.Logger {
	if s == nil {
		return glog.Nop()
	}
	return s.logger
}

func (s *Service) Registry() *webhooks.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// Bus is the in-process publisher every notification goes through first.
func (s *Service) Bus() *events.Bus {
	if s == nil {
		return nil
	}
	return s.bus
}

// Subscribe registers a handler for one variant, e.g. "OrderCompleted".
func (s *Service) Subscribe(kind string, handler func(ctx context.Context, notification core.Notification) error) (func(), error) {
	if s == nil || s.bus == nil {
		return nil, core.InternalError("cashier: service is not configured", nil)
	}
	if handler == nil {
		return nil, core.BadInputError("cashier: subscriber is required", nil)
	}
	variant, ok := s.registry.Lookup(kind)
	if !ok {
		return nil, core.BadInputError(fmt.Sprintf("cashier: unknown variant %q", kind), map[string]any{"kind": kind})
	}
	return s.bus.Subscribe(variant, events.SubscriberFunc(handler))
}

func (s *Service) Client() *fastspring.Client {
	if s == nil {
		return nil
	}
	return s.client
}

func (s *Service) Customers() core.CustomerStore {
	if s == nil {
		return nil
	}
	return s.customers
}

func (s *Service) Processor() *webhooks.Processor {
	if s == nil {
		return nil
	}
	return s.processor
}

// Process verifies and dispatches one webhook request.
func (s *Service) Process(ctx context.Context, req core.InboundRequest) (core.Acknowledgment, error) {
	if s == nil || s.processor == nil {
		return core.Acknowledgment{}, core.InternalError("cashier: service is not configured", nil)
	}
	return s.processor.Process(ctx, req)
}

// WebhookHandler returns the HTTP endpoint FastSpring posts events to.
func (s *Service) WebhookHandler() http.Handler {
	handler := webhooks.NewHandler(s, s.Config().Webhook.MaxBodyBytes)
	if s != nil {
		handler.Observer = s.observer
	}
	return handler
}

// NewSubscription starts a checkout session builder for owner.
func (s *Service) NewSubscription(owner core.Customer, name string, plan string) *subscription.Builder {
	deps := subscription.Dependencies{}
	if s != nil {
		deps = subscription.Dependencies{
			Resolver: s.resolver,
			Sessions: s.sessions,
			Observer: s.observer,
		}
	}
	return subscription.NewBuilder(owner, name, plan, deps)
}
