package cashier

import (
	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/transport"
	"github.com/goliatone/go-cashier-fastspring/webhooks"
)

type Option func(*serviceBuilder)

// RepositoryFactory supplies persistent stores. It is satisfied by
// *sqlstore.RepositoryFactory.
type RepositoryFactory interface {
	BuildStores(persistenceClient any) error
}

type customerStoreProvider interface {
	Customers() core.CustomerStore
}

type auditSinkProvider interface {
	AuditSink() core.AuditSink
}

type serviceBuilder struct {
	runtimeConfig     core.Config
	logger            core.Logger
	loggerProvider    core.LoggerProvider
	metricsRecorder   core.MetricsRecorder
	configProvider    core.ConfigProvider
	optionsResolver   core.OptionsResolver
	lookupEnv         func(string) (string, bool)
	registry          *webhooks.Registry
	publishers        []core.Publisher
	auditSink         core.AuditSink
	customerStore     core.CustomerStore
	httpClient        transport.HTTPDoer
	accounts          core.AccountsAPI
	sessions          core.SessionsAPI
	persistenceClient any
	repositoryFactory RepositoryFactory
}

func defaultServiceBuilder(cfg core.Config) serviceBuilder {
	return serviceBuilder{runtimeConfig: cfg}
}

func WithLogger(logger core.Logger) Option {
	return func(builder *serviceBuilder) {
		builder.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(builder *serviceBuilder) {
		builder.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(builder *serviceBuilder) {
		builder.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(builder *serviceBuilder) {
		builder.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(builder *serviceBuilder) {
		builder.optionsResolver = resolver
	}
}

// WithEnvLookup replaces os.LookupEnv when resolving the webhook secret.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(builder *serviceBuilder) {
		builder.lookupEnv = lookup
	}
}

func WithRegistry(registry *webhooks.Registry) Option {
	return func(builder *serviceBuilder) {
		builder.registry = registry
	}
}

// WithPublisher adds publishers that receive every notification after the
// in-process bus.
func WithPublisher(publishers ...core.Publisher) Option {
	return func(builder *serviceBuilder) {
		for _, publisher := range publishers {
			if publisher != nil {
				builder.publishers = append(builder.publishers, publisher)
			}
		}
	}
}

func WithAuditSink(sink core.AuditSink) Option {
	return func(builder *serviceBuilder) {
		builder.auditSink = sink
	}
}

func WithCustomerStore(store core.CustomerStore) Option {
	return func(builder *serviceBuilder) {
		builder.customerStore = store
	}
}

func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(builder *serviceBuilder) {
		builder.httpClient = client
	}
}

// WithAccountsAPI replaces the FastSpring client for account calls.
func WithAccountsAPI(accounts core.AccountsAPI) Option {
	return func(builder *serviceBuilder) {
		builder.accounts = accounts
	}
}

// WithSessionsAPI replaces the FastSpring client for session calls.
func WithSessionsAPI(sessions core.SessionsAPI) Option {
	return func(builder *serviceBuilder) {
		builder.sessions = sessions
	}
}

func WithPersistenceClient(client any) Option {
	return func(builder *serviceBuilder) {
		builder.persistenceClient = client
	}
}

func WithRepositoryFactory(factory RepositoryFactory) Option {
	return func(builder *serviceBuilder) {
		builder.repositoryFactory = factory
	}
}
