package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// Publisher is the event bus seen by the webhook pipeline.
type Publisher interface {
	Publish(ctx context.Context, notification Notification) error
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(ctx context.Context, notification Notification) error

func (f PublisherFunc) Publish(ctx context.Context, notification Notification) error {
	return f(ctx, notification)
}

// AuditRecord is the raw webhook body captured for debugging.
type AuditRecord struct {
	ID         string
	ProviderID string
	RequestID  string
	Signature  string
	Body       []byte
	ReceivedAt time.Time
}

// AuditSink receives raw webhook bodies. It is write-only.
type AuditSink interface {
	Record(ctx context.Context, record AuditRecord) error
}

type InboundRequest struct {
	ProviderID string
	RequestID  string
	Headers    map[string]string
	Body       []byte
	ReceivedAt time.Time
	Metadata   map[string]any
}

type CustomerStore interface {
	Get(ctx context.Context, ownerID string) (Customer, error)
	Save(ctx context.Context, customer Customer) (Customer, error)
	SetFastSpringID(ctx context.Context, ownerID string, fastSpringID string) error
}

type AccountsAPI interface {
	CreateAccount(ctx context.Context, contact Contact) (Account, error)
	GetAccounts(ctx context.Context, query map[string]string) (AccountsPage, error)
}

type SessionsAPI interface {
	CreateSession(ctx context.Context, payload map[string]any) (Session, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}
