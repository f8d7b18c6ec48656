package webhooks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const (
	EventStatusAcknowledged = "acknowledged"
	EventStatusUnknown      = "unknown"
	EventStatusFailed       = "failed"
	EventStatusDuplicate    = "duplicate"
	EventStatusInvalid      = "invalid"

	BatchStatusAccepted = "accepted"
	BatchStatusRejected = "rejected"
	BatchStatusInvalid  = "invalid"
)

// Processor runs one webhook batch: verify, audit, decode, then classify and
// dispatch every event in order. Event failures, including events that do not
// decode, are logged and skipped; only verification and envelope failures
// abort the batch.
type Processor struct {
	Verifier   Verifier
	Classifier *Classifier
	Dispatcher *Dispatcher
	Audit      core.AuditSink
	Observer   core.Observer
	Now        func() time.Time
}

func NewProcessor(verifier Verifier, classifier *Classifier, dispatcher *Dispatcher) *Processor {
	return &Processor{
		Verifier:   verifier,
		Classifier: classifier,
		Dispatcher: dispatcher,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (p *Processor) Process(ctx context.Context, req core.InboundRequest) (core.Acknowledgment, error) {
	if p == nil || p.Dispatcher == nil {
		return core.Acknowledgment{}, core.InternalError("webhooks: processor requires a dispatcher", nil)
	}
	startedAt := p.now()
	providerID := strings.TrimSpace(req.ProviderID)
	if providerID == "" {
		providerID = core.ProviderFastSpring
	}
	req.ProviderID = providerID
	if strings.TrimSpace(req.RequestID) == "" {
		req.RequestID = uuid.NewString()
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = startedAt
	}
	fields := map[string]any{
		"provider_id": providerID,
		"request_id":  req.RequestID,
	}

	if p.Verifier != nil {
		if err := p.Verifier.Verify(ctx, req); err != nil {
			if !core.HasTextCode(err, core.ErrorIntegrityViolation) {
				err = core.IntegrityViolation(err.Error(), nil)
			}
			p.Observer.Error(ctx, "webhook signature rejected", core.ErrorFields(err, fields))
			p.Observer.Counter(ctx, core.MetricWebhookBatches, 1, map[string]string{"status": BatchStatusRejected})
			return core.Acknowledgment{}, err
		}
	}

	p.audit(ctx, req, fields)

	envelope, err := core.DecodeEnvelope(req.Body)
	if err != nil {
		p.Observer.Error(ctx, "webhook body rejected", core.ErrorFields(err, fields))
		p.Observer.Counter(ctx, core.MetricWebhookBatches, 1, map[string]string{"status": BatchStatusInvalid})
		return core.Acknowledgment{}, err
	}

	ack := core.Acknowledgment{
		RequestID: req.RequestID,
		Received:  len(envelope.Events),
		EventIDs:  make([]string, 0, len(envelope.Events)),
	}
	acknowledged := make(map[string]struct{}, len(envelope.Events))
	for _, raw := range envelope.Events {
		event, err := core.DecodeEvent(raw)
		if err != nil {
			p.Observer.Error(ctx, "webhook event rejected", core.ErrorFields(err, map[string]any{
				"event_id":   event.ID,
				"event_type": event.Type,
			}))
			p.recordEvent(ctx, EventStatusInvalid, event.Category())
			ack.Failures = append(ack.Failures, core.EventFailure{
				EventID:   event.ID,
				EventType: event.Type,
				Err:       err,
			})
			continue
		}
		if _, seen := acknowledged[event.ID]; seen && event.ID != "" {
			p.recordEvent(ctx, EventStatusDuplicate, event.Category())
			continue
		}
		if err := p.handleEvent(ctx, event); err != nil {
			ack.Failures = append(ack.Failures, core.EventFailure{
				EventID:   event.ID,
				EventType: event.Type,
				Err:       err,
			})
			continue
		}
		acknowledged[event.ID] = struct{}{}
		ack.EventIDs = append(ack.EventIDs, event.ID)
	}

	duration := p.now().Sub(startedAt)
	summary := core.CloneFields(fields)
	summary["received"] = ack.Received
	summary["acknowledged"] = len(ack.EventIDs)
	summary["failed"] = len(ack.Failures)
	summary["duration_ms"] = duration.Milliseconds()
	p.Observer.Info(ctx, "webhook batch processed", summary)
	p.Observer.Counter(ctx, core.MetricWebhookBatches, 1, map[string]string{"status": BatchStatusAccepted})
	p.Observer.Histogram(ctx, core.MetricWebhookBatchDuration, float64(duration.Milliseconds()), nil)
	return ack, nil
}

func (p *Processor) handleEvent(ctx context.Context, event core.RawEvent) error {
	fields := map[string]any{
		"event_id":   event.ID,
		"event_type": event.Type,
	}
	classification, err := p.classifier().Classify(event.Type)
	if err != nil {
		p.Observer.Error(ctx, "webhook event type not registered", core.ErrorFields(err, fields))
		p.recordEvent(ctx, EventStatusUnknown, event.Category())
		return err
	}
	if err := p.Dispatcher.Dispatch(ctx, event, classification); err != nil {
		p.Observer.Error(ctx, "webhook event dispatch failed", core.ErrorFields(err, fields))
		p.recordEvent(ctx, EventStatusFailed, event.Category())
		return err
	}
	p.recordEvent(ctx, EventStatusAcknowledged, event.Category())
	return nil
}

func (p *Processor) audit(ctx context.Context, req core.InboundRequest, fields map[string]any) {
	if p.Audit == nil {
		return
	}
	record := core.AuditRecord{
		ID:         uuid.NewString(),
		ProviderID: req.ProviderID,
		RequestID:  req.RequestID,
		Signature:  headerValue(req.Headers, p.signatureHeader()),
		Body:       append([]byte(nil), req.Body...),
		ReceivedAt: req.ReceivedAt,
	}
	if err := p.Audit.Record(ctx, record); err != nil {
		p.Observer.Warn(ctx, "webhook audit record failed", core.ErrorFields(err, fields))
	}
}

func (p *Processor) recordEvent(ctx context.Context, status string, category string) {
	p.Observer.Counter(ctx, core.MetricWebhookEvents, 1, map[string]string{
		"status":   status,
		"category": strings.ToLower(strings.TrimSpace(category)),
	})
}

func (p *Processor) classifier() *Classifier {
	if p.Classifier == nil {
		return NewClassifier(nil)
	}
	return p.Classifier
}

func (p *Processor) signatureHeader() string {
	if verifier, ok := p.Verifier.(HMACVerifier); ok && strings.TrimSpace(verifier.Header) != "" {
		return verifier.Header
	}
	return core.DefaultSignatureHeader
}

func (p *Processor) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}
