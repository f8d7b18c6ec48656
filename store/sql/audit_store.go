package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// AuditStore keeps raw webhook bodies in cashier_webhook_payloads.
type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*auditRecord]
	now  func() time.Time
}

func NewAuditStore(db *bun.DB) (*AuditStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*auditRecord](db, auditHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}
	return &AuditStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *AuditStore) Record(ctx context.Context, record core.AuditRecord) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: audit store is not configured")
	}
	row := newAuditRecord(record, s.now())
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if _, err := s.repo.Create(ctx, row); err != nil {
		return core.WrapInternal(err, "sqlstore: record webhook payload", map[string]any{
			"request_id": row.RequestID,
		})
	}
	return nil
}

// ListByRequestID returns the payloads stored for one webhook request.
func (s *AuditStore) ListByRequestID(ctx context.Context, requestID string) ([]core.AuditRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: audit store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("request_id", "=", strings.TrimSpace(requestID)),
		repository.OrderBy("received_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.AuditRecord, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		out = append(out, core.AuditRecord{
			ID:         record.ID,
			ProviderID: record.ProviderID,
			RequestID:  record.RequestID,
			Signature:  record.Signature,
			Body:       append([]byte(nil), record.Body...),
			ReceivedAt: record.ReceivedAt,
		})
	}
	return out, nil
}
