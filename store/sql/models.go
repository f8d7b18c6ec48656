package sqlstore

import (
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-cashier-fastspring/core"
)

type customerRecord struct {
	bun.BaseModel `bun:"table:cashier_customers,alias:cc"`

	ID           string    `bun:"id,pk"`
	OwnerID      string    `bun:"owner_id,notnull,unique"`
	Email        string    `bun:"email,notnull"`
	FirstName    string    `bun:"first_name"`
	LastName     string    `bun:"last_name"`
	Company      string    `bun:"company"`
	Phone        string    `bun:"phone"`
	FastSpringID string    `bun:"fastspring_id"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type auditRecord struct {
	bun.BaseModel `bun:"table:cashier_webhook_payloads,alias:cwp"`

	ID         string    `bun:"id,pk"`
	ProviderID string    `bun:"provider_id,notnull"`
	RequestID  string    `bun:"request_id"`
	Signature  string    `bun:"signature"`
	Body       []byte    `bun:"body,notnull"`
	ReceivedAt time.Time `bun:"received_at,nullzero,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func newCustomerRecord(in core.Customer, now time.Time) *customerRecord {
	return &customerRecord{
		ID:           strings.TrimSpace(in.ID),
		OwnerID:      strings.TrimSpace(in.OwnerID),
		Email:        strings.TrimSpace(in.Email),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Company:      strings.TrimSpace(in.Company),
		Phone:        strings.TrimSpace(in.Phone),
		FastSpringID: strings.TrimSpace(in.FastSpringID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (r *customerRecord) toDomain() core.Customer {
	if r == nil {
		return core.Customer{}
	}
	return core.Customer{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Company:      r.Company,
		Phone:        r.Phone,
		FastSpringID: r.FastSpringID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newAuditRecord(in core.AuditRecord, now time.Time) *auditRecord {
	receivedAt := in.ReceivedAt.UTC()
	if in.ReceivedAt.IsZero() {
		receivedAt = now
	}
	return &auditRecord{
		ID:         strings.TrimSpace(in.ID),
		ProviderID: strings.TrimSpace(in.ProviderID),
		RequestID:  strings.TrimSpace(in.RequestID),
		Signature:  in.Signature,
		Body:       append([]byte(nil), in.Body...),
		ReceivedAt: receivedAt,
		CreatedAt:  now,
	}
}
