package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cashier-fastspring/core"
)

// CustomerStore persists billable owners and their FastSpring account ids.
type CustomerStore struct {
	db   *bun.DB
	repo repository.Repository[*customerRecord]
	now  func() time.Time
}

func NewCustomerStore(db *bun.DB) (*CustomerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*customerRecord](db, customerHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid customer repository wiring: %w", err)
		}
	}
	return &CustomerStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *CustomerStore) Get(ctx context.Context, ownerID string) (core.Customer, error) {
	if s == nil || s.repo == nil {
		return core.Customer{}, fmt.Errorf("sqlstore: customer store is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return core.Customer{}, core.BadInputError("sqlstore: owner id is required", nil)
	}
	return s.first(ctx, map[string]any{"owner_id": ownerID},
		repository.SelectBy("owner_id", "=", ownerID),
	)
}

// GetByEmail returns the most recently updated customer with email.
func (s *CustomerStore) GetByEmail(ctx context.Context, email string) (core.Customer, error) {
	if s == nil || s.repo == nil {
		return core.Customer{}, fmt.Errorf("sqlstore: customer store is not configured")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return core.Customer{}, core.BadInputError("sqlstore: email is required", nil)
	}
	return s.first(ctx, map[string]any{"email": email},
		repository.SelectBy("email", "=", email),
		repository.OrderBy("updated_at DESC"),
	)
}

func (s *CustomerStore) first(
	ctx context.Context,
	metadata map[string]any,
	criteria ...repository.SelectCriteria,
) (core.Customer, error) {
	criteria = append(criteria, repository.SelectPaginate(1, 0))
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return core.Customer{}, err
	}
	if len(records) == 0 || records[0] == nil {
		return core.Customer{}, core.NotFoundError("sqlstore: customer not found", metadata)
	}
	return records[0].toDomain(), nil
}

// Save inserts the customer or updates the row with the same owner id.
func (s *CustomerStore) Save(ctx context.Context, customer core.Customer) (core.Customer, error) {
	if s == nil || s.db == nil {
		return core.Customer{}, fmt.Errorf("sqlstore: customer store is not configured")
	}
	now := s.now()
	in := newCustomerRecord(customer, now)
	if in.OwnerID == "" {
		return core.Customer{}, core.BadInputError("sqlstore: owner id is required", nil)
	}

	var out core.Customer
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &customerRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.owner_id = ?", in.OwnerID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			if in.ID == "" {
				in.ID = uuid.NewString()
			}
			if _, insertErr := tx.NewInsert().Model(in).Exec(ctx); insertErr != nil {
				return insertErr
			}
			out = in.toDomain()
			return nil
		}
		if err != nil {
			return err
		}

		existing.Email = in.Email
		existing.FirstName = in.FirstName
		existing.LastName = in.LastName
		existing.Company = in.Company
		existing.Phone = in.Phone
		if in.FastSpringID != "" {
			existing.FastSpringID = in.FastSpringID
		}
		existing.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().
			Model(existing).
			WherePK().
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = existing.toDomain()
		return nil
	})
	if err != nil {
		return core.Customer{}, err
	}
	return out, nil
}

func (s *CustomerStore) SetFastSpringID(ctx context.Context, ownerID string, fastSpringID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: customer store is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return core.BadInputError("sqlstore: owner id is required", nil)
	}
	res, err := s.db.NewUpdate().
		Model((*customerRecord)(nil)).
		Set("fastspring_id = ?", strings.TrimSpace(fastSpringID)).
		Set("updated_at = ?", s.now()).
		Where("owner_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return core.NotFoundError("sqlstore: customer not found", map[string]any{"owner_id": ownerID})
	}
	return nil
}
