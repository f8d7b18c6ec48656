package subscription

import (
	"context"
	"strings"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const DefaultQuantity = 1

// Dependencies are the collaborators used by Builder.Create.
type Dependencies struct {
	Resolver *CustomerResolver
	Sessions core.SessionsAPI
	Observer core.Observer
}

// Builder accumulates the parameters of a FastSpring session for one owner.
type Builder struct {
	owner     core.Customer
	name      string
	plan      string
	quantity  int
	coupon    string
	contact   map[string]any
	overrides []map[string]any
	deps      Dependencies
}

func NewBuilder(owner core.Customer, name string, plan string, deps Dependencies) *Builder {
	return &Builder{
		owner:    owner,
		name:     name,
		plan:     plan,
		quantity: DefaultQuantity,
		deps:     deps,
	}
}

func (b *Builder) Quantity(quantity int) *Builder {
	b.quantity = quantity
	return b
}

func (b *Builder) WithCoupon(coupon string) *Builder {
	b.coupon = strings.TrimSpace(coupon)
	return b
}

// WithContact attaches prefilled contact details to the session.
func (b *Builder) WithContact(contact core.Contact) *Builder {
	b.contact = contact.Map()
	return b
}

// Payload queues an override fragment. Fragments are applied in call order.
func (b *Builder) Payload(override map[string]any) *Builder {
	if override != nil {
		b.overrides = append(b.overrides, cloneValue(override).(map[string]any))
	}
	return b
}

// Owner returns the owner, including an id set by a previous Create.
func (b *Builder) Owner() core.Customer {
	return b.owner
}

// BuildPayload renders the session payload for accountID.
func (b *Builder) BuildPayload(accountID string) (map[string]any, error) {
	if strings.TrimSpace(b.plan) == "" {
		return nil, core.BadInputError("subscription: plan is required", nil)
	}
	if b.quantity < 1 {
		return nil, core.BadInputError("subscription: quantity must be positive", map[string]any{
			"quantity": b.quantity,
		})
	}

	base := map[string]any{
		"account": accountID,
		"items": []any{
			map[string]any{
				"product":  b.plan,
				"quantity": b.quantity,
			},
		},
		"tags": map[string]any{
			"name": b.name,
		},
		"coupon": b.coupon,
	}
	if len(b.contact) > 0 {
		base["contact"] = cloneValue(b.contact)
	}

	payload := StripEmpty(base)
	for _, override := range b.overrides {
		payload = StripEmpty(MergeReplaceRecursive(payload, override))
	}
	return payload, nil
}

// Create resolves the owner's account and opens a session for it.
func (b *Builder) Create(ctx context.Context) (core.Session, error) {
	if b.deps.Sessions == nil {
		return core.Session{}, core.InternalError("subscription: sessions api is not configured", nil)
	}
	owner, err := b.deps.Resolver.Resolve(ctx, b.owner)
	if err != nil {
		return core.Session{}, err
	}
	b.owner = owner

	payload, err := b.BuildPayload(owner.FastSpringID)
	if err != nil {
		return core.Session{}, err
	}
	session, err := b.deps.Sessions.CreateSession(ctx, payload)
	if err != nil {
		b.deps.Observer.Error(ctx, "fastspring session creation failed", core.ErrorFields(err, map[string]any{
			"owner_id": owner.OwnerID,
			"plan":     b.plan,
		}))
		return core.Session{}, err
	}
	b.deps.Observer.Info(ctx, "fastspring session created", map[string]any{
		"owner_id":   owner.OwnerID,
		"plan":       b.plan,
		"session_id": session.ID,
	})
	return session, nil
}
