package subscription

import (
	"context"
	"strings"

	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/fastspring"
)

// CustomerResolver finds the FastSpring account id for an owner, creating
// the remote account on first use.
type CustomerResolver struct {
	Accounts  core.AccountsAPI
	Customers core.CustomerStore
	Observer  core.Observer
}

func NewCustomerResolver(accounts core.AccountsAPI, customers core.CustomerStore) *CustomerResolver {
	return &CustomerResolver{
		Accounts:  accounts,
		Customers: customers,
		Observer:  core.NewObserver(nil, nil),
	}
}

// Resolve returns owner with FastSpringID populated when it can be found.
//
// When account creation fails because the email is already registered the
// account is looked up by email instead. An empty lookup leaves the id
// empty; it is not an error.
func (r *CustomerResolver) Resolve(ctx context.Context, owner core.Customer) (core.Customer, error) {
	if strings.TrimSpace(owner.FastSpringID) != "" {
		return owner, nil
	}
	if r == nil || r.Accounts == nil {
		return owner, core.InternalError("subscription: accounts api is not configured", nil)
	}
	fields := map[string]any{"owner_id": owner.OwnerID}

	account, err := r.Accounts.CreateAccount(ctx, owner.Contact())
	if err == nil {
		r.Observer.Info(ctx, "fastspring account created", withField(fields, "fastspring_id", account.AccountID()))
		return r.persist(ctx, owner, account.AccountID())
	}
	if !fastspring.IsDuplicateEmail(err) {
		r.Observer.Error(ctx, "fastspring account creation failed", core.ErrorFields(err, fields))
		return owner, core.CustomerResolutionFailure(err, fields)
	}

	page, err := r.Accounts.GetAccounts(ctx, map[string]string{"email": owner.Email})
	if err != nil {
		r.Observer.Error(ctx, "fastspring account lookup failed", core.ErrorFields(err, fields))
		return owner, core.CustomerResolutionFailure(err, fields)
	}
	if len(page.Accounts) == 0 {
		r.Observer.Warn(ctx, "fastspring account lookup returned no accounts", fields)
		return owner, nil
	}
	return r.persist(ctx, owner, page.Accounts[0].AccountID())
}

func (r *CustomerResolver) persist(ctx context.Context, owner core.Customer, fastSpringID string) (core.Customer, error) {
	owner.FastSpringID = fastSpringID
	if r.Customers == nil || fastSpringID == "" {
		return owner, nil
	}
	if err := r.Customers.SetFastSpringID(ctx, owner.OwnerID, fastSpringID); err != nil {
		return owner, core.CustomerResolutionFailure(err, map[string]any{
			"owner_id":      owner.OwnerID,
			"fastspring_id": fastSpringID,
		})
	}
	return owner, nil
}

func withField(fields map[string]any, key string, value any) map[string]any {
	out := core.CloneFields(fields)
	out[key] = value
	return out
}
