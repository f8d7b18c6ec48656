package query

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/webhooks"
)

type stubCustomerReader struct {
	getFn func(ctx context.Context, ownerID string) (core.Customer, error)
}

func (s stubCustomerReader) Get(ctx context.Context, ownerID string) (core.Customer, error) {
	return s.getFn(ctx, ownerID)
}

func TestGetCustomerQuery_QueryDelegates(t *testing.T) {
	called := false
	reader := stubCustomerReader{
		getFn: func(_ context.Context, ownerID string) (core.Customer, error) {
			called = true
			if ownerID != "user-1" {
				t.Fatalf("unexpected owner id %q", ownerID)
			}
			return core.Customer{OwnerID: ownerID, FastSpringID: "acc_1"}, nil
		},
	}

	result, err := NewGetCustomerQuery(reader).Query(context.Background(), GetCustomerMessage{OwnerID: " user-1 "})
	if err != nil {
		t.Fatalf("query customer: %v", err)
	}
	if !called {
		t.Fatalf("expected customer reader invocation")
	}
	if result.FastSpringID != "acc_1" {
		t.Fatalf("unexpected customer %#v", result)
	}
}

func TestListRegisteredVariantsQuery_ReturnsRegistryList(t *testing.T) {
	registry, err := webhooks.NewRegistry("Any", "OrderAny", "OrderCompleted")
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	variants, err := NewListRegisteredVariantsQuery(registry).Query(context.Background(), ListRegisteredVariantsMessage{})
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(variants) != 3 || variants[0] != "Any" {
		t.Fatalf("unexpected variants %v", variants)
	}
}

func TestGetCustomerMessage_ValidateReturnsRichError(t *testing.T) {
	err := (GetCustomerMessage{}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.ErrorBadInput {
		t.Fatalf("unexpected error %#v", rich)
	}
}

func TestQueries_NilDependencies(t *testing.T) {
	var customer *GetCustomerQuery
	if _, err := customer.Query(context.Background(), GetCustomerMessage{OwnerID: "x"}); !core.HasTextCode(err, core.ErrorInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	var variants *ListRegisteredVariantsQuery
	if _, err := variants.Query(context.Background(), ListRegisteredVariantsMessage{}); !core.HasTextCode(err, core.ErrorInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
