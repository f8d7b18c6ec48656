package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-cashier-fastspring/core"
)

type CustomerReader interface {
	Get(ctx context.Context, ownerID string) (core.Customer, error)
}

type VariantLister interface {
	List() []string
}

type GetCustomerQuery struct {
	reader CustomerReader
}

func NewGetCustomerQuery(reader CustomerReader) *GetCustomerQuery {
	return &GetCustomerQuery{reader: reader}
}

func (q *GetCustomerQuery) Query(ctx context.Context, msg GetCustomerMessage) (core.Customer, error) {
	if q == nil || q.reader == nil {
		return core.Customer{}, queryDependencyError("query: customer reader is required")
	}
	return q.reader.Get(ctx, strings.TrimSpace(msg.OwnerID))
}

type ListRegisteredVariantsQuery struct {
	lister VariantLister
}

func NewListRegisteredVariantsQuery(lister VariantLister) *ListRegisteredVariantsQuery {
	return &ListRegisteredVariantsQuery{lister: lister}
}

func (q *ListRegisteredVariantsQuery) Query(_ context.Context, _ ListRegisteredVariantsMessage) ([]string, error) {
	if q == nil || q.lister == nil {
		return nil, queryDependencyError("query: variant registry is required")
	}
	return q.lister.List(), nil
}
