package query

import "strings"

const (
	TypeGetCustomer            = "cashier.query.customer.get"
	TypeListRegisteredVariants = "cashier.query.webhook.variants"
)

type GetCustomerMessage struct {
	OwnerID string
}

func (GetCustomerMessage) Type() string { return TypeGetCustomer }

func (m GetCustomerMessage) Validate() error {
	if strings.TrimSpace(m.OwnerID) == "" {
		return queryValidationError("owner_id", "owner id is required")
	}
	return nil
}

// ListRegisteredVariantsMessage lists the webhook event variants the
// classifier accepts.
type ListRegisteredVariantsMessage struct{}

func (ListRegisteredVariantsMessage) Type() string { return TypeListRegisteredVariants }

func (ListRegisteredVariantsMessage) Validate() error { return nil }
