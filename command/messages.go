package command

import (
	"strings"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const (
	TypeCreateSession  = "cashier.command.session.create"
	TypeProcessWebhook = "cashier.command.webhook.process"
)

// CreateSessionMessage asks for a FastSpring session for a stored owner.
type CreateSessionMessage struct {
	OwnerID   string
	Name      string
	Plan      string
	Quantity  int
	Coupon    string
	Contact   core.Contact
	Overrides []map[string]any
}

func (CreateSessionMessage) Type() string { return TypeCreateSession }

func (m CreateSessionMessage) Validate() error {
	if strings.TrimSpace(m.OwnerID) == "" {
		return commandValidationError("owner_id", "owner id is required")
	}
	if strings.TrimSpace(m.Plan) == "" {
		return commandValidationError("plan", "plan is required")
	}
	if m.Quantity < 0 {
		return commandValidationError("quantity", "quantity must not be negative")
	}
	return nil
}

type ProcessWebhookMessage struct {
	Request core.InboundRequest
}

func (ProcessWebhookMessage) Type() string { return TypeProcessWebhook }

func (m ProcessWebhookMessage) Validate() error {
	if len(m.Request.Body) == 0 {
		return commandValidationError("body", "webhook body is required")
	}
	return nil
}
