package sqlstore

import "github.com/goliatone/go-cashier-fastspring/core"

var (
	_ core.CustomerStore = (*CustomerStore)(nil)
	_ core.CustomerStore = (*CachedCustomerStore)(nil)
	_ core.AuditSink     = (*AuditStore)(nil)
)
