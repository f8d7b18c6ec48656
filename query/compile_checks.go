package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-cashier-fastspring/core"
)

var (
	_ gocmd.Querier[GetCustomerMessage, core.Customer]       = (*GetCustomerQuery)(nil)
	_ gocmd.Querier[ListRegisteredVariantsMessage, []string] = (*ListRegisteredVariantsQuery)(nil)
)
