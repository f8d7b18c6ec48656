package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// EnsureSchema creates the cashier tables when they are missing. Deployments
// that run the SQL migrations do not need it.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("sqlstore: bun db is required")
	}
	models := []any{
		(*customerRecord)(nil),
		(*auditRecord)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: create table for %T: %w", model, err)
		}
	}
	return nil
}
