package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	cashier "github.com/goliatone/go-cashier-fastspring"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 %s up migrations, got %v", entry.Dialect, matches)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}

	if !postgresFound || !sqliteFound {
		t.Fatalf("expected postgres and sqlite filesystems, got %#v", filesystems)
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected a single sqlite registration, got %v", calls)
	}
	if reg.SourceLabel != "go-cashier-fastspring" {
		t.Fatalf("unexpected source label %q", reg.SourceLabel)
	}
}

func TestRegister_PropagatesRegisterError(t *testing.T) {
	_, err := Register(context.Background(), func(context.Context, string, string, fs.FS) error {
		return fmt.Errorf("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected register error, got %v", err)
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil register function")
	}
}

func TestDialectForDriver(t *testing.T) {
	cases := []struct {
		driver string
		want   string
	}{
		{driver: "sqlite3", want: DialectSQLite},
		{driver: "", want: DialectSQLite},
		{driver: "postgres", want: DialectPostgres},
		{driver: "PGX", want: DialectPostgres},
	}
	for _, tc := range cases {
		got, err := DialectForDriver(tc.driver)
		if err != nil {
			t.Fatalf("dialect for %q: %v", tc.driver, err)
		}
		if got != tc.want {
			t.Fatalf("dialect for %q: expected %q, got %q", tc.driver, tc.want, got)
		}
	}
	if _, err := DialectForDriver("mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestMigrationPairs_ExistForBothDialects(t *testing.T) {
	root := cashier.GetMigrationsFS()
	for _, name := range []string{"00001_cashier_customers", "00002_cashier_webhook_payloads"} {
		for _, dir := range []string{"data/sql/migrations", "data/sql/migrations/sqlite"} {
			for _, suffix := range []string{".up.sql", ".down.sql"} {
				migrationPath := dir + "/" + name + suffix
				content, err := fs.ReadFile(root, migrationPath)
				if err != nil {
					t.Fatalf("read migration %s: %v", migrationPath, err)
				}
				if strings.TrimSpace(string(content)) == "" {
					t.Fatalf("expected migration %s to have SQL content", migrationPath)
				}
			}
		}
	}
}

func TestSQLiteCustomerMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:migrations-customers-%d?mode=memory&cache=shared", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	sqliteMigrations, err := fs.Sub(cashier.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_cashier_customers.up.sql"); err != nil {
		t.Fatalf("apply customers up: %v", err)
	}

	insert := `INSERT INTO cashier_customers (id, owner_id, email) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "c1", "user-1", "ada@example.com"); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "c2", "user-1", "other@example.com"); err == nil {
		t.Fatalf("expected owner_id uniqueness violation")
	}

	var fastSpringID string
	if err := db.QueryRowContext(ctx, `SELECT fastspring_id FROM cashier_customers WHERE owner_id = ?`, "user-1").Scan(&fastSpringID); err != nil {
		t.Fatalf("select customer: %v", err)
	}
	if fastSpringID != "" {
		t.Fatalf("expected empty default fastspring_id, got %q", fastSpringID)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_cashier_customers.down.sql"); err != nil {
		t.Fatalf("apply customers down: %v", err)
	}
	var tableCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'cashier_customers'`).Scan(&tableCount); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableCount != 0 {
		t.Fatalf("expected cashier_customers dropped")
	}
}

func TestSQLiteWebhookPayloadMigration_Apply(t *testing.T) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:migrations-payloads-%d?mode=memory&cache=shared", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	sqliteMigrations, err := fs.Sub(cashier.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	if err := execSQLMigration(ctx, db, sqliteMigrations, "00002_cashier_webhook_payloads.up.sql"); err != nil {
		t.Fatalf("apply payloads up: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO cashier_webhook_payloads (id, provider_id, body, received_at) VALUES (?, ?, ?, ?)`,
		"p1", "fastspring", []byte(`{"events":[]}`), "2026-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("insert payload: %v", err)
	}
}

// execSQLMigration runs each --bun:split section of a migration file.
func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	for _, statement := range strings.Split(string(content), "--bun:split") {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
