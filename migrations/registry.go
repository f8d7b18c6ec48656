package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"

	cashier "github.com/goliatone/go-cashier-fastspring"
	"github.com/goliatone/go-cashier-fastspring/core"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	defaultSourceLabel = "go-cashier-fastspring"
	migrationsDir      = "data/sql/migrations"
)

// FilesystemSpec is the migration set for one dialect. Postgres files live at
// the root of the migrations directory, sqlite files in its sqlite/ folder.
type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

// RegisterFunc receives each selected dialect's migrations, typically to hand
// them to a persistence client.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithDialectSourceLabel(label string) Option {
	return func(r *Registration) {
		if label = strings.TrimSpace(label); label != "" {
			r.SourceLabel = label
		}
	}
}

// WithValidationTargets restricts registration to the named dialects.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		if normalized := normalizeDialects(targets); len(normalized) > 0 {
			r.ValidationTargets = normalized
		}
	}
}

// Filesystems returns the embedded cashier migrations split per dialect. A
// custom root may be passed to serve migrations from elsewhere; it must hold
// the same data/sql/migrations layout.
func Filesystems(sources ...fs.FS) ([]FilesystemSpec, error) {
	root := cashier.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	specs := make([]FilesystemSpec, 0, 2)
	for _, entry := range []struct{ dialect, dir string }{
		{DialectPostgres, migrationsDir},
		{DialectSQLite, path.Join(migrationsDir, "sqlite")},
	} {
		sub, err := fs.Sub(root, entry.dir)
		if err != nil {
			return nil, core.WrapInternal(err, "migrations: open "+entry.dir, map[string]any{"dialect": entry.dialect})
		}
		ups, err := fs.Glob(sub, "*.up.sql")
		if err != nil || len(ups) == 0 {
			return nil, core.InternalError(
				fmt.Sprintf("migrations: no *.up.sql files under %s", entry.dir),
				map[string]any{"dialect": entry.dialect},
			)
		}
		specs = append(specs, FilesystemSpec{Dialect: entry.dialect, Path: entry.dir, FS: sub})
	}
	return specs, nil
}

// Register hands the migrations of every validation target to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       defaultSourceLabel,
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}
	if registerFn == nil {
		return reg, core.BadInputError("migrations: register function is required", nil)
	}

	specs, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Filesystems = specs
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	for _, spec := range reg.Filesystems {
		if !slices.Contains(reg.ValidationTargets, spec.Dialect) {
			continue
		}
		if err := registerFn(ctx, spec.Dialect, reg.SourceLabel, spec.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s from %s: %w", spec.Dialect, spec.Path, err)
		}
	}
	return reg, nil
}

// DialectForDriver maps a database/sql driver name to a migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "pgx", "pg":
		return DialectPostgres, nil
	}
	return "", core.BadInputError(fmt.Sprintf("migrations: no dialect for driver %q", driver), nil)
}

// Apply registers the cashier migrations for dialect on client and runs them.
func Apply(ctx context.Context, client *persistence.Client, dialect string, opts ...Option) error {
	if client == nil {
		return core.InternalError("migrations: persistence client is required", nil)
	}
	opts = append(opts, WithValidationTargets(dialect))
	_, err := Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, opts...)
	if err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return core.WrapInternal(err, "migrations: migrate "+dialect, nil)
	}
	return nil
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(strings.ToLower(value))
		if value != "" && !slices.Contains(out, value) {
			out = append(out, value)
		}
	}
	return out
}
