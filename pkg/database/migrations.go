package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"watermesh/pkg/config"
)

// Migrator runs goose migrations against a pgxpool.Pool by opening a
// database/sql handle over it for the duration of each operation; goose
// itself only speaks database/sql.
type Migrator struct {
	pool       *pgxpool.Pool
	migrations embed.FS
	dir        string
}

// NewMigrator builds a Migrator rooted at dir within migrations.
func NewMigrator(pool *pgxpool.Pool, migrations embed.FS, dir string) *Migrator {
	return &Migrator{pool: pool, migrations: migrations, dir: dir}
}

func (m *Migrator) open() (*sql.DB, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	goose.SetBaseFS(m.migrations)
	return stdlib.OpenDBFromPool(m.pool), nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	db, err := m.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.UpContext(ctx, db, m.dir)
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	db, err := m.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.DownContext(ctx, db, m.dir)
}

// Status prints the applied/pending state of every migration to the
// goose-configured logger.
func (m *Migrator) Status(ctx context.Context) error {
	db, err := m.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.StatusContext(ctx, db, m.dir)
}

// RunMigrations applies pending migrations if cfg.AutoMigrate is set; a
// no-op otherwise, so operators can opt for a manual migration step
// instead.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, cfg config.DatabaseConfig, migrations embed.FS, dir string) error {
	if !cfg.AutoMigrate {
		return nil
	}
	if err := NewMigrator(pool, migrations, dir).Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
