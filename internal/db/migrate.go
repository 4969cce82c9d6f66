package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseUpContext はテストで差し替えるための継ぎ目です。
var gooseUpContext = func(ctx context.Context, d *DB) error {
	return goose.UpContext(ctx, d.DB, "migrations")
}

// Migrate は埋め込みマイグレーションを適用します。
func (d *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(gooseDialect(d.Dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, d); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func gooseDialect(d Dialect) string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}
