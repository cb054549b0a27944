// Package migrate creates the database schema. Every statement is idempotent so Up can run on
// each deploy.
package migrate

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schema string

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Up applies the schema statement by statement.
func Up(ctx context.Context, db Execer) error {
	stmts := Statements()
	for i, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i+1, err)
		}
	}

	slog.InfoContext(ctx, "migrate: schema is up to date", "statements", len(stmts))
	return nil
}

// Statements returns the schema split into single statements.
func Statements() []string {
	var stmts []string
	for _, s := range strings.Split(schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
