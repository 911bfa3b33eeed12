package storage

import (
	"context"
	"fmt"

	"musicetl/internal/schema"
)

// DialectFor maps a storage kind onto the schema dialect its statements
// are rendered in. Kinds and dialects are currently 1:1.
func DialectFor(kind string) (schema.Dialect, error) {
	switch kind {
	case "postgres":
		return schema.DialectPostgres, nil
	case "sqlite":
		return schema.DialectSQLite, nil
	case "mysql":
		return schema.DialectMySQL, nil
	default:
		return "", fmt.Errorf("storage: no dialect for kind %q", kind)
	}
}

// EnsureSchema creates every table that does not exist yet, in dependency
// order. Safe to run on every start.
func EnsureSchema(ctx context.Context, s Session, q *schema.Queries) error {
	for _, stmt := range q.CreateTables {
		if err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// ResetSchema drops and recreates the full schema. This is the only path
// that ever deletes rows; normal operation never does.
func ResetSchema(ctx context.Context, s Session, q *schema.Queries) error {
	for _, stmt := range q.DropTables {
		if err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return EnsureSchema(ctx, s, q)
}
