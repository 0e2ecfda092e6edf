package graphstore

import (
	"context"
	"log/slog"
)

// schemaDeclarations holds the uniqueness constraints for each node kind
// plus the name lookup indexes the query catalogue depends on. Every
// declaration is independent and guarded by IF NOT EXISTS, so order does
// not matter and re-running is safe.
var schemaDeclarations = []string{
	"CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:Entity) REQUIRE e.entity_id IS UNIQUE",
	"CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.person_id IS UNIQUE",
	"CREATE CONSTRAINT company_id IF NOT EXISTS FOR (c:Company) REQUIRE c.partner_id IS UNIQUE",
	"CREATE CONSTRAINT policy_name IF NOT EXISTS FOR (pol:Policy) REQUIRE pol.name IS UNIQUE",

	"CREATE INDEX entity_name IF NOT EXISTS FOR (e:Entity) ON (e.name)",
	"CREATE INDEX person_name IF NOT EXISTS FOR (p:Person) ON (p.name)",
	"CREATE INDEX company_name IF NOT EXISTS FOR (c:Company) ON (c.name)",
	"CREATE INDEX person_focus IF NOT EXISTS FOR (p:Person) ON (p.focus_area)",
}

// EnsureSchema declares identity constraints and lookup indexes. A
// declaration that conflicts with pre-existing schema is logged and
// skipped, never fatal, so the call is idempotent against any graph state.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, decl := range schemaDeclarations {
		if _, err := s.Write(ctx, decl, nil); err != nil {
			slog.Warn("schema: declaration skipped (may already exist)",
				"declaration", decl, "error", err)
		}
	}
	return nil
}
