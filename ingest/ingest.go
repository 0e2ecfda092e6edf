// Package ingest transforms tabular entity/person/partner batches into
// graph mutations. All writes are idempotent merges keyed on each record
// kind's identity field; derived relationships are only created when both
// endpoints exist, and per-row problems are skipped and counted rather
// than failing the batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/govmapmy/govgraph/graphstore"
	"github.com/govmapmy/govgraph/record"
)

// Runner executes parameterized queries against the graph engine. It is
// satisfied by *graphstore.Store; tests substitute a fake.
type Runner interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]graphstore.Record, error)
	Write(ctx context.Context, cypher string, params map[string]any) ([]graphstore.Record, error)
}

// Summary reports what a single import operation did, so callers can
// detect silent partial failures (zero edges created for N input rows
// signals a foreign-key mismatch, not success).
type Summary struct {
	Rows         int // rows received
	Dropped      int // rows dropped for missing identity fields
	NodesMerged  int // nodes created or updated
	EdgesCreated int // relationship merges performed
	EdgesSkipped int // relationship rows skipped (target node missing)
	Coerced      int // field values coerced to a default or clamped
}

// Importer merges tabular records into the graph. The graph adapter is
// injected at construction; the importer holds no other state.
type Importer struct {
	db Runner
}

// New creates an Importer writing through the given adapter.
func New(db Runner) *Importer {
	return &Importer{db: db}
}

const mergeEntitiesCypher = `
UNWIND $entities AS entity
MERGE (e:Entity {entity_id: entity.entity_id})
SET e.name = entity.name,
    e.entity_type = entity.entity_type,
    e.mandate = entity.mandate,
    e.state = entity.state,
    e.policy_alignment = entity.policy_alignment,
    e.latitude = entity.latitude,
    e.longitude = entity.longitude
RETURN count(e) AS merged`

const mergeHierarchyCypher = `
UNWIND $relationships AS rel
MATCH (child:Entity {entity_id: rel.child_id})
MATCH (parent:Entity {entity_id: rel.parent_id})
MERGE (child)-[r:REPORTS_TO]->(parent)
RETURN count(r) AS merged`

const mergePoliciesCypher = `
UNWIND $policies AS policy_name
MERGE (p:Policy {name: policy_name})
RETURN count(p) AS merged`

const mergeAlignmentsCypher = `
UNWIND $alignments AS align
MATCH (e:Entity {entity_id: align.entity_id})
MATCH (p:Policy {name: align.policy_name})
MERGE (e)-[r:ALIGNED_TO]->(p)
RETURN count(r) AS merged`

// ImportEntities merges entity rows by entity_id, then derives the
// organizational hierarchy (REPORTS_TO) and policy alignments (ALIGNED_TO).
// A hierarchy row whose parent does not exist as an Entity produces no edge
// and is counted as skipped, not failed.
func (im *Importer) ImportEntities(ctx context.Context, rows []record.Entity) (Summary, error) {
	sum := Summary{Rows: len(rows)}

	valid := make([]record.Entity, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			sum.Dropped++
			slog.Warn("ingest: dropping entity row with missing identity",
				"entity_id", r.EntityID, "name", r.Name)
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return sum, nil
	}

	params, coerced := entityParams(valid)
	sum.Coerced += coerced

	merged, err := im.writeCount(ctx, mergeEntitiesCypher, map[string]any{"entities": params})
	if err != nil {
		return sum, fmt.Errorf("merging entities: %w", err)
	}
	sum.NodesMerged += merged

	// Hierarchy: one REPORTS_TO per row with a parent_org, provided the
	// parent already exists as an Entity node.
	rels := hierarchyRels(valid)
	if len(rels) > 0 {
		created, err := im.writeCount(ctx, mergeHierarchyCypher, map[string]any{"relationships": rels})
		if err != nil {
			return sum, fmt.Errorf("merging hierarchy: %w", err)
		}
		sum.EdgesCreated += created
		if skipped := len(rels) - created; skipped > 0 {
			sum.EdgesSkipped += skipped
			slog.Warn("ingest: hierarchy rows skipped, parent entity not found",
				"skipped", skipped, "attempted", len(rels))
		}
	}

	// Policies are materialized lazily from the union of alignment tokens.
	policies := policyNames(valid)
	if len(policies) > 0 {
		if _, err := im.writeCount(ctx, mergePoliciesCypher, map[string]any{"policies": policies}); err != nil {
			return sum, fmt.Errorf("merging policies: %w", err)
		}

		aligns := alignmentPairs(valid)
		created, err := im.writeCount(ctx, mergeAlignmentsCypher, map[string]any{"alignments": aligns})
		if err != nil {
			return sum, fmt.Errorf("merging policy alignments: %w", err)
		}
		sum.EdgesCreated += created
		if skipped := len(aligns) - created; skipped > 0 {
			sum.EdgesSkipped += skipped
		}
	}

	slog.Info("ingest: entities imported",
		"rows", sum.Rows, "dropped", sum.Dropped, "nodes", sum.NodesMerged,
		"edges", sum.EdgesCreated, "edges_skipped", sum.EdgesSkipped)
	return sum, nil
}

const mergePeopleCypher = `
UNWIND $people AS person
MERGE (p:Person {person_id: person.person_id})
SET p.name = person.name,
    p.title = person.title,
    p.role_type = person.role_type,
    p.focus_area = person.focus_area,
    p.confidence_score = person.confidence_score,
    p.email = person.email,
    p.source = person.source
RETURN count(p) AS merged`

const mergeWorksForCypher = `
UNWIND $relationships AS rel
MATCH (p:Person {person_id: rel.person_id})
MATCH (e:Entity {entity_id: rel.entity_id})
MERGE (p)-[r:WORKS_FOR]->(e)
RETURN count(r) AS merged`

// ImportPeople merges person rows by person_id with confidence clamped to
// [0,1], then creates one WORKS_FOR edge per row. Rows whose entity_id does
// not exist produce no edge and are counted as skipped.
func (im *Importer) ImportPeople(ctx context.Context, rows []record.Person) (Summary, error) {
	sum := Summary{Rows: len(rows)}

	valid := make([]record.Person, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			sum.Dropped++
			slog.Warn("ingest: dropping person row with missing identity",
				"person_id", r.PersonID, "name", r.Name)
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return sum, nil
	}

	params, coerced := personParams(valid)
	sum.Coerced += coerced
	if coerced > 0 {
		slog.Warn("ingest: confidence scores coerced into [0,1]", "coerced", coerced)
	}

	merged, err := im.writeCount(ctx, mergePeopleCypher, map[string]any{"people": params})
	if err != nil {
		return sum, fmt.Errorf("merging people: %w", err)
	}
	sum.NodesMerged += merged

	rels := worksForRels(valid)
	if len(rels) > 0 {
		created, err := im.writeCount(ctx, mergeWorksForCypher, map[string]any{"relationships": rels})
		if err != nil {
			return sum, fmt.Errorf("merging employment: %w", err)
		}
		sum.EdgesCreated += created
		if skipped := len(rels) - created; skipped > 0 {
			sum.EdgesSkipped += skipped
			slog.Warn("ingest: employment rows skipped, entity not found",
				"skipped", skipped, "attempted", len(rels))
		}
	}

	slog.Info("ingest: people imported",
		"rows", sum.Rows, "dropped", sum.Dropped, "nodes", sum.NodesMerged,
		"edges", sum.EdgesCreated, "edges_skipped", sum.EdgesSkipped)
	return sum, nil
}

const mergePartnersCypher = `
UNWIND $partners AS partner
MERGE (c:Company {partner_id: partner.partner_id})
SET c.name = partner.company_name,
    c.focus_area = partner.focus_area
RETURN count(c) AS merged`

const mergePartnershipsCypher = `
UNWIND $relationships AS rel
MATCH (c:Company {partner_id: rel.partner_id})
MATCH (e:Entity {entity_id: rel.entity_id})
MERGE (c)-[r:PARTNERS_WITH]->(e)
SET r.relationship_type = rel.relationship_type,
    r.contract_value_rm = rel.contract_value_rm,
    r.contract_year = rel.contract_year,
    r.procurement_stage = rel.procurement_stage
RETURN count(r) AS merged`

// ImportPartners merges company rows by partner_id, then creates one
// PARTNERS_WITH edge per row carrying the relationship and contract
// attributes. Non-numeric contract values coerce to zero; the row is still
// imported.
func (im *Importer) ImportPartners(ctx context.Context, rows []record.Partner) (Summary, error) {
	sum := Summary{Rows: len(rows)}

	valid := make([]record.Partner, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			sum.Dropped++
			slog.Warn("ingest: dropping partner row with missing identity",
				"partner_id", r.PartnerID, "company_name", r.CompanyName)
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return sum, nil
	}

	nodeParams, relParams, coerced := partnerParams(valid)
	sum.Coerced += coerced
	if coerced > 0 {
		slog.Warn("ingest: contract fields coerced to defaults", "coerced", coerced)
	}

	merged, err := im.writeCount(ctx, mergePartnersCypher, map[string]any{"partners": nodeParams})
	if err != nil {
		return sum, fmt.Errorf("merging companies: %w", err)
	}
	sum.NodesMerged += merged

	if len(relParams) > 0 {
		created, err := im.writeCount(ctx, mergePartnershipsCypher, map[string]any{"relationships": relParams})
		if err != nil {
			return sum, fmt.Errorf("merging partnerships: %w", err)
		}
		sum.EdgesCreated += created
		if skipped := len(relParams) - created; skipped > 0 {
			sum.EdgesSkipped += skipped
			slog.Warn("ingest: partnership rows skipped, entity not found",
				"skipped", skipped, "attempted", len(relParams))
		}
	}

	slog.Info("ingest: partners imported",
		"rows", sum.Rows, "dropped", sum.Dropped, "nodes", sum.NodesMerged,
		"edges", sum.EdgesCreated, "edges_skipped", sum.EdgesSkipped)
	return sum, nil
}

// writeCount executes a write query and returns its single integer result
// (the count alias every merge query returns).
func (im *Importer) writeCount(ctx context.Context, cypher string, params map[string]any) (int, error) {
	records, err := im.db.Write(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	switch v := records[0]["merged"].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, nil
	}
}
