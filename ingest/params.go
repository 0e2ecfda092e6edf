package ingest

import (
	"github.com/govmapmy/govgraph/record"
)

// The builders below turn validated rows into the parameter maps the UNWIND
// queries consume. They are pure so the row-to-parameter mapping can be
// tested without a graph engine.

// entityParams maps entity rows to merge parameters. Coordinates parse to
// null when absent or malformed; the coerced count covers malformed values
// only, since most entities legitimately carry no coordinates.
func entityParams(rows []record.Entity) ([]map[string]any, int) {
	params := make([]map[string]any, 0, len(rows))
	coerced := 0
	for _, r := range rows {
		p := map[string]any{
			"entity_id":        r.EntityID,
			"name":             r.Name,
			"entity_type":      r.EntityType,
			"mandate":          r.Mandate,
			"state":            r.State,
			"policy_alignment": r.PolicyAlignment,
			"latitude":         nil,
			"longitude":        nil,
		}
		if lat, ok := record.FloatOr(r.Latitude, 0); ok {
			p["latitude"] = lat
		} else if r.Latitude != "" {
			coerced++
		}
		if lng, ok := record.FloatOr(r.Longitude, 0); ok {
			p["longitude"] = lng
		} else if r.Longitude != "" {
			coerced++
		}
		params = append(params, p)
	}
	return params, coerced
}

// hierarchyRels yields one child/parent pair per row that names a parent
// organization.
func hierarchyRels(rows []record.Entity) []map[string]any {
	rels := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		if r.ParentOrg == "" {
			continue
		}
		rels = append(rels, map[string]any{
			"child_id":  r.EntityID,
			"parent_id": r.ParentOrg,
		})
	}
	return rels
}

// policyNames returns the deduplicated union of every policy token across
// the batch, preserving first-seen order.
func policyNames(rows []record.Entity) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		for _, name := range record.SplitPolicies(r.PolicyAlignment) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// alignmentPairs yields one entity/policy pair per alignment token per row.
func alignmentPairs(rows []record.Entity) []map[string]any {
	var pairs []map[string]any
	for _, r := range rows {
		for _, name := range record.SplitPolicies(r.PolicyAlignment) {
			pairs = append(pairs, map[string]any{
				"entity_id":   r.EntityID,
				"policy_name": name,
			})
		}
	}
	return pairs
}

// personParams maps person rows to merge parameters. Confidence is clamped
// into [0,1] with 0.5 standing in for missing or unparseable scores.
func personParams(rows []record.Person) ([]map[string]any, int) {
	params := make([]map[string]any, 0, len(rows))
	coerced := 0
	for _, r := range rows {
		score, c := record.Clamp01(r.ConfidenceScore, 0.5)
		if c {
			coerced++
		}
		params = append(params, map[string]any{
			"person_id":        r.PersonID,
			"name":             r.Name,
			"title":            r.Title,
			"role_type":        r.RoleType,
			"focus_area":       r.FocusArea,
			"confidence_score": score,
			"email":            r.Email,
			"source":           r.Source,
		})
	}
	return params, coerced
}

// worksForRels yields one person/entity pair per row that names an employer.
func worksForRels(rows []record.Person) []map[string]any {
	rels := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		if r.EntityID == "" {
			continue
		}
		rels = append(rels, map[string]any{
			"person_id": r.PersonID,
			"entity_id": r.EntityID,
		})
	}
	return rels
}

// partnerParams maps partner rows to company merge parameters plus one
// partnership relationship per row that names a government entity. Contract
// value and year coerce to zero when unparseable.
func partnerParams(rows []record.Partner) (nodes, rels []map[string]any, coerced int) {
	nodes = make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		nodes = append(nodes, map[string]any{
			"partner_id":   r.PartnerID,
			"company_name": r.CompanyName,
			"focus_area":   r.FocusArea,
		})

		if r.EntityID == "" {
			continue
		}
		value, ok := record.IntOr(r.ContractValueRM, 0)
		if !ok && r.ContractValueRM != "" {
			coerced++
		}
		year, ok := record.IntOr(r.ContractYear, 0)
		if !ok && r.ContractYear != "" {
			coerced++
		}
		rels = append(rels, map[string]any{
			"partner_id":        r.PartnerID,
			"entity_id":         r.EntityID,
			"relationship_type": r.RelationshipType,
			"contract_value_rm": value,
			"contract_year":     year,
			"procurement_stage": r.ProcurementStage,
		})
	}
	return nodes, rels, coerced
}
