package semantic

import (
	"fmt"
	"strings"
	"time"

	"github.com/govmapmy/govgraph/record"
)

// Document synthesis: each record kind renders to a short prose document
// that carries its searchable attributes. The phrasing is stable because
// FindSimilar re-embeds stored documents and compares against the index.

func entityDocument(r record.Entity) string {
	parts := []string{
		"Entity: " + r.Name,
		"Type: " + r.EntityType,
		"Mandate: " + orNA(r.Mandate),
	}
	if r.PolicyAlignment != "" {
		parts = append(parts, "Policy Alignment: "+strings.ReplaceAll(r.PolicyAlignment, "|", ", "))
	}
	if r.ParentOrg != "" {
		parts = append(parts, "Reports to: "+r.ParentOrg)
	}
	return strings.Join(parts, ". ")
}

func personDocument(r record.Person) string {
	parts := []string{
		"Person: " + r.Name,
		"Title: " + r.Title,
		"Role: " + r.RoleType,
		"Focus Area: " + r.FocusArea,
		"Works at entity: " + r.EntityID,
	}
	return strings.Join(parts, ". ")
}

func partnerDocument(r record.Partner) string {
	parts := []string{
		"Company: " + r.CompanyName,
		"Relationship: " + r.RelationshipType,
		"Focus Area: " + r.FocusArea,
		"Partners with: " + r.EntityID,
	}
	if value, ok := record.IntOr(r.ContractValueRM, 0); ok && value > 0 {
		parts = append(parts, fmt.Sprintf("Contract Value: RM %.1fM", float64(value)/1_000_000))
	}
	return strings.Join(parts, ". ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func entityMetadata(r record.Entity) map[string]any {
	return map[string]any{
		"entity_id":        r.EntityID,
		"name":             r.Name,
		"entity_type":      r.EntityType,
		"parent_org":       r.ParentOrg,
		"policy_alignment": r.PolicyAlignment,
		"state":            r.State,
		"indexed_at":       time.Now().Format(time.RFC3339),
	}
}

func personMetadata(r record.Person, confidence float64) map[string]any {
	return map[string]any{
		"person_id":        r.PersonID,
		"name":             r.Name,
		"title":            r.Title,
		"entity_id":        r.EntityID,
		"role_type":        r.RoleType,
		"focus_area":       r.FocusArea,
		"confidence_score": confidence,
		"email":            r.Email,
		"indexed_at":       time.Now().Format(time.RFC3339),
	}
}

func partnerMetadata(r record.Partner) map[string]any {
	value, _ := record.IntOr(r.ContractValueRM, 0)
	year, _ := record.IntOr(r.ContractYear, 0)
	return map[string]any{
		"partner_id":        r.PartnerID,
		"company_name":      r.CompanyName,
		"entity_id":         r.EntityID,
		"relationship_type": r.RelationshipType,
		"contract_value_rm": value,
		"contract_year":     year,
		"focus_area":        r.FocusArea,
		"indexed_at":        time.Now().Format(time.RFC3339),
	}
}
