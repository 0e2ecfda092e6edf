// Package record defines the typed tabular rows consumed by the ingestion
// boundary and the semantic index, plus the explicit coercion helpers used
// to turn loosely-typed column values into safe attribute values.
package record

import "strings"

// Entity is one row of the government-entity batch. EntityID and Name are
// required; everything else is optional and defaults to empty/unset.
type Entity struct {
	EntityID        string `json:"entity_id"`
	Name            string `json:"name"`
	EntityType      string `json:"entity_type"` // Ministry, Agency, Department
	Mandate         string `json:"mandate"`
	State           string `json:"state"`
	ParentOrg       string `json:"parent_org"`       // entity_id of the parent, empty = top level
	PolicyAlignment string `json:"policy_alignment"` // pipe-delimited policy names
	Latitude        string `json:"latitude"`         // parsed as float at ingestion, unset if empty
	Longitude       string `json:"longitude"`
}

// Person is one row of the personnel batch. PersonID and Name are required;
// EntityID names the single employing entity.
type Person struct {
	PersonID        string `json:"person_id"`
	Name            string `json:"name"`
	Title           string `json:"title"`
	RoleType        string `json:"role_type"` // Political, Executive, ...
	FocusArea       string `json:"focus_area"`
	EntityID        string `json:"entity_id"`
	ConfidenceScore string `json:"confidence_score"` // clamped to [0,1] at ingestion
	Email           string `json:"email"`
	Source          string `json:"source"`
}

// Partner is one row of the partner/procurement batch. PartnerID and
// CompanyName are required. Each row also describes one partnership with
// the entity named by EntityID.
type Partner struct {
	PartnerID        string `json:"partner_id"`
	CompanyName      string `json:"company_name"`
	FocusArea        string `json:"focus_area"`
	EntityID         string `json:"entity_id"`
	RelationshipType string `json:"relationship_type"`
	ContractValueRM  string `json:"contract_value_rm"` // coerced to int, 0 on failure
	ContractYear     string `json:"contract_year"`
	ProcurementStage string `json:"procurement_stage"`
}

// Valid reports whether the row carries the identity fields required for a
// graph merge. Rows failing this check are dropped before any write.
func (e Entity) Valid() bool {
	return strings.TrimSpace(e.EntityID) != "" && strings.TrimSpace(e.Name) != ""
}

func (p Person) Valid() bool {
	return strings.TrimSpace(p.PersonID) != "" && strings.TrimSpace(p.Name) != ""
}

func (p Partner) Valid() bool {
	return strings.TrimSpace(p.PartnerID) != "" && strings.TrimSpace(p.CompanyName) != ""
}

// SplitPolicies tokenizes a pipe-delimited policy_alignment value into the
// distinct, trimmed policy names it contains. Empty tokens are discarded.
func SplitPolicies(alignment string) []string {
	if strings.TrimSpace(alignment) == "" {
		return nil
	}
	seen := make(map[string]bool)
	var policies []string
	for _, tok := range strings.Split(alignment, "|") {
		name := strings.TrimSpace(tok)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		policies = append(policies, name)
	}
	return policies
}
