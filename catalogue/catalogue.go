// Package catalogue is the fixed set of read queries the graph answers.
// Every query is parameterized; the only caller-controlled query shaping is
// a node-kind filter validated against a closed whitelist. Empty results
// are empty slices, never errors.
package catalogue

import (
	"context"
	"errors"
	"fmt"

	"github.com/govmapmy/govgraph/graphstore"
)

// ErrUnknownKind is returned when a node-kind filter is not one of the
// enumerated kinds.
var ErrUnknownKind = errors.New("catalogue: unknown node kind")

// Runner executes parameterized read queries. It is satisfied by
// *graphstore.Store; tests substitute a fake.
type Runner interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]graphstore.Record, error)
}

// Kind selects a node label in queries that filter by node kind.
type Kind string

const (
	KindAny     Kind = ""
	KindEntity  Kind = "entity"
	KindPerson  Kind = "person"
	KindCompany Kind = "company"
	KindPolicy  Kind = "policy"
)

// kindLabels is the closed whitelist mapping kind filters to labels. Query
// text only ever embeds values from this map, never caller input.
var kindLabels = map[Kind]string{
	KindEntity:  "Entity",
	KindPerson:  "Person",
	KindCompany: "Company",
	KindPolicy:  "Policy",
}

// Catalogue answers the fixed query set against an injected graph adapter.
type Catalogue struct {
	db Runner
}

// New creates a Catalogue reading through the given adapter.
func New(db Runner) *Catalogue {
	return &Catalogue{db: db}
}

// ---------------------------------------------------------------------------
// Entity search and hierarchy
// ---------------------------------------------------------------------------

// EntityHit is one fuzzy-search or policy-alignment match.
type EntityHit struct {
	ID      string
	Name    string
	Type    string
	Mandate string
}

const findEntitiesCypher = `
MATCH (e:Entity)
WHERE toLower(e.name) CONTAINS toLower($name)
RETURN e.entity_id AS id, e.name AS name, e.entity_type AS type,
       e.mandate AS mandate
ORDER BY e.name`

// FindEntities performs a case-insensitive substring search on entity names.
func (c *Catalogue) FindEntities(ctx context.Context, name string) ([]EntityHit, error) {
	records, err := c.db.Read(ctx, findEntitiesCypher, map[string]any{"name": name})
	if err != nil {
		return nil, fmt.Errorf("finding entities: %w", err)
	}
	return entityHits(records), nil
}

// RelatedEntity is one node in a hierarchy result.
type RelatedEntity struct {
	ID    string
	Name  string
	Type  string
	Depth int // hops from the queried entity; 1 for direct relations
}

// Hierarchy is an entity's position in the reporting structure: the full
// ancestor chain ordered nearest-first, plus direct children.
type Hierarchy struct {
	EntityID   string
	EntityName string
	Ancestors  []RelatedEntity
	Children   []RelatedEntity
}

const hierarchySelfCypher = `
MATCH (e:Entity {entity_id: $entity_id})
RETURN e.name AS name`

const hierarchyAncestorsCypher = `
MATCH path = (e:Entity {entity_id: $entity_id})-[:REPORTS_TO*1..]->(a:Entity)
RETURN a.entity_id AS id, a.name AS name, a.entity_type AS type,
       length(path) AS depth
ORDER BY depth`

const hierarchyChildrenCypher = `
MATCH (child:Entity)-[:REPORTS_TO]->(e:Entity {entity_id: $entity_id})
RETURN child.entity_id AS id, child.name AS name, child.entity_type AS type
ORDER BY child.name`

// Hierarchy returns the entity's ancestor chain, nearest parent first, and
// its direct children. An unknown entity id yields a Hierarchy whose
// EntityName is empty.
func (c *Catalogue) Hierarchy(ctx context.Context, entityID string) (Hierarchy, error) {
	h := Hierarchy{EntityID: entityID}
	params := map[string]any{"entity_id": entityID}

	self, err := c.db.Read(ctx, hierarchySelfCypher, params)
	if err != nil {
		return h, fmt.Errorf("resolving entity: %w", err)
	}
	if len(self) == 0 {
		return h, nil
	}
	h.EntityName = asString(self[0]["name"])

	ancestors, err := c.db.Read(ctx, hierarchyAncestorsCypher, params)
	if err != nil {
		return h, fmt.Errorf("expanding ancestors: %w", err)
	}
	for _, r := range ancestors {
		h.Ancestors = append(h.Ancestors, RelatedEntity{
			ID:    asString(r["id"]),
			Name:  asString(r["name"]),
			Type:  asString(r["type"]),
			Depth: int(asInt(r["depth"])),
		})
	}

	children, err := c.db.Read(ctx, hierarchyChildrenCypher, params)
	if err != nil {
		return h, fmt.Errorf("expanding children: %w", err)
	}
	for _, r := range children {
		h.Children = append(h.Children, RelatedEntity{
			ID:    asString(r["id"]),
			Name:  asString(r["name"]),
			Type:  asString(r["type"]),
			Depth: 1,
		})
	}
	return h, nil
}

// ---------------------------------------------------------------------------
// People and partners
// ---------------------------------------------------------------------------

// PersonHit is one personnel or decision-maker match.
type PersonHit struct {
	Name         string
	Title        string
	RoleType     string
	FocusArea    string
	Organization string
	Email        string
	Confidence   float64
}

const peopleForCypher = `
MATCH (p:Person)-[:WORKS_FOR]->(e:Entity {entity_id: $entity_id})
RETURN p.name AS name, p.title AS title, p.role_type AS role,
       p.focus_area AS focus, p.email AS email,
       p.confidence_score AS confidence
ORDER BY p.confidence_score DESC`

// PeopleFor lists everyone working for the entity, highest confidence first.
func (c *Catalogue) PeopleFor(ctx context.Context, entityID string) ([]PersonHit, error) {
	records, err := c.db.Read(ctx, peopleForCypher, map[string]any{"entity_id": entityID})
	if err != nil {
		return nil, fmt.Errorf("listing personnel: %w", err)
	}
	return personHits(records), nil
}

const decisionMakersCypher = `
MATCH (p:Person)-[:WORKS_FOR]->(e:Entity)
WHERE toLower(p.focus_area) CONTAINS toLower($focus_area)
  AND p.role_type IN ['Political', 'Executive']
RETURN p.name AS name, p.title AS title, p.focus_area AS focus,
       e.name AS organization, p.email AS email,
       p.confidence_score AS confidence
ORDER BY p.confidence_score DESC
LIMIT 20`

// DecisionMakers finds political and executive personnel whose focus area
// matches the given substring, highest confidence first, capped at 20.
func (c *Catalogue) DecisionMakers(ctx context.Context, focusArea string) ([]PersonHit, error) {
	records, err := c.db.Read(ctx, decisionMakersCypher, map[string]any{"focus_area": focusArea})
	if err != nil {
		return nil, fmt.Errorf("finding decision makers: %w", err)
	}
	return personHits(records), nil
}

// PartnerHit is one company partnership with its contract attributes.
type PartnerHit struct {
	Company          string
	RelationshipType string
	ContractValueRM  int64
	ContractYear     int64
	ProcurementStage string
}

const partnersForCypher = `
MATCH (c:Company)-[r:PARTNERS_WITH]->(e:Entity {entity_id: $entity_id})
RETURN c.name AS company, r.relationship_type AS relationship,
       r.contract_value_rm AS value, r.contract_year AS year,
       r.procurement_stage AS stage
ORDER BY r.contract_value_rm DESC`

// PartnersFor lists the entity's private-sector partners, largest contract
// first.
func (c *Catalogue) PartnersFor(ctx context.Context, entityID string) ([]PartnerHit, error) {
	records, err := c.db.Read(ctx, partnersForCypher, map[string]any{"entity_id": entityID})
	if err != nil {
		return nil, fmt.Errorf("listing partners: %w", err)
	}
	hits := make([]PartnerHit, 0, len(records))
	for _, r := range records {
		hits = append(hits, PartnerHit{
			Company:          asString(r["company"]),
			RelationshipType: asString(r["relationship"]),
			ContractValueRM:  asInt(r["value"]),
			ContractYear:     asInt(r["year"]),
			ProcurementStage: asString(r["stage"]),
		})
	}
	return hits, nil
}

// ---------------------------------------------------------------------------
// Policy queries
// ---------------------------------------------------------------------------

const alignedToCypher = `
MATCH (e:Entity)-[:ALIGNED_TO]->(p:Policy {name: $policy_name})
RETURN e.entity_id AS id, e.name AS name, e.entity_type AS type,
       e.mandate AS mandate
ORDER BY e.entity_type, e.name`

// EntitiesAlignedTo lists every entity aligned to the named policy.
func (c *Catalogue) EntitiesAlignedTo(ctx context.Context, policy string) ([]EntityHit, error) {
	records, err := c.db.Read(ctx, alignedToCypher, map[string]any{"policy_name": policy})
	if err != nil {
		return nil, fmt.Errorf("listing aligned entities: %w", err)
	}
	return entityHits(records), nil
}

// EcosystemEntry summarizes one entity inside a policy ecosystem.
type EcosystemEntry struct {
	Entity    string
	Type      string
	KeyPeople int64
	Partners  int64
}

const policyEcosystemCypher = `
MATCH (e:Entity)-[:ALIGNED_TO]->(p:Policy {name: $policy_name})
OPTIONAL MATCH (person:Person)-[:WORKS_FOR]->(e)
OPTIONAL MATCH (company:Company)-[:PARTNERS_WITH]->(e)
RETURN e.name AS entity, e.entity_type AS type,
       count(DISTINCT person) AS key_people,
       count(DISTINCT company) AS partners
ORDER BY key_people DESC, partners DESC`

// PolicyEcosystem summarizes every entity aligned to the named policy with
// its personnel and partner counts.
func (c *Catalogue) PolicyEcosystem(ctx context.Context, policy string) ([]EcosystemEntry, error) {
	records, err := c.db.Read(ctx, policyEcosystemCypher, map[string]any{"policy_name": policy})
	if err != nil {
		return nil, fmt.Errorf("summarizing policy ecosystem: %w", err)
	}
	entries := make([]EcosystemEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, EcosystemEntry{
			Entity:    asString(r["entity"]),
			Type:      asString(r["type"]),
			KeyPeople: asInt(r["key_people"]),
			Partners:  asInt(r["partners"]),
		})
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// Company network and procurement
// ---------------------------------------------------------------------------

// Partnership is one government relationship within a company's network.
type Partnership struct {
	Entity           string
	EntityType       string
	RelationshipType string
	ContractValueRM  int64
	ContractYear     int64
}

// CompanyNetwork is every government entity a company works with.
type CompanyNetwork struct {
	Company      string
	Partnerships []Partnership
}

const companyNetworkCypher = `
MATCH (c:Company)-[r:PARTNERS_WITH]->(e:Entity)
WHERE toLower(c.name) CONTAINS toLower($company_name)
RETURN c.name AS company, e.name AS entity, e.entity_type AS type,
       r.relationship_type AS relationship, r.contract_value_rm AS value,
       r.contract_year AS year
ORDER BY r.contract_value_rm DESC`

// CompanyNetwork lists the government relationships of every company whose
// name matches the given substring, grouped per company.
func (c *Catalogue) CompanyNetwork(ctx context.Context, companyName string) ([]CompanyNetwork, error) {
	records, err := c.db.Read(ctx, companyNetworkCypher, map[string]any{"company_name": companyName})
	if err != nil {
		return nil, fmt.Errorf("mapping company network: %w", err)
	}

	index := make(map[string]int)
	networks := make([]CompanyNetwork, 0)
	for _, r := range records {
		company := asString(r["company"])
		i, ok := index[company]
		if !ok {
			i = len(networks)
			index[company] = i
			networks = append(networks, CompanyNetwork{Company: company})
		}
		networks[i].Partnerships = append(networks[i].Partnerships, Partnership{
			Entity:           asString(r["entity"]),
			EntityType:       asString(r["type"]),
			RelationshipType: asString(r["relationship"]),
			ContractValueRM:  asInt(r["value"]),
			ContractYear:     asInt(r["year"]),
		})
	}
	return networks, nil
}

// FlowEdge is one entity-to-company procurement edge, sized by contract
// value.
type FlowEdge struct {
	Source string // government entity
	Target string // company
	Value  int64
	Type   string
}

const procurementFlowCypher = `
MATCH (c:Company)-[r:PARTNERS_WITH]->(e:Entity)
WHERE r.contract_value_rm >= $min_value
RETURN e.name AS source, c.name AS target,
       r.contract_value_rm AS value, r.relationship_type AS type
ORDER BY r.contract_value_rm DESC`

// ProcurementFlow lists partnerships at or above the given contract value,
// largest first, shaped for flow diagrams.
func (c *Catalogue) ProcurementFlow(ctx context.Context, minValue int64) ([]FlowEdge, error) {
	records, err := c.db.Read(ctx, procurementFlowCypher, map[string]any{"min_value": minValue})
	if err != nil {
		return nil, fmt.Errorf("listing procurement flow: %w", err)
	}
	edges := make([]FlowEdge, 0, len(records))
	for _, r := range records {
		edges = append(edges, FlowEdge{
			Source: asString(r["source"]),
			Target: asString(r["target"]),
			Value:  asInt(r["value"]),
			Type:   asString(r["type"]),
		})
	}
	return edges, nil
}

// ---------------------------------------------------------------------------
// Shortest paths
// ---------------------------------------------------------------------------

// PathNode is one typed node along a path.
type PathNode struct {
	Kind  string // Entity, Person, Company, Policy
	Name  string
	Title string // set for Person nodes
}

// Path is one shortest path with its hop count.
type Path struct {
	Nodes []PathNode
	Hops  int
}

const shortestPathsCypher = `
MATCH (start:Entity {entity_id: $start_entity_id})
MATCH (target:Person)
WHERE toLower(target.focus_area) CONTAINS toLower($target_focus)
  AND target.role_type IN ['Political', 'Executive']
MATCH path = shortestPath((start)-[*..5]-(target))
RETURN [node IN nodes(path) |
        {kind: labels(node)[0], name: node.name, title: node.title}
       ] AS path,
       length(path) AS hops
ORDER BY hops
LIMIT 5`

// ShortestPaths finds up to five shortest unweighted paths, bounded at five
// hops, from the start entity to any decision maker matching the focus-area
// substring. No path within the bound yields an empty slice.
func (c *Catalogue) ShortestPaths(ctx context.Context, startEntityID, targetFocus string) ([]Path, error) {
	records, err := c.db.Read(ctx, shortestPathsCypher, map[string]any{
		"start_entity_id": startEntityID,
		"target_focus":    targetFocus,
	})
	if err != nil {
		return nil, fmt.Errorf("finding shortest paths: %w", err)
	}

	paths := make([]Path, 0, len(records))
	for _, r := range records {
		p := Path{Hops: int(asInt(r["hops"]))}
		nodes, _ := r["path"].([]any)
		for _, n := range nodes {
			attrs, _ := n.(map[string]any)
			p.Nodes = append(p.Nodes, PathNode{
				Kind:  asString(attrs["kind"]),
				Name:  asString(attrs["name"]),
				Title: asString(attrs["title"]),
			})
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// ---------------------------------------------------------------------------
// Statistics and connectivity
// ---------------------------------------------------------------------------

// Statistics runs one independent count per node kind plus a relationship
// count, returned as a flat metric map. Counts are independent so an empty
// kind reports zero instead of zeroing out the whole result.
func (c *Catalogue) Statistics(ctx context.Context) (map[string]int64, error) {
	counts := map[string]string{
		"entities":      "MATCH (e:Entity) RETURN count(e) AS count",
		"people":        "MATCH (p:Person) RETURN count(p) AS count",
		"companies":     "MATCH (c:Company) RETURN count(c) AS count",
		"policies":      "MATCH (pol:Policy) RETURN count(pol) AS count",
		"relationships": "MATCH ()-[r]->() RETURN count(r) AS count",
	}

	stats := make(map[string]int64, len(counts))
	for metric, cypher := range counts {
		records, err := c.db.Read(ctx, cypher, nil)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", metric, err)
		}
		if len(records) > 0 {
			stats[metric] = asInt(records[0]["count"])
		}
	}
	return stats, nil
}

// ConnectedNode is one entry in the degree ranking.
type ConnectedNode struct {
	ID     string
	Name   string
	Kind   string
	Degree int64
}

const mostConnectedAnyCypher = `
MATCH (n)
OPTIONAL MATCH (n)-[r]-()
WITH n, count(r) AS degree,
     coalesce(n.entity_id, n.person_id, n.partner_id, n.name) AS id
RETURN id, n.name AS name, labels(n)[0] AS kind, degree
ORDER BY degree DESC, id
LIMIT 10`

// mostConnectedByKind holds one fixed query per whitelisted kind. The label
// is baked into each constant, so no caller input ever reaches query text.
var mostConnectedByKind = map[Kind]string{
	KindEntity: `
MATCH (n:Entity)
OPTIONAL MATCH (n)-[r]-()
WITH n, count(r) AS degree, n.entity_id AS id
RETURN id, n.name AS name, 'Entity' AS kind, degree
ORDER BY degree DESC, id
LIMIT 10`,
	KindPerson: `
MATCH (n:Person)
OPTIONAL MATCH (n)-[r]-()
WITH n, count(r) AS degree, n.person_id AS id
RETURN id, n.name AS name, 'Person' AS kind, degree
ORDER BY degree DESC, id
LIMIT 10`,
	KindCompany: `
MATCH (n:Company)
OPTIONAL MATCH (n)-[r]-()
WITH n, count(r) AS degree, n.partner_id AS id
RETURN id, n.name AS name, 'Company' AS kind, degree
ORDER BY degree DESC, id
LIMIT 10`,
	KindPolicy: `
MATCH (n:Policy)
OPTIONAL MATCH (n)-[r]-()
WITH n, count(r) AS degree, n.name AS id
RETURN id, n.name AS name, 'Policy' AS kind, degree
ORDER BY degree DESC, id
LIMIT 10`,
}

// MostConnected ranks nodes by degree across all relationship directions,
// top 10, ties broken by identity key for reproducible ordering. KindAny
// ranks across every node kind.
func (c *Catalogue) MostConnected(ctx context.Context, kind Kind) ([]ConnectedNode, error) {
	cypher := mostConnectedAnyCypher
	if kind != KindAny {
		q, ok := mostConnectedByKind[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		cypher = q
	}

	records, err := c.db.Read(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("ranking connectivity: %w", err)
	}
	nodes := make([]ConnectedNode, 0, len(records))
	for _, r := range records {
		nodes = append(nodes, ConnectedNode{
			ID:     asString(r["id"]),
			Name:   asString(r["name"]),
			Kind:   asString(r["kind"]),
			Degree: asInt(r["degree"]),
		})
	}
	return nodes, nil
}

// ---------------------------------------------------------------------------
// Bulk export
// ---------------------------------------------------------------------------

const exportNodesCypher = `
MATCH (n)
RETURN labels(n)[0] AS kind, properties(n) AS props`

const exportEdgesCypher = `
MATCH (a)-[r]->(b)
RETURN coalesce(a.entity_id, a.person_id, a.partner_id, a.name) AS source,
       coalesce(b.entity_id, b.person_id, b.partner_id, b.name) AS target,
       type(r) AS type, properties(r) AS props`

// ExportNodes returns every node as a flat record: the node kind plus its
// flattened property map.
func (c *Catalogue) ExportNodes(ctx context.Context) ([]graphstore.Record, error) {
	records, err := c.db.Read(ctx, exportNodesCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("exporting nodes: %w", err)
	}
	flat := make([]graphstore.Record, 0, len(records))
	for _, r := range records {
		row := graphstore.Record{"kind": r["kind"]}
		if props, ok := r["props"].(map[string]any); ok {
			for k, v := range props {
				row[k] = v
			}
		}
		flat = append(flat, row)
	}
	return flat, nil
}

// ExportEdges returns every relationship as a flat record: source and
// target identity keys, relationship type, and flattened edge properties.
func (c *Catalogue) ExportEdges(ctx context.Context) ([]graphstore.Record, error) {
	records, err := c.db.Read(ctx, exportEdgesCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("exporting edges: %w", err)
	}
	flat := make([]graphstore.Record, 0, len(records))
	for _, r := range records {
		row := graphstore.Record{
			"source": r["source"],
			"target": r["target"],
			"type":   r["type"],
		}
		if props, ok := r["props"].(map[string]any); ok {
			for k, v := range props {
				row[k] = v
			}
		}
		flat = append(flat, row)
	}
	return flat, nil
}

// ---------------------------------------------------------------------------
// Record conversion
// ---------------------------------------------------------------------------

func entityHits(records []graphstore.Record) []EntityHit {
	hits := make([]EntityHit, 0, len(records))
	for _, r := range records {
		hits = append(hits, EntityHit{
			ID:      asString(r["id"]),
			Name:    asString(r["name"]),
			Type:    asString(r["type"]),
			Mandate: asString(r["mandate"]),
		})
	}
	return hits
}

func personHits(records []graphstore.Record) []PersonHit {
	hits := make([]PersonHit, 0, len(records))
	for _, r := range records {
		hits = append(hits, PersonHit{
			Name:         asString(r["name"]),
			Title:        asString(r["title"]),
			RoleType:     asString(r["role"]),
			FocusArea:    asString(r["focus"]),
			Organization: asString(r["organization"]),
			Email:        asString(r["email"]),
			Confidence:   asFloat(r["confidence"]),
		})
	}
	return hits
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}
