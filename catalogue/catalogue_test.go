package catalogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/govmapmy/govgraph/graphstore"
)

// fakeRunner answers reads from a queue of canned results, recording each
// query for inspection.
type fakeRunner struct {
	reads   []fakeRead
	results [][]graphstore.Record
	err     error
}

type fakeRead struct {
	cypher string
	params map[string]any
}

func (f *fakeRunner) Read(ctx context.Context, cypher string, params map[string]any) ([]graphstore.Record, error) {
	f.reads = append(f.reads, fakeRead{cypher: cypher, params: params})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	out := f.results[0]
	f.results = f.results[1:]
	return out, nil
}

// ---------------------------------------------------------------------------
// Entity search
// ---------------------------------------------------------------------------

func TestFindEntitiesParameterizesName(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{"id": "MIN001", "name": "Ministry of Digital", "type": "Ministry", "mandate": "Digital policy"},
	}}}
	hits, err := New(db).FindEntities(context.Background(), "digital")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "MIN001" || hits[0].Type != "Ministry" {
		t.Errorf("hits = %v", hits)
	}

	read := db.reads[0]
	if read.params["name"] != "digital" {
		t.Errorf("name param = %v, want digital", read.params["name"])
	}
	// Caller input must travel as a parameter, never inside the query text.
	if strings.Contains(read.cypher, "digital") {
		t.Errorf("query text contains caller input:\n%s", read.cypher)
	}
}

func TestFindEntitiesEmptyResult(t *testing.T) {
	hits, err := New(&fakeRunner{}).FindEntities(context.Background(), "nothing")
	if err != nil {
		t.Fatal(err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("empty result must be an empty slice, got %v", hits)
	}
}

// ---------------------------------------------------------------------------
// Hierarchy
// ---------------------------------------------------------------------------

func TestHierarchyAncestorsNearestFirst(t *testing.T) {
	// C reports to B reports to A: C's ancestors are [B, A].
	db := &fakeRunner{results: [][]graphstore.Record{
		{{"name": "Unit C"}},
		{
			{"id": "B", "name": "Division B", "type": "Division", "depth": int64(1)},
			{"id": "A", "name": "Ministry A", "type": "Ministry", "depth": int64(2)},
		},
		{},
	}}
	h, err := New(db).Hierarchy(context.Background(), "C")
	if err != nil {
		t.Fatal(err)
	}
	if h.EntityName != "Unit C" {
		t.Errorf("EntityName = %q, want Unit C", h.EntityName)
	}
	if len(h.Ancestors) != 2 || h.Ancestors[0].ID != "B" || h.Ancestors[1].ID != "A" {
		t.Errorf("Ancestors = %v, want [B, A]", h.Ancestors)
	}
	if h.Ancestors[0].Depth != 1 || h.Ancestors[1].Depth != 2 {
		t.Errorf("depths = %d/%d, want 1/2", h.Ancestors[0].Depth, h.Ancestors[1].Depth)
	}
	if len(h.Children) != 0 {
		t.Errorf("Children = %v, want none", h.Children)
	}
}

func TestHierarchyUnknownEntity(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{}}}
	h, err := New(db).Hierarchy(context.Background(), "GHOST")
	if err != nil {
		t.Fatal(err)
	}
	if h.EntityName != "" || h.Ancestors != nil || h.Children != nil {
		t.Errorf("unknown entity should yield an empty hierarchy, got %+v", h)
	}
	// Only the existence probe should run.
	if len(db.reads) != 1 {
		t.Errorf("reads = %d, want 1", len(db.reads))
	}
}

// ---------------------------------------------------------------------------
// People, partners, decision makers
// ---------------------------------------------------------------------------

func TestPeopleForOrdersByConfidence(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{"name": "Aminah", "title": "Secretary General", "role": "Executive",
			"focus": "AI", "email": "a@gov.my", "confidence": 0.95},
		{"name": "Badrul", "title": "Director", "role": "Operational",
			"focus": "Cloud", "email": "b@gov.my", "confidence": 0.7},
	}}}
	hits, err := New(db).PeopleFor(context.Background(), "MIN001")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Name != "Aminah" || hits[0].Confidence != 0.95 {
		t.Errorf("hits = %v", hits)
	}
	if !strings.Contains(db.reads[0].cypher, "ORDER BY p.confidence_score DESC") {
		t.Errorf("personnel query must order by confidence:\n%s", db.reads[0].cypher)
	}
}

func TestPartnersForCarriesContractFields(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{"company": "Acme Sdn Bhd", "relationship": "Vendor",
			"value": int64(1200000), "year": int64(2023), "stage": "Awarded"},
	}}}
	hits, err := New(db).PartnersFor(context.Background(), "MIN001")
	if err != nil {
		t.Fatal(err)
	}
	h := hits[0]
	if h.Company != "Acme Sdn Bhd" || h.ContractValueRM != 1200000 ||
		h.ContractYear != 2023 || h.ProcurementStage != "Awarded" {
		t.Errorf("hit = %+v", h)
	}
}

func TestDecisionMakersQueryShape(t *testing.T) {
	db := &fakeRunner{}
	if _, err := New(db).DecisionMakers(context.Background(), "AI"); err != nil {
		t.Fatal(err)
	}
	q := db.reads[0].cypher
	if !strings.Contains(q, "p.role_type IN ['Political', 'Executive']") {
		t.Errorf("decision makers must filter on role type:\n%s", q)
	}
	if !strings.Contains(q, "LIMIT 20") {
		t.Errorf("decision makers must cap at 20:\n%s", q)
	}
	if db.reads[0].params["focus_area"] != "AI" {
		t.Errorf("focus_area param = %v", db.reads[0].params["focus_area"])
	}
}

// ---------------------------------------------------------------------------
// Shortest paths
// ---------------------------------------------------------------------------

func TestShortestPathsRendersTypedNodes(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{
			"path": []any{
				map[string]any{"kind": "Entity", "name": "Ministry of Digital", "title": nil},
				map[string]any{"kind": "Person", "name": "Aminah", "title": "Secretary General"},
			},
			"hops": int64(1),
		},
	}}}
	paths, err := New(db).ShortestPaths(context.Background(), "MIN001", "AI")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0].Hops != 1 {
		t.Fatalf("paths = %v", paths)
	}
	nodes := paths[0].Nodes
	if nodes[0].Kind != "Entity" || nodes[1].Kind != "Person" || nodes[1].Title != "Secretary General" {
		t.Errorf("nodes = %v", nodes)
	}

	q := db.reads[0].cypher
	if !strings.Contains(q, "shortestPath((start)-[*..5]-(target))") {
		t.Errorf("path query must bound at 5 hops:\n%s", q)
	}
	if !strings.Contains(q, "LIMIT 5") {
		t.Errorf("path query must cap at 5 paths:\n%s", q)
	}
}

func TestShortestPathsNoneWithinBound(t *testing.T) {
	paths, err := New(&fakeRunner{}).ShortestPaths(context.Background(), "MIN001", "AI")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Errorf("paths = %v, want none", paths)
	}
}

// ---------------------------------------------------------------------------
// Statistics and connectivity
// ---------------------------------------------------------------------------

func TestStatisticsIndependentCounts(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{
		{{"count": int64(12)}},
		{{"count": int64(40)}},
		{{"count": int64(8)}},
		{{"count": int64(5)}},
		{{"count": int64(90)}},
	}}
	stats, err := New(db).Statistics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 5 {
		t.Fatalf("stats = %v, want 5 metrics", stats)
	}
	for _, metric := range []string{"entities", "people", "companies", "policies", "relationships"} {
		if _, ok := stats[metric]; !ok {
			t.Errorf("missing metric %q in %v", metric, stats)
		}
	}
	// Five independent single-count queries, not one chained traversal.
	if len(db.reads) != 5 {
		t.Errorf("reads = %d, want 5", len(db.reads))
	}
	for _, r := range db.reads {
		if !strings.Contains(r.cypher, "count(") {
			t.Errorf("statistics read is not a count:\n%s", r.cypher)
		}
	}
}

func TestMostConnectedKindWhitelist(t *testing.T) {
	db := &fakeRunner{}
	c := New(db)

	if _, err := c.MostConnected(context.Background(), Kind("Entity) DETACH DELETE (x")); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unlisted kind must be rejected, got %v", err)
	}
	if len(db.reads) != 0 {
		t.Error("rejected kind must not reach the graph")
	}

	if _, err := c.MostConnected(context.Background(), KindEntity); err != nil {
		t.Fatal(err)
	}
	q := db.reads[0].cypher
	if !strings.Contains(q, "MATCH (n:Entity)") {
		t.Errorf("entity filter must select the Entity query:\n%s", q)
	}
	if !strings.Contains(q, "ORDER BY degree DESC, id") {
		t.Errorf("ranking must tie-break on identity key:\n%s", q)
	}
	if !strings.Contains(q, "LIMIT 10") {
		t.Errorf("ranking must cap at 10:\n%s", q)
	}
}

func TestMostConnectedAnyKind(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{"id": "MIN001", "name": "Ministry of Digital", "kind": "Entity", "degree": int64(14)},
		{"id": "P001", "name": "Aminah", "kind": "Person", "degree": int64(3)},
	}}}
	nodes, err := New(db).MostConnected(context.Background(), KindAny)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 || nodes[0].Degree != 14 || nodes[1].Kind != "Person" {
		t.Errorf("nodes = %v", nodes)
	}
}

// ---------------------------------------------------------------------------
// Ecosystem, network, flow, export
// ---------------------------------------------------------------------------

func TestPolicyEcosystemParameterizesPolicy(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{"entity": "MDEC", "type": "Agency", "key_people": int64(4), "partners": int64(7)},
	}}}
	entries, err := New(db).PolicyEcosystem(context.Background(), "MyDIGITAL")
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Entity != "MDEC" || entries[0].Partners != 7 {
		t.Errorf("entries = %v", entries)
	}
	if db.reads[0].params["policy_name"] != "MyDIGITAL" {
		t.Errorf("policy_name param = %v", db.reads[0].params["policy_name"])
	}
}

func TestCompanyNetworkGroupsByCompany(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{"company": "Acme Sdn Bhd", "entity": "MDEC", "type": "Agency",
			"relationship": "Vendor", "value": int64(500000), "year": int64(2023)},
		{"company": "Acme Sdn Bhd", "entity": "Ministry of Digital", "type": "Ministry",
			"relationship": "Consultant", "value": int64(250000), "year": int64(2024)},
	}}}
	networks, err := New(db).CompanyNetwork(context.Background(), "acme")
	if err != nil {
		t.Fatal(err)
	}
	if len(networks) != 1 {
		t.Fatalf("networks = %v, want one company", networks)
	}
	if len(networks[0].Partnerships) != 2 {
		t.Errorf("partnerships = %v, want 2", networks[0].Partnerships)
	}
}

func TestProcurementFlowMinValueParam(t *testing.T) {
	db := &fakeRunner{}
	if _, err := New(db).ProcurementFlow(context.Background(), 1000000); err != nil {
		t.Fatal(err)
	}
	if db.reads[0].params["min_value"] != int64(1000000) {
		t.Errorf("min_value param = %v", db.reads[0].params["min_value"])
	}
}

func TestExportFlattensProperties(t *testing.T) {
	db := &fakeRunner{results: [][]graphstore.Record{{
		{"kind": "Entity", "props": map[string]any{"entity_id": "MIN001", "name": "Ministry of Digital"}},
	}}}
	rows, err := New(db).ExportNodes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	row := rows[0]
	if row["kind"] != "Entity" || row["entity_id"] != "MIN001" || row["name"] != "Ministry of Digital" {
		t.Errorf("row = %v", row)
	}

	db = &fakeRunner{results: [][]graphstore.Record{{
		{"source": "PTR001", "target": "MIN001", "type": "PARTNERS_WITH",
			"props": map[string]any{"contract_value_rm": int64(1200000)}},
	}}}
	edges, err := New(db).ExportEdges(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	edge := edges[0]
	if edge["type"] != "PARTNERS_WITH" || edge["contract_value_rm"] != int64(1200000) {
		t.Errorf("edge = %v", edge)
	}
}

func TestReadFailurePropagates(t *testing.T) {
	db := &fakeRunner{err: errors.New("connection refused")}
	if _, err := New(db).FindEntities(context.Background(), "x"); err == nil {
		t.Fatal("connectivity failure must propagate")
	}
}
