//go:build cgo

package semantic

import (
	"context"
	"hash/fnv"
	"math"
	"path/filepath"
	"testing"

	"github.com/govmapmy/govgraph/record"
)

// fakeEmbedder maps each text to a deterministic unit vector, so identical
// texts embed identically and the round-trip property holds without a live
// embedding backend.
type fakeEmbedder struct {
	dim int
}

func (f fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, f.dim)
		var norm float64
		for d := range vec {
			h := fnv.New32a()
			h.Write([]byte(text))
			h.Write([]byte{byte(d)})
			v := float64(h.Sum32()%1000)/500.0 - 1.0
			vec[d] = float32(v)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		for d := range vec {
			vec[d] = float32(float64(vec[d]) / norm)
		}
		out[i] = vec
	}
	return out, nil
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	ix, err := Open(path, fakeEmbedder{dim: 8}, 8)
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func sampleEntities() []record.Entity {
	return []record.Entity{
		{EntityID: "MIN001", Name: "Ministry of Digital", EntityType: "Ministry",
			Mandate: "Digital economy policy", PolicyAlignment: "MyDIGITAL"},
		{EntityID: "AGY001", Name: "MDEC", EntityType: "Agency",
			Mandate: "Digital economy development", ParentOrg: "MIN001"},
		{EntityID: "AGY002", Name: "CyberSecurity Malaysia", EntityType: "Agency",
			Mandate: "National cyber security"},
	}
}

// ---------------------------------------------------------------------------
// Indexing
// ---------------------------------------------------------------------------

func TestIndexEntitiesCountsAndSkipsInvalid(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	rows := append(sampleEntities(), record.Entity{EntityID: "", Name: "Nameless"})
	n, err := ix.IndexEntities(ctx, rows)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("indexed = %d, want 3", n)
	}

	stats, err := ix.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats["entities"] != 3 || stats["total"] != 3 {
		t.Errorf("stats = %v", stats)
	}
}

func TestReindexIsIdempotent(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := ix.IndexEntities(ctx, sampleEntities()); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := ix.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats["entities"] != 3 {
		t.Errorf("re-indexing must not duplicate documents, stats = %v", stats)
	}
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func TestSearchRoundTrip(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if _, err := ix.IndexEntities(ctx, sampleEntities()); err != nil {
		t.Fatal(err)
	}

	// Searching with a record's own synthesized document must return that
	// record as the top hit with relevance at 1.0.
	query := entityDocument(sampleEntities()[2])
	results, err := ix.SearchEntities(ctx, query, 3, Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	top := results[0]
	if top.ID != "entity_AGY002" {
		t.Errorf("top hit = %s, want entity_AGY002", top.ID)
	}
	if top.Relevance < 0.99 {
		t.Errorf("round-trip relevance = %v, want ~1.0", top.Relevance)
	}
	if top.Metadata["name"] != "CyberSecurity Malaysia" {
		t.Errorf("metadata = %v", top.Metadata)
	}
}

func TestSearchEntityTypeFilter(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if _, err := ix.IndexEntities(ctx, sampleEntities()); err != nil {
		t.Fatal(err)
	}
	results, err := ix.SearchEntities(ctx, "digital economy", 10, Filters{EntityType: "Agency"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 agencies", len(results))
	}
	for _, r := range results {
		if r.Metadata["entity_type"] != "Agency" {
			t.Errorf("filter leaked %v", r.Metadata)
		}
	}
}

func TestSearchPeopleConfidenceFilter(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	people := []record.Person{
		{PersonID: "P001", Name: "Aminah", Title: "Secretary General",
			RoleType: "Executive", FocusArea: "AI", EntityID: "MIN001", ConfidenceScore: "0.95"},
		{PersonID: "P002", Name: "Badrul", Title: "Analyst",
			RoleType: "Operational", FocusArea: "AI", EntityID: "MIN001", ConfidenceScore: "0.4"},
	}
	if _, err := ix.IndexPeople(ctx, people); err != nil {
		t.Fatal(err)
	}

	results, err := ix.SearchPeople(ctx, "AI leadership", 10, Filters{MinConfidence: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "person_P001" {
		t.Errorf("results = %v, want only P001", results)
	}

	results, err = ix.SearchPeople(ctx, "AI leadership", 10, Filters{RoleType: "Operational"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "person_P002" {
		t.Errorf("results = %v, want only P002", results)
	}
}

func TestSearchAllGroupsByCollection(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if _, err := ix.IndexEntities(ctx, sampleEntities()); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.IndexPeople(ctx, []record.Person{
		{PersonID: "P001", Name: "Aminah", Title: "Secretary General",
			RoleType: "Executive", FocusArea: "AI", EntityID: "MIN001"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.IndexPartners(ctx, []record.Partner{
		{PartnerID: "PTR001", CompanyName: "Acme Sdn Bhd",
			RelationshipType: "Vendor", FocusArea: "Cloud", EntityID: "MIN001"},
	}); err != nil {
		t.Fatal(err)
	}

	all, err := ix.SearchAll(ctx, "digital", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Entities) != 3 || len(all.People) != 1 || len(all.Partners) != 1 {
		t.Errorf("all = %d/%d/%d entities/people/partners",
			len(all.Entities), len(all.People), len(all.Partners))
	}
	if all.People[0].Category != People {
		t.Errorf("category = %q, want people", all.People[0].Category)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := newTestIndex(t)
	results, err := ix.SearchEntities(context.Background(), "anything", 5, Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}

// ---------------------------------------------------------------------------
// Similarity and answers
// ---------------------------------------------------------------------------

func TestFindSimilarExcludesSelf(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if _, err := ix.IndexEntities(ctx, sampleEntities()); err != nil {
		t.Fatal(err)
	}
	results, err := ix.FindSimilar(ctx, "MIN001", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no similar entities returned")
	}
	for _, r := range results {
		if r.ID == "entity_MIN001" {
			t.Error("FindSimilar must exclude the entity itself")
		}
	}
}

func TestFindSimilarUnknownEntity(t *testing.T) {
	ix := newTestIndex(t)
	results, err := ix.FindSimilar(context.Background(), "GHOST", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}

func TestAnswerQuestionRoutesToPeople(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if _, err := ix.IndexPeople(ctx, []record.Person{
		{PersonID: "P001", Name: "Aminah", Title: "Secretary General",
			RoleType: "Executive", FocusArea: "AI", EntityID: "MIN001"},
	}); err != nil {
		t.Fatal(err)
	}

	a, err := ix.AnswerQuestion(ctx, "Who oversees AI adoption?")
	if err != nil {
		t.Fatal(err)
	}
	if a.Category != People {
		t.Errorf("category = %q, want people", a.Category)
	}
	if len(a.Results) != 1 || a.Summary == "" {
		t.Errorf("answer = %+v", a)
	}
}

func TestHybridSearchKeywordBoost(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if _, err := ix.IndexEntities(ctx, sampleEntities()); err != nil {
		t.Fatal(err)
	}

	// With full keyword weight, the entity whose document contains the
	// query terms must rank first regardless of embedding distance.
	results, err := ix.HybridSearch(ctx, "cyber security", 1.0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].ID != "entity_AGY002" {
		t.Errorf("top hybrid hit = %s, want entity_AGY002", results[0].ID)
	}
	if results[0].Hybrid <= results[len(results)-1].Hybrid && len(results) > 1 {
		t.Errorf("hybrid scores not descending: %v", results)
	}
}
