// Package semantic maintains a persistent embedding index over synthesized
// documents for entities, people, and partners, and answers natural-language
// similarity queries against it. Storage is SQLite with sqlite-vec; the
// embedding backend is injected.
package semantic

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/govmapmy/govgraph/record"
)

func init() {
	sqlite_vec.Auto()
}

// Embedder generates one embedding per input text, in input order. It is
// satisfied by embed.Provider.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Collection names one of the three indexed record kinds.
type Collection string

const (
	Entities Collection = "entities"
	People   Collection = "people"
	Partners Collection = "partners"
)

// Result is one search hit: the indexed record's stable id, its stored
// metadata, the synthesized document, and a relevance score derived from
// embedding distance (1 is identical).
type Result struct {
	ID        string         `json:"id"`
	Metadata  map[string]any `json:"metadata"`
	Document  string         `json:"document"`
	Relevance float64        `json:"relevance"`

	// Category is set on cross-collection results.
	Category Collection `json:"category,omitempty"`
	// Hybrid is set by HybridSearch.
	Hybrid float64 `json:"hybrid,omitempty"`
}

// Filters narrows a search to records matching metadata attributes. Zero
// values mean no filtering.
type Filters struct {
	EntityType       string
	RoleType         string
	RelationshipType string
	MinConfidence    float64
}

// Index is the semantic search store. Writes replace any previous document
// with the same stable id, so re-indexing is idempotent.
type Index struct {
	db       *sql.DB
	embedder Embedder
	dim      int
}

func schemaSQL(dim int) string {
	return fmt.Sprintf(`
-- Synthesized documents, one row per indexed record
CREATE TABLE IF NOT EXISTS docs (
    id INTEGER PRIMARY KEY,
    doc_id TEXT NOT NULL UNIQUE,
    collection TEXT NOT NULL,
    document TEXT NOT NULL,
    metadata JSON NOT NULL,
    entity_type TEXT DEFAULT '',
    role_type TEXT DEFAULT '',
    relationship_type TEXT DEFAULT '',
    confidence REAL DEFAULT 0,
    indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Vector embeddings via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_docs USING vec0(
    doc_rowid INTEGER PRIMARY KEY,
    embedding float[%d]
);

CREATE INDEX IF NOT EXISTS idx_docs_collection ON docs(collection);
`, dim)
}

// Open opens (or creates) the index database at the given path.
func Open(path string, embedder Embedder, dim int) (*Index, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging index database: %w", err)
	}
	if _, err := db.Exec(schemaSQL(dim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Index{db: db, embedder: embedder, dim: dim}, nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// ---------------------------------------------------------------------------
// Indexing
// ---------------------------------------------------------------------------

// IndexEntities synthesizes and indexes one document per valid entity row.
// Returns the number of documents indexed.
func (ix *Index) IndexEntities(ctx context.Context, rows []record.Entity) (int, error) {
	docs := make([]pendingDoc, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			continue
		}
		docs = append(docs, pendingDoc{
			id:         "entity_" + r.EntityID,
			collection: Entities,
			document:   entityDocument(r),
			metadata:   entityMetadata(r),
			entityType: r.EntityType,
		})
	}
	return ix.indexBatch(ctx, docs)
}

// IndexPeople synthesizes and indexes one document per valid person row.
func (ix *Index) IndexPeople(ctx context.Context, rows []record.Person) (int, error) {
	docs := make([]pendingDoc, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			continue
		}
		score, _ := record.Clamp01(r.ConfidenceScore, 0.5)
		docs = append(docs, pendingDoc{
			id:         "person_" + r.PersonID,
			collection: People,
			document:   personDocument(r),
			metadata:   personMetadata(r, score),
			roleType:   r.RoleType,
			confidence: score,
		})
	}
	return ix.indexBatch(ctx, docs)
}

// IndexPartners synthesizes and indexes one document per valid partner row.
func (ix *Index) IndexPartners(ctx context.Context, rows []record.Partner) (int, error) {
	docs := make([]pendingDoc, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			continue
		}
		docs = append(docs, pendingDoc{
			id:               "partner_" + r.PartnerID,
			collection:       Partners,
			document:         partnerDocument(r),
			metadata:         partnerMetadata(r),
			relationshipType: r.RelationshipType,
		})
	}
	return ix.indexBatch(ctx, docs)
}

type pendingDoc struct {
	id               string
	collection       Collection
	document         string
	metadata         map[string]any
	entityType       string
	roleType         string
	relationshipType string
	confidence       float64
}

func (ix *Index) indexBatch(ctx context.Context, docs []pendingDoc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.document
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("embedding count mismatch: got %d vectors for %d documents", len(vectors), len(docs))
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i, d := range docs {
		meta, err := json.Marshal(d.metadata)
		if err != nil {
			return 0, fmt.Errorf("encoding metadata for %s: %w", d.id, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO docs (doc_id, collection, document, metadata,
				entity_type, role_type, relationship_type, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(doc_id) DO UPDATE SET
				document = excluded.document,
				metadata = excluded.metadata,
				entity_type = excluded.entity_type,
				role_type = excluded.role_type,
				relationship_type = excluded.relationship_type,
				confidence = excluded.confidence,
				indexed_at = CURRENT_TIMESTAMP
		`, d.id, string(d.collection), d.document, string(meta),
			d.entityType, d.roleType, d.relationshipType, d.confidence); err != nil {
			return 0, fmt.Errorf("upserting %s: %w", d.id, err)
		}

		var rowid int64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM docs WHERE doc_id = ?", d.id).Scan(&rowid); err != nil {
			return 0, err
		}
		// vec0 has no upsert; delete then insert keeps re-indexing clean.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM vec_docs WHERE doc_rowid = ?", rowid); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO vec_docs (doc_rowid, embedding) VALUES (?, ?)",
			rowid, serializeFloat32(vectors[i])); err != nil {
			return 0, fmt.Errorf("storing embedding for %s: %w", d.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("semantic: documents indexed",
		"collection", docs[0].collection, "count", len(docs))
	return len(docs), nil
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

// SearchEntities searches the entity collection.
func (ix *Index) SearchEntities(ctx context.Context, query string, n int, f Filters) ([]Result, error) {
	return ix.search(ctx, Entities, query, n, f)
}

// SearchPeople searches the people collection.
func (ix *Index) SearchPeople(ctx context.Context, query string, n int, f Filters) ([]Result, error) {
	return ix.search(ctx, People, query, n, f)
}

// SearchPartners searches the partner collection.
func (ix *Index) SearchPartners(ctx context.Context, query string, n int, f Filters) ([]Result, error) {
	return ix.search(ctx, Partners, query, n, f)
}

// AllResults groups one search's hits per collection.
type AllResults struct {
	Entities []Result `json:"entities"`
	People   []Result `json:"people"`
	Partners []Result `json:"partners"`
}

// SearchAll runs the same query against every collection, n results each.
func (ix *Index) SearchAll(ctx context.Context, query string, n int) (AllResults, error) {
	var all AllResults
	var err error
	if all.Entities, err = ix.SearchEntities(ctx, query, n, Filters{}); err != nil {
		return all, err
	}
	if all.People, err = ix.SearchPeople(ctx, query, n, Filters{}); err != nil {
		return all, err
	}
	if all.Partners, err = ix.SearchPartners(ctx, query, n, Filters{}); err != nil {
		return all, err
	}
	return all, nil
}

func (ix *Index) search(ctx context.Context, col Collection, query string, n int, f Filters) ([]Result, error) {
	if n <= 0 {
		n = 10
	}
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors, want 1", len(vectors))
	}
	return ix.searchVector(ctx, col, vectors[0], n, f, "")
}

// searchVector runs KNN over the whole vec table, then applies collection
// and metadata filters. k is enlarged because the nearest neighbours of a
// query are spread across collections.
func (ix *Index) searchVector(ctx context.Context, col Collection, vec []float32, n int, f Filters, excludeID string) ([]Result, error) {
	k := (n + 1) * 8
	rows, err := ix.db.QueryContext(ctx, `
		SELECT v.distance, d.doc_id, d.collection, d.document, d.metadata,
			d.entity_type, d.role_type, d.relationship_type, d.confidence
		FROM vec_docs v
		JOIN docs d ON d.id = v.doc_rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(vec), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0, n)
	for rows.Next() {
		var (
			distance                    float64
			docID, collection, document string
			metaJSON                    string
			entityType, roleType        string
			relationshipType            string
			confidence                  float64
		)
		if err := rows.Scan(&distance, &docID, &collection, &document, &metaJSON,
			&entityType, &roleType, &relationshipType, &confidence); err != nil {
			return nil, err
		}

		if Collection(collection) != col || docID == excludeID {
			continue
		}
		if f.EntityType != "" && entityType != f.EntityType {
			continue
		}
		if f.RoleType != "" && roleType != f.RoleType {
			continue
		}
		if f.RelationshipType != "" && relationshipType != f.RelationshipType {
			continue
		}
		if f.MinConfidence > 0 && confidence < f.MinConfidence {
			continue
		}

		var meta map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", docID, err)
		}
		results = append(results, Result{
			ID:        docID,
			Metadata:  meta,
			Document:  document,
			Relevance: 1.0 - distance,
			Category:  col,
		})
		if len(results) == n {
			break
		}
	}
	return results, rows.Err()
}

// FindSimilar finds entities similar to the given entity by searching with
// its own synthesized document, excluding the entity itself. An unindexed
// entity yields an empty result.
func (ix *Index) FindSimilar(ctx context.Context, entityID string, n int) ([]Result, error) {
	if n <= 0 {
		n = 5
	}
	docID := "entity_" + entityID

	var document string
	err := ix.db.QueryRowContext(ctx,
		"SELECT document FROM docs WHERE doc_id = ?", docID).Scan(&document)
	if err == sql.ErrNoRows {
		return []Result{}, nil
	}
	if err != nil {
		return nil, err
	}

	vectors, err := ix.embedder.Embed(ctx, []string{document})
	if err != nil {
		return nil, fmt.Errorf("embedding document: %w", err)
	}
	return ix.searchVector(ctx, Entities, vectors[0], n, Filters{}, docID)
}

// Statistics reports indexed document counts per collection plus a total.
func (ix *Index) Statistics(ctx context.Context) (map[string]int64, error) {
	rows, err := ix.db.QueryContext(ctx,
		"SELECT collection, COUNT(*) FROM docs GROUP BY collection")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int64{
		string(Entities): 0,
		string(People):   0,
		string(Partners): 0,
	}
	var total int64
	for rows.Next() {
		var col string
		var count int64
		if err := rows.Scan(&col, &count); err != nil {
			return nil, err
		}
		stats[col] = count
		total += count
	}
	stats["total"] = total
	return stats, rows.Err()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for
// sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
