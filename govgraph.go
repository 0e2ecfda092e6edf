// Package govgraph is a knowledge-graph ingestion and query layer over a
// graph of government entities, personnel, and private-sector partners.
// Tabular record batches go in as idempotent graph merges; a fixed query
// catalogue and an embedding-backed semantic index answer questions over
// the result.
package govgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/govmapmy/govgraph/catalogue"
	"github.com/govmapmy/govgraph/embed"
	"github.com/govmapmy/govgraph/graphstore"
	"github.com/govmapmy/govgraph/ingest"
	"github.com/govmapmy/govgraph/record"
	"github.com/govmapmy/govgraph/semantic"
)

// Engine wires the graph store, ingestion, query catalogue, and semantic
// index behind one lifecycle. Construct with New, release with Close.
// Lifecycle is the caller's responsibility; nothing here is cached
// process-wide.
type Engine struct {
	cfg      Config
	graph    *graphstore.Store
	importer *ingest.Importer
	queries  *catalogue.Catalogue
	index    *semantic.Index
	embedder embed.Provider
}

// New connects to the graph engine, opens the semantic index, and declares
// the graph schema. An unreachable graph engine is an immediate error.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = 768
	}

	embedder, err := embed.NewProvider(embed.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	graph, err := graphstore.Open(ctx, graphstore.Config{
		URI:      cfg.Graph.URI,
		User:     cfg.Graph.User,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}

	if err := graph.EnsureSchema(ctx); err != nil {
		graph.Close(ctx)
		return nil, fmt.Errorf("declaring schema: %w", err)
	}

	index, err := semantic.Open(cfg.resolveIndexPath(), embedder, cfg.EmbeddingDim)
	if err != nil {
		graph.Close(ctx)
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	slog.Info("govgraph: engine ready",
		"graph_uri", cfg.Graph.URI, "index_path", cfg.resolveIndexPath())

	return &Engine{
		cfg:      cfg,
		graph:    graph,
		importer: ingest.New(graph),
		queries:  catalogue.New(graph),
		index:    index,
		embedder: embedder,
	}, nil
}

// Graph returns the underlying graph adapter for direct query access.
func (e *Engine) Graph() *graphstore.Store {
	return e.graph
}

// Importer returns the ingestion engine.
func (e *Engine) Importer() *ingest.Importer {
	return e.importer
}

// Queries returns the read-query catalogue.
func (e *Engine) Queries() *catalogue.Catalogue {
	return e.queries
}

// Index returns the semantic search index.
func (e *Engine) Index() *semantic.Index {
	return e.index
}

// ImportEntities merges entity rows into the graph and indexes them for
// semantic search.
func (e *Engine) ImportEntities(ctx context.Context, rows []record.Entity) (ingest.Summary, error) {
	sum, err := e.importer.ImportEntities(ctx, rows)
	if err != nil {
		return sum, err
	}
	if _, err := e.index.IndexEntities(ctx, rows); err != nil {
		return sum, fmt.Errorf("indexing entities: %w", err)
	}
	return sum, nil
}

// ImportPeople merges person rows into the graph and indexes them.
func (e *Engine) ImportPeople(ctx context.Context, rows []record.Person) (ingest.Summary, error) {
	sum, err := e.importer.ImportPeople(ctx, rows)
	if err != nil {
		return sum, err
	}
	if _, err := e.index.IndexPeople(ctx, rows); err != nil {
		return sum, fmt.Errorf("indexing people: %w", err)
	}
	return sum, nil
}

// ImportPartners merges partner rows into the graph and indexes them.
func (e *Engine) ImportPartners(ctx context.Context, rows []record.Partner) (ingest.Summary, error) {
	sum, err := e.importer.ImportPartners(ctx, rows)
	if err != nil {
		return sum, err
	}
	if _, err := e.index.IndexPartners(ctx, rows); err != nil {
		return sum, fmt.Errorf("indexing partners: %w", err)
	}
	return sum, nil
}

// Statistics merges graph counts and index counts into one flat metric map.
// Graph metrics keep their names; index metrics are prefixed "indexed_".
func (e *Engine) Statistics(ctx context.Context) (map[string]int64, error) {
	stats, err := e.queries.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	indexStats, err := e.index.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	for metric, count := range indexStats {
		stats["indexed_"+metric] = count
	}
	return stats, nil
}

// Clear removes every node and relationship from the graph. The semantic
// index is left untouched; re-importing rebuilds both.
func (e *Engine) Clear(ctx context.Context) error {
	return e.graph.ClearDatabase(ctx)
}

// Close releases the graph connection and the index. Safe to call more
// than once.
func (e *Engine) Close(ctx context.Context) error {
	indexErr := e.index.Close()
	graphErr := e.graph.Close(ctx)
	if graphErr != nil {
		return graphErr
	}
	return indexErr
}
