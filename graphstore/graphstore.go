// Package graphstore owns the connection to the labeled-property graph
// engine and executes parameterized Cypher within short-lived, scoped
// sessions. It is a thin wrapper: connection failures surface immediately
// and retry policy belongs to the caller.
package graphstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Record is one flat result row keyed by the query's RETURN aliases.
type Record map[string]any

// Config is the connection descriptor for the graph engine.
type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

// Store wraps a Neo4j driver. It is safe for concurrent use; every call
// acquires its own session and releases it on every exit path.
type Store struct {
	driver   neo4j.DriverWithContext
	database string

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the graph engine and verifies connectivity. There is no
// automatic retry; an unreachable engine is an immediate error.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating graph driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verifying graph connectivity: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	return &Store{driver: driver, database: database}, nil
}

// Read executes a parameterized read query in its own session and returns
// the result rows. An empty result is a valid answer, not an error.
func (s *Store) Read(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypher, params)
	})
	if err != nil {
		return nil, fmt.Errorf("graph read: %w", err)
	}
	return result.([]Record), nil
}

// Write executes a parameterized write query in its own session and returns
// any rows the query yields (merge queries return counters via RETURN).
func (s *Store) Write(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypher, params)
	})
	if err != nil {
		return nil, fmt.Errorf("graph write: %w", err)
	}
	return result.([]Record), nil
}

// ClearDatabase removes every node and relationship. This is the
// administrative full-rebuild path, not a normal lifecycle operation.
func (s *Store) ClearDatabase(ctx context.Context) error {
	_, err := s.Write(ctx, "MATCH (n) DETACH DELETE n", nil)
	return err
}

// Close releases all connections. It is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.driver.Close(ctx)
	})
	return s.closeErr
}

// collect runs a query inside a managed transaction and flattens each
// result record into a Record map.
func collect(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]Record, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	raw, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		rec := make(Record, len(r.Keys))
		for i, key := range r.Keys {
			rec[key] = r.Values[i]
		}
		records = append(records, rec)
	}
	return records, nil
}
