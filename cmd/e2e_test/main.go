// Command e2e_test is a manual end-to-end smoke test. It needs a reachable
// graph engine and embedding backend, loads a tiny sample batch, and runs
// one query of each kind. Not part of the automated test suite.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/govmapmy/govgraph"
	"github.com/govmapmy/govgraph/record"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if os.Getenv("NEO4J_URI") == "" {
		fmt.Fprintln(os.Stderr, "NEO4J_URI not set")
		os.Exit(1)
	}

	tmpDir, _ := os.MkdirTemp("", "govgraph-e2e-*")
	defer os.RemoveAll(tmpDir)

	cfg, err := govgraph.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.IndexPath = tmpDir + "/index.db"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	engine, err := govgraph.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close(ctx)

	fmt.Fprintln(os.Stderr, "\n=== CLEARING GRAPH ===")
	if err := engine.Clear(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "clear error: %v\n", err)
		os.Exit(1)
	}

	entities := []record.Entity{
		{EntityID: "MIN001", Name: "Ministry of Digital", EntityType: "Ministry",
			Mandate: "National digital policy", PolicyAlignment: "MyDIGITAL|AI Roadmap"},
		{EntityID: "AGY001", Name: "MDEC", EntityType: "Agency",
			Mandate: "Digital economy development", ParentOrg: "MIN001", PolicyAlignment: "MyDIGITAL"},
	}
	people := []record.Person{
		{PersonID: "P001", Name: "Aminah Hassan", Title: "Secretary General",
			RoleType: "Executive", FocusArea: "Digital Transformation",
			EntityID: "MIN001", ConfidenceScore: "0.95"},
	}
	partners := []record.Partner{
		{PartnerID: "PTR001", CompanyName: "Acme Cloud Sdn Bhd", FocusArea: "Cloud",
			EntityID: "MIN001", RelationshipType: "Vendor",
			ContractValueRM: "1200000", ContractYear: "2023", ProcurementStage: "Awarded"},
	}

	fmt.Fprintln(os.Stderr, "\n=== IMPORTING SAMPLE BATCH ===")
	for _, step := range []struct {
		name string
		run  func() error
	}{
		{"entities", func() error { _, err := engine.ImportEntities(ctx, entities); return err }},
		{"people", func() error { _, err := engine.ImportPeople(ctx, people); return err }},
		{"partners", func() error { _, err := engine.ImportPartners(ctx, partners); return err }},
	} {
		if err := step.run(); err != nil {
			fmt.Fprintf(os.Stderr, "import %s error: %v\n", step.name, err)
			os.Exit(1)
		}
	}

	fmt.Fprintln(os.Stderr, "\n=== HIERARCHY AGY001 ===")
	tree, err := engine.Queries().Hierarchy(ctx, "AGY001")
	if err != nil {
		fmt.Fprintf(os.Stderr, "hierarchy error: %v\n", err)
		os.Exit(1)
	}
	dump(tree)

	fmt.Fprintln(os.Stderr, "\n=== DECISION MAKERS ===")
	makers, err := engine.Queries().DecisionMakers(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "decision-makers error: %v\n", err)
		os.Exit(1)
	}
	dump(makers)

	fmt.Fprintln(os.Stderr, "\n=== SEMANTIC SEARCH ===")
	results, err := engine.Index().SearchAll(ctx, "digital economy agency", 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search error: %v\n", err)
		os.Exit(1)
	}
	dump(results)

	fmt.Fprintln(os.Stderr, "\n=== STATISTICS ===")
	stats, err := engine.Statistics(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "statistics error: %v\n", err)
		os.Exit(1)
	}
	dump(stats)
}

func dump(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
