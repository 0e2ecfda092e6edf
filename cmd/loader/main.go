// Command loader rebuilds the knowledge graph and semantic index from
// tabular batch files, then prints the resulting statistics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/govmapmy/govgraph"
	"github.com/govmapmy/govgraph/tabular"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	entitiesPath := flag.String("entities", "", "Entity batch file (CSV or XLSX)")
	peoplePath := flag.String("people", "", "Person batch file (CSV or XLSX)")
	partnersPath := flag.String("partners", "", "Partner batch file (CSV or XLSX)")
	clear := flag.Bool("clear", false, "Clear the graph before loading")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := govgraph.LoadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	engine, err := govgraph.New(ctx, cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close(ctx)

	if *clear {
		slog.Info("clearing graph")
		if err := engine.Clear(ctx); err != nil {
			slog.Error("clearing graph", "error", err)
			os.Exit(1)
		}
	}

	// Entities load first so that people and partners can link to them.
	if *entitiesPath != "" {
		rows, err := tabular.ReadEntities(*entitiesPath)
		if err != nil {
			slog.Error("reading entities", "file", *entitiesPath, "error", err)
			os.Exit(1)
		}
		sum, err := engine.ImportEntities(ctx, rows)
		if err != nil {
			slog.Error("importing entities", "error", err)
			os.Exit(1)
		}
		slog.Info("entities loaded", "summary", sum)
	}

	if *peoplePath != "" {
		rows, err := tabular.ReadPeople(*peoplePath)
		if err != nil {
			slog.Error("reading people", "file", *peoplePath, "error", err)
			os.Exit(1)
		}
		sum, err := engine.ImportPeople(ctx, rows)
		if err != nil {
			slog.Error("importing people", "error", err)
			os.Exit(1)
		}
		slog.Info("people loaded", "summary", sum)
	}

	if *partnersPath != "" {
		rows, err := tabular.ReadPartners(*partnersPath)
		if err != nil {
			slog.Error("reading partners", "file", *partnersPath, "error", err)
			os.Exit(1)
		}
		sum, err := engine.ImportPartners(ctx, rows)
		if err != nil {
			slog.Error("importing partners", "error", err)
			os.Exit(1)
		}
		slog.Info("partners loaded", "summary", sum)
	}

	stats, err := engine.Statistics(ctx)
	if err != nil {
		slog.Error("collecting statistics", "error", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
}
