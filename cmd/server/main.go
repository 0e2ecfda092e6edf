// Command server exposes the knowledge graph and semantic index as a JSON
// API. All graph access goes through the read-query catalogue; ingestion
// stays with the loader command.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/govmapmy/govgraph"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
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

	apiKey := os.Getenv("GOVGRAPH_API_KEY")
	corsOrigins := os.Getenv("GOVGRAPH_CORS_ORIGINS")

	ctx := context.Background()
	engine, err := govgraph.New(ctx, cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close(ctx)

	h := newHandler(engine)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /entities", h.handleFindEntities)
	mux.HandleFunc("GET /entities/{id}/hierarchy", h.handleHierarchy)
	mux.HandleFunc("GET /entities/{id}/people", h.handlePeople)
	mux.HandleFunc("GET /entities/{id}/partners", h.handlePartners)
	mux.HandleFunc("GET /entities/{id}/similar", h.handleSimilar)
	mux.HandleFunc("GET /decision-makers", h.handleDecisionMakers)
	mux.HandleFunc("GET /policies/{name}/ecosystem", h.handlePolicyEcosystem)
	mux.HandleFunc("GET /companies/network", h.handleCompanyNetwork)
	mux.HandleFunc("GET /procurement", h.handleProcurement)
	mux.HandleFunc("GET /paths", h.handlePaths)
	mux.HandleFunc("GET /most-connected", h.handleMostConnected)
	mux.HandleFunc("GET /statistics", h.handleStatistics)
	mux.HandleFunc("GET /export/nodes", h.handleExportNodes)
	mux.HandleFunc("GET /export/edges", h.handleExportEdges)
	mux.HandleFunc("POST /search", h.handleSearch)
	mux.HandleFunc("POST /search/hybrid", h.handleHybridSearch)
	mux.HandleFunc("POST /ask", h.handleAsk)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
