// Command realmgen generates a fantasy world map, stores it, optionally
// exports it to a snapshot file, and serves it over HTTP.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/realmgen/internal/api"
	"github.com/talgya/realmgen/internal/config"
	"github.com/talgya/realmgen/internal/entropy"
	"github.com/talgya/realmgen/internal/export"
	"github.com/talgya/realmgen/internal/metrics"
	"github.com/talgya/realmgen/internal/persistence"
	"github.com/talgya/realmgen/internal/world"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $REALMGEN_CONFIG)")
	seed := flag.Int64("seed", 0, "world seed; 0 uses the config seed or a random one")
	points := flag.Int("points", 0, "number of cells; 0 uses the config")
	out := flag.String("out", "", "snapshot path; a .zst suffix compresses it")
	serve := flag.Bool("serve", false, "serve the world over HTTP after generating")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// ── Configuration ─────────────────────────────────────────────────
	file, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg, err := file.Apply(world.DefaultConfig())
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	var server *config.ServerConfig
	if file != nil {
		server = &file.Server
	}

	// ── Database ──────────────────────────────────────────────────────
	dbPath := server.GetDBPath()
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── World ─────────────────────────────────────────────────────────
	rec := metrics.NewRecorder()
	session := world.NewSession(cfg, rec)
	if seeds := entropy.NewClient(server.GetRandomOrgKey()); seeds != nil {
		session.UseEntropy(seeds)
		slog.Info("random.org seeds enabled")
	}

	slog.Info("generating world...", "cells", cfg.Sampler.Count)
	w, err := session.Generate(*seed, *points)
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}

	for t, c := range world.TerrainCounts(w.Terrain) {
		slog.Debug("terrain", "type", t.String(), "count", c)
	}

	if err := db.SaveWorld(w); err != nil {
		slog.Error("initial save failed", "error", err)
	}

	exportPath := *out
	if exportPath == "" {
		exportPath = server.GetExportPath()
	}
	if exportPath != "" {
		if err := export.WriteFile(exportPath, export.Build(w)); err != nil {
			slog.Error("export failed", "path", exportPath, "error", err)
			os.Exit(1)
		}
		slog.Info("snapshot written", "path", exportPath)
	}

	rivers := 0
	if w.Hydro != nil {
		rivers = len(w.Hydro.Rivers)
	}
	fmt.Printf("\n%s: %d kingdoms, %d cities, %d roads, %d rivers.\n",
		w, w.KingdomCount(), len(w.Cities), len(w.Roads), rivers)

	if !*serve {
		return
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := server.GetAdminKey()
	if adminKey == "" {
		slog.Warn("REALMGEN_ADMIN_KEY not set, admin POST endpoints disabled")
	}

	port := server.GetPort()
	apiServer := &api.Server{
		Session:  session,
		DB:       db,
		Metrics:  rec,
		Port:     port,
		AdminKey: adminKey,

		GenerateBudget: server.GetGenerateBudget(),
		GenerateWindow: server.GetGenerateWindow(),
	}
	apiServer.Start()
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	if err := db.SaveWorld(session.State()); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Server stopped. World saved.")
}
