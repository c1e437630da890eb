// ArtifactsMMO crafting planner: knowledge base import, API sync, one-shot
// analysis and MCP/HTTP serving.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/config"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/action"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/api"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/db"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/engine"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/httpapi"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/mcp"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/sync"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	dbPath := flag.String("db", "", "Path to SQLite knowledge base (overrides config)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	offline := flag.Bool("offline", false, "Never call the game API")
	importItems := flag.String("import-items", "", "Import items from JSON file (.zst accepted)")
	importResources := flag.String("import-resources", "", "Import resources from JSON file (.zst accepted)")
	importWorkshops := flag.String("import-workshops", "", "Import workshops from JSON file (.zst accepted)")
	importMaps := flag.String("import-maps", "", "Import map tiles from JSON file (.zst accepted)")
	clearDB := flag.Bool("clear", false, "Remove all knowledge base data before importing")
	syncAPI := flag.Bool("sync", false, "Sync items, resources and maps from the game API")
	analyze := flag.String("analyze", "", "Analyze the crafting chain of an item and print the plan")
	character := flag.String("character", "", "Character name for -analyze")
	serve := flag.String("serve", "", "Run a server: mcp or http")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	// Setup logging. Stdout carries MCP traffic and analysis output.
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logCfg.Environment = cfg.Environment
	logCfg.Version = version
	log := logger.Setup(logCfg, os.Stderr)

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, log, cfg, options{
		offline:         *offline,
		importItems:     *importItems,
		importResources: *importResources,
		importWorkshops: *importWorkshops,
		importMaps:      *importMaps,
		clear:           *clearDB,
		sync:            *syncAPI,
		analyze:         *analyze,
		character:       *character,
		serve:           *serve,
	}); err != nil {
		log.Error("crafting-planner failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	offline         bool
	importItems     string
	importResources string
	importWorkshops string
	importMaps      string
	clear           bool
	sync            bool
	analyze         string
	character       string
	serve           string
}

func run(ctx context.Context, log *slog.Logger, cfg *config.Config, opts options) error {
	// Open database
	database, err := db.OpenAndInit(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening knowledge base: %w", err)
	}
	defer func() { _ = database.Close() }()

	var client *api.Client
	if !opts.offline {
		client = api.New(api.Options{
			BaseURL:   cfg.APIURL,
			Token:     cfg.APIToken,
			Timeout:   cfg.APITimeout,
			CacheSize: cfg.CacheSize,
			CacheTTL:  cfg.CacheTTL,
		})
	}

	if err := runImports(ctx, log, database, client, opts); err != nil {
		return err
	}

	// A nil *api.Client must not become a non-nil Gateway.
	var gateway engine.Gateway
	if client != nil {
		gateway = client
	}
	eng := engine.New(db.NewKnowledgeBase(database), gateway)

	if opts.analyze != "" {
		return runAnalyze(ctx, eng, opts.character, opts.analyze)
	}

	switch opts.serve {
	case "":
		return nil
	case "mcp":
		log.Info("starting MCP server", "db", cfg.DBPath)
		server := mcp.NewServer(eng, log, version)
		// Closing stdin unblocks the reader on shutdown.
		go func() {
			<-ctx.Done()
			_ = os.Stdin.Close()
		}()
		if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			return fmt.Errorf("MCP server: %w", err)
		}
		return nil
	case "http":
		return runHTTP(ctx, log, httpapi.NewServer(cfg.HTTPAddr, eng, database, version))
	default:
		return fmt.Errorf("unknown -serve mode %q (want mcp or http)", opts.serve)
	}
}

// runImports handles the knowledge base maintenance flags.
func runImports(ctx context.Context, log *slog.Logger, database *db.DB, client *api.Client, opts options) error {
	imports := []struct {
		kind string
		path string
		fn   func(*sync.Syncer, context.Context, string) error
	}{
		{"items", opts.importItems, (*sync.Syncer).ImportItemsFromFile},
		{"resources", opts.importResources, (*sync.Syncer).ImportResourcesFromFile},
		{"workshops", opts.importWorkshops, (*sync.Syncer).ImportWorkshopsFromFile},
		{"maps", opts.importMaps, (*sync.Syncer).ImportMapsFromFile},
	}

	pending := opts.clear || opts.sync
	for _, imp := range imports {
		pending = pending || imp.path != ""
	}
	if !pending {
		return nil
	}

	syncer, err := sync.NewSyncer(database)
	if err != nil {
		return err
	}

	if opts.clear {
		if err := syncer.ClearAll(ctx); err != nil {
			return fmt.Errorf("clearing knowledge base: %w", err)
		}
		log.Info("knowledge base cleared")
	}

	for _, imp := range imports {
		if imp.path == "" {
			continue
		}
		log.Info("importing", "kind", imp.kind, "file", imp.path)
		if err := imp.fn(syncer, ctx, imp.path); err != nil {
			return fmt.Errorf("importing %s: %w", imp.kind, err)
		}
		log.Info("imported successfully", "kind", imp.kind)
	}

	if opts.sync {
		if client == nil {
			return errors.New("-sync needs the game API; drop -offline")
		}
		if err := syncer.SyncFromAPI(ctx, client); err != nil {
			return fmt.Errorf("syncing from API: %w", err)
		}
	}

	counts, err := database.Counts(ctx)
	if err != nil {
		return err
	}
	log.Info("knowledge base ready", "counts", counts)
	return nil
}

// runAnalyze plans one target through the action adapter and prints the
// result as JSON.
func runAnalyze(ctx context.Context, eng *engine.Engine, character, target string) error {
	ac := action.NewActionContext(character)
	ac.Set(action.KeyTargetItem, target)

	result := action.NewAnalyzeCraftingChain(eng).Execute(ctx, ac)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("analysis failed: %s", result.Error)
	}
	return nil
}

func runHTTP(ctx context.Context, log *slog.Logger, server *httpapi.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
