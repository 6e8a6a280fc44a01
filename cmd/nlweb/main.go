// Package main is the nlweb CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/backend"
	"github.com/nlweb-ai/nlweb-go/internal/cli"
	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/corpus"
	"github.com/nlweb-ai/nlweb-go/internal/generator"
	"github.com/nlweb-ai/nlweb-go/internal/llm"
	"github.com/nlweb-ai/nlweb-go/internal/mcp"
	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/internal/orchestrator"
	"github.com/nlweb-ai/nlweb-go/internal/processor"
	"github.com/nlweb-ai/nlweb-go/internal/ratelimit"
	"github.com/nlweb-ai/nlweb-go/internal/server"
	"github.com/nlweb-ai/nlweb-go/internal/tools"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/nlweb/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "nlweb server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded. A missing
// default config is not an error; built-in defaults apply.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "load":
		runLoad()
	case "sites":
		runSites()
	case "mcp":
		runMCP()
	case "version", "--version", "-v":
		fmt.Printf("nlweb version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components bundles everything a running pipeline needs.
type Components struct {
	Manager      *backend.Manager
	Selector     *tools.Selector
	Orchestrator *orchestrator.Service
	Limiter      *ratelimit.Limiter
	Provider     llm.Provider
}

// Close releases backend resources.
func (c *Components) Close() {
	if c.Manager != nil {
		_ = c.Manager.Close()
	}
}

// initializeComponents builds the full pipeline from configuration.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	mgr, err := backend.NewManagerFromConfig(&cfg.Retrieval, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backends: %w", err)
	}

	provider, err := llm.New(cfg.LLM)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			_ = mgr.Close()
			return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
		}
		logger.Info("no llm provider configured; summarize and generate modes are unavailable")
		provider = nil
	}

	sel := tools.NewSelector(logger)
	sel.Register(tools.NewRecipeTool(mgr, logger))
	sel.Register(tools.NewCompareTool(mgr, logger))
	sel.Register(tools.NewEnsembleTool(mgr, logger))

	var dctx processor.Decontextualizer = processor.Passthrough{}
	if provider != nil {
		dctx = processor.NewLLMDecontextualizer(provider, logger)
	}

	proc := processor.New(sel, dctx, &cfg.Query, logger)
	gen := generator.New(mgr, provider, &cfg.Query, logger)
	orch := orchestrator.New(proc, sel, gen, cfg, logger)
	limiter := ratelimit.NewLimiter(&cfg.RateLimit, logger)

	return &Components{
		Manager:      mgr,
		Selector:     sel,
		Orchestrator: orch,
		Limiter:      limiter,
		Provider:     provider,
	}, nil
}

// watchCorpora wires hot reload for every memory backend seeded from a file.
func watchCorpora(components *Components, logger *zap.Logger) (*corpus.Watcher, error) {
	watcher := corpus.NewWatcher(corpus.WithLogger(logger))
	watched := 0
	for _, b := range components.Manager.Backends() {
		mem, ok := b.(*backend.MemoryBackend)
		if !ok || mem.Path() == "" {
			continue
		}
		if err := watcher.Watch(mem.Path(), mem.Reload); err != nil {
			return nil, err
		}
		watched++
	}
	if watched == 0 {
		return nil, nil
	}
	return watcher, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	components.Limiter.Start(runCtx)

	if cfg.Corpus.WatchOrDefault() {
		watcher, err := watchCorpora(components, logger)
		if err != nil {
			logger.Fatal("Failed to set up corpus watcher", zap.Error(err))
		}
		if watcher != nil {
			if err := watcher.Start(runCtx); err != nil {
				logger.Fatal("Failed to start corpus watcher", zap.Error(err))
			}
			defer watcher.Stop()
		}
	}

	srv := server.NewServer(
		components.Orchestrator,
		components.Manager,
		components.Limiter,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	runCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printAskUsage prints ask subcommand usage.
func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: nlweb ask [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Modes:
  list       ranked results only (default)
  summarize  results plus a short summary (needs an llm provider)
  generate   a grounded answer (needs an llm provider)

Examples:
  nlweb ask chocolate cake recipe
  nlweb ask --mode summarize "pasta dishes"
  nlweb ask --site food.example.com --max-results 5 dinner ideas
`)
}

// buildQueryText joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQueryText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline in-process)")
	mode := fs.String("mode", "", "response mode: list, summarize, or generate")
	site := fs.String("site", "", "restrict results to one site")
	maxResults := fs.Int("max-results", 0, "maximum number of results (0 = configured default)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	queryText := buildQueryText(fs.Args())
	if queryText == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	parsedMode, err := models.ParseMode(*mode)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	query := &models.Query{
		RawText:    queryText,
		Mode:       parsedMode,
		Site:       *site,
		MaxResults: *maxResults,
	}

	if *serverURL != "" {
		// Use the HTTP API when a server is running (avoids bleve/sqlite
		// lock conflicts with the server process).
		response, err := askViaHTTP(*serverURL, query)
		if err == nil {
			if err := cli.WriteResponse(os.Stdout, response, format); err != nil {
				fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
				os.Exit(1)
			}
			return
		}
		fmt.Fprintf(os.Stderr, "Server not reachable (%v), falling back to direct mode\n", err)
	}

	// Direct in-process pipeline.
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	response := components.Orchestrator.ProcessRequest(context.Background(), query)
	if err := cli.WriteResponse(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL string, query *models.Query) (*models.Response, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = write directly)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: nlweb load [flags] <corpus.jsonl>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	items, err := corpus.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load corpus: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("Corpus is empty; nothing to do")
		return
	}

	if *serverURL != "" {
		if err := putViaHTTP(*serverURL, items); err == nil {
			fmt.Printf("Stored %d items via %s\n", len(items), *serverURL)
			return
		} else {
			fmt.Fprintf(os.Stderr, "Server not reachable (%v), falling back to direct mode\n", err)
		}
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	write := components.Manager.WriteBackend()
	if err := write.Put(context.Background(), items); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to store items: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored %d items in backend %s\n", len(items), write.ID())
}

func putViaHTTP(serverURL string, items []models.Result) error {
	body, err := json.Marshal(items)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, serverURL+"/api/v1/items", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

func runSites() {
	fs := flag.NewFlagSet("sites", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		sites, err := sitesViaHTTP(*serverURL)
		if err == nil {
			printSites(sites)
			return
		}
		fmt.Fprintf(os.Stderr, "Server not reachable (%v), falling back to direct mode\n", err)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	sites, err := components.Manager.AvailableSites(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list sites: %v\n", err)
		os.Exit(1)
	}
	printSites(sites)
}

func sitesViaHTTP(serverURL string) ([]string, error) {
	u, err := url.JoinPath(serverURL, "/api/v1/sites")
	if err != nil {
		return nil, err
	}
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	var out struct {
		Sites []string `json:"sites"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Sites, nil
}

func printSites(sites []string) {
	if len(sites) == 0 {
		fmt.Println("No sites available")
		return
	}
	fmt.Printf("%d sites:\n", len(sites))
	for _, site := range sites {
		fmt.Printf("  %s\n", site)
	}
}

func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Stdout belongs to the MCP transport; logs must not pollute it.
	logger := zap.NewNop()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	srv := mcp.NewServer(components.Orchestrator, components.Manager, logger)
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`nlweb %s — natural-language query engine over pluggable content backends

Usage: nlweb <command> [flags]

Commands:
  server    start the HTTP API server
  ask       answer a query (uses the running server, or runs in-process)
  load      bulk-load a JSONL corpus into the write backend
  sites     list the sites available across backends
  mcp       serve the Model Context Protocol over stdio
  version   print the version
  help      show this help

Run "nlweb <command> -h" for command flags.
`, version)
}
