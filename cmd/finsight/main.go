// Package main is the FinSight CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quantrail/finsight/internal/chunker"
	"github.com/quantrail/finsight/internal/chunkstore"
	"github.com/quantrail/finsight/internal/cli"
	"github.com/quantrail/finsight/internal/config"
	"github.com/quantrail/finsight/internal/embedding"
	"github.com/quantrail/finsight/internal/extract"
	"github.com/quantrail/finsight/internal/fileid"
	"github.com/quantrail/finsight/internal/finrecord"
	"github.com/quantrail/finsight/internal/keyword"
	"github.com/quantrail/finsight/internal/llm"
	"github.com/quantrail/finsight/internal/models"
	"github.com/quantrail/finsight/internal/pipeline"
	"github.com/quantrail/finsight/internal/retrieval"
	"github.com/quantrail/finsight/internal/server"
	"github.com/quantrail/finsight/internal/storage"
	"github.com/quantrail/finsight/internal/watcher"
	"github.com/quantrail/finsight/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/finsight/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "finsight server" from the project dir uses the
// project's config. Returns the config and the path that was actually loaded.
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
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A .env next to the binary supplies provider URLs and the Postgres DSN
	// during development; absence is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("finsight version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, chunking, retrieval)")
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

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	fp := components.FileProcessor
	exts := cfg.Watch.Extensions
	watchOpts := []watcher.WatcherOption{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		exts,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if err := fp.ProcessFile(context.Background(), path, exts); err != nil {
				logger.Warn("watch process file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := fp.DeleteFile(context.Background(), path); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srvOpts := []server.ServerOption{
		server.WithWatcher(watchSvc, cfg, resolvedConfigPath),
	}
	if components.Synthesizer != nil {
		srvOpts = append(srvOpts, server.WithSynthesizer(components.Synthesizer))
	}
	srv := server.NewServer(
		components.Engine,
		components.Processor,
		components.Storage,
		components.ChunkStore,
		&cfg.Server,
		logger,
		srvOpts...,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQueryString joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildQueryString(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// queryArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so
// "finsight search \"query\" -limit 5" would otherwise leave -limit unparsed.
func queryArgsReorder(args []string) []string {
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

// searchQueryFromFlags builds the query model shared by search and ask.
func searchQueryFromFlags(queryStr string, limit int, strictness float64, company, reportType string, fiscalYear int) *models.SearchQuery {
	q := &models.SearchQuery{
		Query:      queryStr,
		MaxResults: limit,
		Company:    company,
		ReportType: reportType,
		FiscalYear: fiscalYear,
	}
	// Negative means the flag was not set; the statistical cutoff stage is
	// skipped entirely in that case.
	if strictness >= 0 {
		s := strictness
		q.Strictness = &s
	}
	return q
}

func runSearch() {
	searchArgs := queryArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 5, "number of results")
	strictness := fs.Float64("strictness", -1, "statistical cutoff strictness in [0,1]; unset skips the statistical stage")
	company := fs.String("company", "", "filter by company name")
	reportType := fs.String("report-type", "", "filter by report type (10-K, 10-Q, earnings_report, ...)")
	fiscalYear := fs.Int("fiscal-year", 0, "filter by fiscal year")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildQueryString(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	searchQuery := searchQueryFromFlags(queryStr, *limit, *strictness, *company, *reportType, *fiscalYear)

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids Bleve/SQLite
		// lock conflict).
		response, err := searchViaHTTP(*serverURL, searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when server is not running).
	cfg, _, err := loadConfig(*configPathFlag)
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

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	start := time.Now()
	results, rewritten, err := components.Engine.Search(context.Background(), searchQuery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	response := &models.SearchResponse{
		Results:        results,
		Total:          len(results),
		Query:          searchQuery.Query,
		RewrittenQuery: rewritten,
		QueryTime:      time.Since(start).Milliseconds(),
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: finsight search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  finsight search revenue growth
  finsight search "what was Q3 revenue"
  finsight search --company "Acme Corp" --fiscal-year 2024 net income
  finsight search --strictness 0.8 --limit 3 gross margin
  finsight search --output json "operating expenses"
`)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runAsk() {
	askArgs := queryArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 5, "number of chunks retrieved as context")
	strictness := fs.Float64("strictness", -1, "statistical cutoff strictness in [0,1]; unset skips the statistical stage")
	company := fs.String("company", "", "filter by company name")
	reportType := fs.String("report-type", "", "filter by report type")
	fiscalYear := fs.Int("fiscal-year", 0, "filter by fiscal year")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: finsight ask [flags] <question>")
		os.Exit(1)
	}
	queryStr := buildQueryString(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: finsight ask [flags] <question>")
		os.Exit(1)
	}

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	query := searchQueryFromFlags(queryStr, *limit, *strictness, *company, *reportType, *fiscalYear)
	body, err := json.Marshal(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.Post(*serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Ask failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var answer models.AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, &answer, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: finsight ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		exts := cfg.Watch.Extensions
		n, err := components.FileProcessor.ProcessDirectory(ctx, path, exts)
		if err != nil {
			fmt.Printf("Processing directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Processed %d file(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter
	if err := components.FileProcessor.ProcessFile(ctx, path, nil); err != nil {
		fmt.Printf("Processing failed: %v\n", err)
		os.Exit(1)
	}
	absPath, _ := filepath.Abs(path)
	docID := fileid.FileDocID(absPath)
	fmt.Printf("Document processed successfully: %s\n", docID)
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: finsight watch <add|remove|list> [path]")
		fmt.Println("  finsight watch add <path>     Add directory to watch")
		fmt.Println("  finsight watch remove <path>  Remove directory from watch")
		fmt.Println("  finsight watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: finsight watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: finsight watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: finsight delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Processor.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents int64                  `json:"documents"`
	Chunks    int64                  `json:"chunks"`
	Config    map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
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
		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		docCount, err := components.Storage.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.ChunkStore.Count(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents: docCount,
			Chunks:    int64(chunkCount),
			Config: map[string]interface{}{
				"chunk_store":          cfg.Storage.ChunkStore,
				"embedding_dimensions": cfg.Embedding.Dimensions,
				"parent_size":          cfg.Chunking.ParentSize,
				"child_size":           cfg.Chunking.ChildSize,
				"database_path":        cfg.Storage.DatabasePath,
				"bleve_index_path":     cfg.Storage.BleveIndexPath,
			},
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:  %d   # count of processed documents\n", status.Documents)
		fmt.Printf("chunks:     %d   # count of stored chunks\n", status.Chunks)
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"chunk_store", "embedding_dimensions", "parent_size", "child_size", "database_path", "bleve_index_path"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-21s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage       storage.Storage
	ChunkStore    chunkstore.Store
	Embedder      embedding.Embedder
	KeywordIndex  keyword.KeywordIndex
	Engine        *retrieval.Engine
	Processor     *pipeline.Processor
	FileProcessor *pipeline.FileProcessor
	Synthesizer   *llm.Synthesizer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.ChunkStore != nil {
		_ = c.ChunkStore.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var store chunkstore.Store
	switch cfg.Storage.ChunkStore {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, pgErr := chunkstore.NewPostgresStore(ctx, cfg.Storage.PostgresDSN, cfg.Embedding.Dimensions)
		cancel()
		if pgErr != nil {
			return nil, fmt.Errorf("failed to initialize postgres chunk store: %w", pgErr)
		}
		store = pg
	default:
		store = chunkstore.NewMemoryStore()
	}

	var embedder embedding.Embedder
	httpEmbedder, err := embedding.NewHTTPEmbedder(
		cfg.Embedding.URL,
		cfg.Embedding.Model,
		cfg.Embedding.Dimensions,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		// No embedding provider configured; deterministic mock keeps the
		// pipeline usable for development and tests.
		if logger != nil {
			logger.Warn("embedding provider unavailable, using mock embedder", zap.Error(err))
		}
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = httpEmbedder
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	var llmClient llm.Client
	var synthesizer *llm.Synthesizer
	if client, clientErr := llm.NewHTTPClient(cfg.LLM.URL, cfg.LLM.Model); clientErr == nil {
		llmClient = client
		synthesizer = llm.NewSynthesizer(client)
	} else if logger != nil {
		logger.Warn("completion provider unavailable, extraction falls back to heuristics", zap.Error(clientErr))
	}

	extractorOpts := []finrecord.ExtractorOption{}
	if debug && logger != nil {
		extractorOpts = append(extractorOpts, finrecord.WithLogger(logger))
	}
	recordExtractor := finrecord.NewExtractor(llmClient, extractorOpts...)

	builder := chunker.NewBuilder(
		cfg.Chunking.ParentSize,
		cfg.Chunking.ParentOverlap,
		cfg.Chunking.ChildSize,
		cfg.Chunking.ChildOverlap,
	)

	processor := pipeline.NewProcessor(
		st, store, embedder, recordExtractor, builder, logger,
		pipeline.WithKeywordIndex(keywordIndex),
		pipeline.WithConcurrency(cfg.Embedding.Concurrency),
	)
	fileProcessor := pipeline.NewFileProcessor(processor, extract.NewExtractor(), logger)

	engine := retrieval.NewEngine(
		store, embedder,
		retrieval.NewRewriter(cfg.Retrieval.ShortQueryLength),
		retrieval.NewFilter(cfg.Retrieval.RelativeCutoff),
		logger,
		retrieval.WithOverfetchFactor(cfg.Retrieval.OverfetchFactor),
		retrieval.WithMinSimilarity(cfg.Retrieval.MinSimilarity),
		retrieval.WithKeywordIndex(keywordIndex),
	)

	return &Components{
		Storage:       st,
		ChunkStore:    store,
		Embedder:      embedder,
		KeywordIndex:  keywordIndex,
		Engine:        engine,
		Processor:     processor,
		FileProcessor: fileProcessor,
		Synthesizer:   synthesizer,
	}, nil
}

func printUsage() {
	fmt.Println(`finsight - Financial document retrieval pipeline

Usage:
  finsight server [flags]           Start the HTTP server
  finsight search [flags] <query>   Search processed documents
  finsight ask [flags] <question>   Ask a question answered from documents
  finsight ingest [flags] <path>    Process a document file or directory
  finsight delete [flags] <id>      Delete a document
  finsight status [flags]           Show document/chunk counts and config
  finsight watch <add|remove|list>  Manage watched inbox directories
  finsight version                  Show version
  finsight help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/finsight/config.yaml)
  --debug            Enable debug logging (file events, chunking, retrieval)

Search Flags:
  --config string       Config file path (for direct storage mode)
  --server string       Server URL (default: http://localhost:8080). Use empty (--server "") when the server is not running.
  --limit int           Number of results (default: 5)
  --strictness float    Statistical cutoff strictness in [0,1]; unset skips that stage
  --company string      Filter by company name
  --report-type string  Filter by report type
  --fiscal-year int     Filter by fiscal year
  --output string       Output format: text or json (default: text)

Examples:
  finsight server
  finsight ingest reports/acme_q3_2024.pdf
  finsight search "what was Q3 revenue"
  finsight search --company "Acme Corp" --strictness 0.8 net income
  finsight ask "how did gross margin change year over year?"
  finsight status --output json
  finsight watch add ~/Documents/filings`)
}
