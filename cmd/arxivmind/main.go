// Package main is the arxivmind CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/analysis"
	"github.com/arxivmind/arxivmind/internal/arxiv"
	"github.com/arxivmind/arxivmind/internal/cli"
	"github.com/arxivmind/arxivmind/internal/config"
	"github.com/arxivmind/arxivmind/internal/embedding"
	"github.com/arxivmind/arxivmind/internal/extract"
	"github.com/arxivmind/arxivmind/internal/ingest"
	"github.com/arxivmind/arxivmind/internal/keyword"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/retriever"
	"github.com/arxivmind/arxivmind/internal/search"
	"github.com/arxivmind/arxivmind/internal/server"
	"github.com/arxivmind/arxivmind/internal/storage"
	"github.com/arxivmind/arxivmind/internal/vector"
	"github.com/arxivmind/arxivmind/internal/watcher"
	"github.com/arxivmind/arxivmind/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/arxivmind/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so running from the project dir
// picks up the project's config.
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "similar":
		runSimilar()
	case "analyze":
		runAnalyze()
	case "compare":
		runCompare()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("arxivmind version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services shared by the subcommands.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	VectorIndex  vector.Index
	KeywordIndex keyword.KeywordIndex
	Retriever    *retriever.Retriever
	Engine       *search.Engine
	Ingestor     *ingest.Ingestor
	Analyzer     *analysis.Analyzer
	Comparator   *analysis.Comparator
	Arxiv        *arxiv.Client
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

// newEmbedder builds the configured embedding backend. An unusable openai or
// onnx configuration falls back to the mock embedder so the rest of the
// system stays usable offline.
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	var (
		embedder embedding.Embedder
		err      error
	)
	switch cfg.Embedding.Provider {
	case "openai":
		embedder, err = embedding.NewOpenAIEmbedder(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.BaseURL,
			cfg.Embedding.Model,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
		)
	case "onnx":
		embedder, err = embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
		)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	default:
		err = fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
	if err != nil {
		logger.Warn("embedding backend unavailable, using mock embedder",
			zap.String("provider", cfg.Embedding.Provider), zap.Error(err))
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}
	return embedder
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	embedder := newEmbedder(cfg, logger)

	vectorIndex, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("initialize vector index: %w", err)
	}
	if loadErr := vectorIndex.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
		logger.Warn("vector index load failed",
			zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath, keyword.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("initialize keyword index: %w", err)
	}

	r := retriever.New(embedder, vectorIndex, retriever.WithLogger(logger))
	engine := search.NewEngine(store, embedder, vectorIndex, keywordIndex, &cfg.Search)

	arxivClient := arxiv.NewClient(
		arxiv.WithBaseURL(cfg.Arxiv.BaseURL),
		arxiv.WithRequestInterval(time.Duration(cfg.Arxiv.RequestInterval*float64(time.Second))),
	)
	ingestor := ingest.New(store, r, keywordIndex, extract.NewExtractor(),
		ingest.WithLogger(logger),
		ingest.WithArxivClient(arxivClient),
	)

	components := &Components{
		Storage:      store,
		Embedder:     embedder,
		VectorIndex:  vectorIndex,
		KeywordIndex: keywordIndex,
		Retriever:    r,
		Engine:       engine,
		Ingestor:     ingestor,
		Arxiv:        arxivClient,
	}

	if cfg.OpenAI.APIKey != "" {
		gen, genErr := analysis.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.Analysis.Model)
		if genErr != nil {
			logger.Warn("analysis backend unavailable", zap.Error(genErr))
		} else {
			components.Analyzer = analysis.NewAnalyzer(gen,
				cfg.Analysis.MaxTokens, cfg.Analysis.MaxContentChars,
				analysis.WithAnalyzerLogger(logger))
			components.Comparator = analysis.NewComparator(gen, r,
				cfg.Analysis.MaxTokens, cfg.Analysis.MaxContentChars,
				analysis.WithComparatorLogger(logger),
				analysis.WithAspects(cfg.Analysis.Aspects))
		}
	}
	return components, nil
}

// setup is the common boilerplate of the direct-access subcommands.
func setup(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func saveVectorIndex(cfg *config.Config, components *Components, logger *zap.Logger) {
	if cfg.Storage.VectorIndexPath == "" {
		return
	}
	if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
		logger.Warn("vector index save failed",
			zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Watch.Directory != "" {
		watchSvc = watcher.New(
			cfg.Watch.Directory,
			cfg.Watch.Extensions,
			func(path string) {
				if _, err := components.Ingestor.IngestFile(context.Background(), path); err != nil {
					logger.Warn("drop folder ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			nil,
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(
		components.Engine,
		components.Ingestor,
		components.Storage,
		components.Retriever,
		components.Analyzer,
		components.Comparator,
		components.Arxiv,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	saveVectorIndex(cfg, components, logger)
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	arxivQuery := fs.String("arxiv", "", "ingest arXiv papers matching this query")
	arxivIDs := fs.String("ids", "", "comma-separated arXiv IDs to ingest")
	maxResults := fs.Int("max", 0, "maximum arXiv results (default from config)")
	_ = fs.Parse(os.Args[2:])

	if *arxivQuery == "" && *arxivIDs == "" && fs.NArg() < 1 {
		fmt.Println("Usage: arxivmind ingest [flags] <file-or-directory>")
		fmt.Println("       arxivmind ingest --arxiv \"query\" [--max n]")
		fmt.Println("       arxivmind ingest --ids 2301.00001,2301.00002")
		os.Exit(1)
	}

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	switch {
	case *arxivIDs != "":
		ids := strings.Split(*arxivIDs, ",")
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
		papers, err := components.Ingestor.IngestArxivIDs(ctx, ids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d paper(s) from arXiv\n", len(papers))
		_ = cli.WritePaperList(os.Stdout, papers, cli.OutputText)
	case *arxivQuery != "":
		max := *maxResults
		if max <= 0 {
			max = cfg.Arxiv.MaxResults
		}
		papers, err := components.Ingestor.IngestArxivQuery(ctx, *arxivQuery, max)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d paper(s) from arXiv\n", len(papers))
		_ = cli.WritePaperList(os.Stdout, papers, cli.OutputText)
	default:
		path := fs.Arg(0)
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
			os.Exit(1)
		}
		if info.IsDir() {
			n, err := components.Ingestor.IngestDirectory(ctx, path, cfg.Watch.Extensions)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		} else {
			paper, err := components.Ingestor.IngestFile(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Paper ingested: %s (%s)\n", paper.ID, paper.Title)
		}
	}
	saveVectorIndex(cfg, components, logger)
}

// buildQuery joins positional args so multi-word queries work with or
// without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of results")
	minScore := fs.Float64("min-score", 0, "minimum fused score")
	kwEnabled := fs.Bool("keyword", true, "enable keyword search")
	semEnabled := fs.Bool("semantic", true, "enable semantic search")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: arxivmind search [flags] <query>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	response, err := components.Engine.Search(context.Background(), &models.SearchQuery{
		Query:           queryStr,
		Limit:           *limit,
		MinScore:        *minScore,
		KeywordEnabled:  *kwEnabled,
		SemanticEnabled: *semEnabled,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	ids := fs.String("ids", "", "comma-separated paper IDs (group similarity)")
	limit := fs.Int("limit", 5, "number of results")
	includeInput := fs.Bool("include-input", false, "keep the group's own papers in results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	text := buildQuery(fs.Args())
	if text == "" && *ids == "" {
		fmt.Println("Usage: arxivmind similar [flags] <text>")
		fmt.Println("       arxivmind similar --ids p1,p2,p3")
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	var results []*models.SimilarPaper
	if *ids != "" {
		group := strings.Split(*ids, ",")
		for i := range group {
			group[i] = strings.TrimSpace(group[i])
		}
		results, err = components.Retriever.FindSimilarByGroup(ctx, group, *limit, !*includeInput)
	} else {
		results, err = components.Retriever.FindSimilarByText(ctx, text, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Similarity search failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteSimilarResults(os.Stdout, &models.SimilarResponse{
		Results: results,
		Total:   len(results),
	}, format)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	kind := fs.String("kind", "analysis", "analysis kind: analysis, insights, or review")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: arxivmind analyze [flags] <paper-id>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	if components.Analyzer == nil {
		fmt.Fprintln(os.Stderr, "Analysis needs an OpenAI API key (set openai.api_key or OPENAI_API_KEY)")
		os.Exit(1)
	}

	ctx := context.Background()
	paper, err := components.Storage.GetPaper(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Paper not found: %s\n", fs.Arg(0))
		os.Exit(1)
	}

	var result *models.PaperAnalysis
	switch *kind {
	case "insights":
		result, err = components.Analyzer.Insights(ctx, paper)
	case "review":
		result, err = components.Analyzer.Review(ctx, paper)
	case "analysis":
		result, err = components.Analyzer.AnalyzePaper(ctx, paper)
	default:
		fmt.Fprintf(os.Stderr, "Unknown kind %q; use analysis, insights, or review\n", *kind)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}
	if saveErr := components.Storage.SaveAnalysis(ctx, result); saveErr != nil {
		logger.Warn("saving analysis failed", zap.Error(saveErr))
	}
	_ = cli.WriteAnalysis(os.Stdout, result, format)
}

func runCompare() {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	relatedK := fs.Int("related", 5, "number of related papers to suggest (0 = none)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: arxivmind compare [flags] <paper-id> <paper-id> [paper-id...]")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	if components.Comparator == nil {
		fmt.Fprintln(os.Stderr, "Comparison needs an OpenAI API key (set openai.api_key or OPENAI_API_KEY)")
		os.Exit(1)
	}

	ctx := context.Background()
	papers := make([]*models.Paper, 0, fs.NArg())
	for _, id := range fs.Args() {
		paper, err := components.Storage.GetPaper(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Paper not found: %s\n", id)
			os.Exit(1)
		}
		papers = append(papers, paper)
	}

	result, err := components.Comparator.Compare(ctx, papers, *relatedK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Comparison failed: %v\n", err)
		os.Exit(1)
	}
	if result.Failed() {
		logger.Warn("every aspect failed to generate")
	}
	_ = cli.WriteComparison(os.Stdout, result, format)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: arxivmind delete [flags] <paper-id>")
		os.Exit(1)
	}

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	id := fs.Arg(0)
	if err := components.Ingestor.Delete(context.Background(), id); err != nil {
		fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
		os.Exit(1)
	}
	saveVectorIndex(cfg, components, logger)
	fmt.Printf("Paper deleted: %s\n", id)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	paperCount, err := components.Storage.CountPapers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count papers failed: %v\n", err)
		os.Exit(1)
	}
	analysisCount, err := components.Storage.CountAnalyses(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count analyses failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("papers:             %d\n", paperCount)
	fmt.Printf("analyses:           %d\n", analysisCount)
	fmt.Printf("vector_index_size:  %d\n", components.VectorIndex.Size())
	if kwCount, err := components.KeywordIndex.DocCount(); err == nil {
		fmt.Printf("keyword_index_size: %d\n", kwCount)
	}
	diskBytes, err := storage.DiskUsageBytes(
		cfg.Storage.DatabasePath,
		cfg.Storage.BleveIndexPath,
		cfg.Storage.VectorIndexPath,
	)
	if err == nil {
		fmt.Printf("disk_usage_bytes:   %d\n", diskBytes)
	}
	fmt.Println()
	fmt.Println("# configuration")
	fmt.Printf("embedding_provider: %s\n", cfg.Embedding.Provider)
	fmt.Printf("embedding_dims:     %d\n", cfg.Embedding.Dimensions)
	fmt.Printf("analysis_model:     %s\n", cfg.Analysis.Model)
	fmt.Printf("database_path:      %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("bleve_index_path:   %s\n", cfg.Storage.BleveIndexPath)
	fmt.Printf("vector_index_path:  %s\n", cfg.Storage.VectorIndexPath)
}

func printUsage() {
	fmt.Println(`arxivmind - research paper search and analysis assistant

Usage:
  arxivmind server [flags]                  Start the HTTP server
  arxivmind ingest [flags] <path>           Ingest a paper file or directory
  arxivmind ingest --arxiv "query"          Ingest papers from arXiv search
  arxivmind ingest --ids id1,id2            Ingest arXiv papers by ID
  arxivmind search [flags] <query>          Hybrid keyword + semantic search
  arxivmind similar [flags] <text>          Find papers similar to free text
  arxivmind similar --ids p1,p2             Find papers similar to a group
  arxivmind analyze [flags] <paper-id>      Generate a structured analysis
  arxivmind compare [flags] <id> <id>...    Compare papers aspect by aspect
  arxivmind delete [flags] <paper-id>       Delete a paper
  arxivmind status [flags]                  Show storage and index status
  arxivmind version                         Show version
  arxivmind help                            Show this help

Common Flags:
  --config string   Config file path (default: /usr/local/etc/arxivmind/config.yaml)
  --output string   Output format for result commands: text or json

Examples:
  arxivmind server
  arxivmind ingest --arxiv "retrieval augmented generation" --max 20
  arxivmind ingest papers/attention.pdf
  arxivmind search transformer scaling laws
  arxivmind similar --ids 2301.00001,2302.00002 --limit 10
  arxivmind analyze --kind insights 2301.00001
  arxivmind compare 2301.00001 2302.00002
  arxivmind status`)
}
