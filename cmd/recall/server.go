package recall

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/config"
	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/soundprediction/recall/pkg/driver"
	"github.com/soundprediction/recall/pkg/embedder"
	recallLogger "github.com/soundprediction/recall/pkg/logger"
	"github.com/soundprediction/recall/pkg/search"
	"github.com/soundprediction/recall/pkg/server"
	"github.com/soundprediction/recall/pkg/telemetry"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Recall HTTP server",
	Long: `Start the Recall HTTP server to provide REST API access to the knowledge graph.

The server provides endpoints for:
- Searching the knowledge graph (simple, advanced, streaming)
- Composing memory context from conversation messages
- Paging through edges, nodes, episodes, and communities
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Database flags
	serverCmd.Flags().String("db-uri", "bolt://localhost:7687", "Neo4j URI")
	serverCmd.Flags().String("db-username", "neo4j", "Database username")
	serverCmd.Flags().String("db-password", "", "Database password")
	serverCmd.Flags().String("db-database", "neo4j", "Database name")

	// Embedding flags
	serverCmd.Flags().String("embedding-provider", "embedeverything", "Embedding provider (openai, embedeverything, mock)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")
	serverCmd.Flags().Bool("embedding-cache", false, "Enable the embedding cache")
	serverCmd.Flags().String("embedding-cache-path", "", "Embedding cache directory (empty means in-memory)")

	// Cross-encoder flags
	serverCmd.Flags().String("cross-encoder-provider", "embedding", "Cross-encoder provider (openai, embedding, mock)")
	serverCmd.Flags().String("cross-encoder-model", "", "Cross-encoder model")
	serverCmd.Flags().String("cross-encoder-api-key", "", "Cross-encoder API key")

	// Telemetry flags
	serverCmd.Flags().Bool("telemetry", false, "Enable Parquet error telemetry")
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry output")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize Recall
	fmt.Println("Initializing Recall...")
	client, parquetHandler, err := initializeRecall(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Recall: %w", err)
	}

	// Create and setup server
	srv := server.New(cfg, client)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		// Create shutdown context with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Shutdown server
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if parquetHandler != nil {
			if err := parquetHandler.Flush(); err != nil {
				fmt.Printf("Warning: failed to flush telemetry: %v\n", err)
			}
		}
		if err := client.Close(shutdownCtx); err != nil {
			fmt.Printf("Warning: failed to close client: %v\n", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Database flags
	if cmd.Flags().Changed("db-uri") {
		cfg.Database.URI, _ = cmd.Flags().GetString("db-uri")
	}
	if cmd.Flags().Changed("db-username") {
		cfg.Database.Username, _ = cmd.Flags().GetString("db-username")
	}
	if cmd.Flags().Changed("db-password") {
		cfg.Database.Password, _ = cmd.Flags().GetString("db-password")
	}
	if cmd.Flags().Changed("db-database") {
		cfg.Database.Database, _ = cmd.Flags().GetString("db-database")
	}

	// Embedding flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}
	if cmd.Flags().Changed("embedding-cache") {
		cfg.Embedding.CacheEnabled, _ = cmd.Flags().GetBool("embedding-cache")
	}
	if cmd.Flags().Changed("embedding-cache-path") {
		cfg.Embedding.CachePath, _ = cmd.Flags().GetString("embedding-cache-path")
	}

	// Cross-encoder flags
	if cmd.Flags().Changed("cross-encoder-provider") {
		cfg.CrossEncoder.Provider, _ = cmd.Flags().GetString("cross-encoder-provider")
	}
	if cmd.Flags().Changed("cross-encoder-model") {
		cfg.CrossEncoder.Model, _ = cmd.Flags().GetString("cross-encoder-model")
	}
	if cmd.Flags().Changed("cross-encoder-api-key") {
		cfg.CrossEncoder.APIKey, _ = cmd.Flags().GetString("cross-encoder-api-key")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry") {
		cfg.Telemetry.Enabled, _ = cmd.Flags().GetBool("telemetry")
	}
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if cfg.Database.URI == "" {
		return fmt.Errorf("database URI is required")
	}
	return nil
}

func initializeRecall(cfg *config.Config) (*recall.Client, *telemetry.ParquetHandler, error) {
	colorHandler := recallLogger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: recallLogger.ParseLevel(cfg.Log.Level),
	})
	logger := slog.New(colorHandler)

	// Error telemetry using Parquet
	var parquetHandler *telemetry.ParquetHandler
	if cfg.Telemetry.Enabled {
		handler, err := telemetry.NewParquetHandler(colorHandler, cfg.Telemetry.ParquetPath, cfg.Telemetry.BatchSize)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		} else {
			parquetHandler = handler
			logger = slog.New(parquetHandler)
			fmt.Printf("Error tracking enabled at: %s\n", cfg.Telemetry.ParquetPath)
		}
	}

	// Initialize the graph reader
	reader, err := driver.NewNeo4jReader(cfg.Database.URI, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create neo4j reader: %w", err)
	}

	// Initialize the embedder
	embedderClient, err := embedder.NewClient(embedder.Config{
		Provider:   embedder.Provider(cfg.Embedding.Provider),
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.Embedding.CacheEnabled {
		cached, err := embedder.NewCachingClient(embedderClient, cfg.Embedding.Model, embedder.CacheConfig{
			Path: cfg.Embedding.CachePath,
			TTL:  time.Duration(cfg.Embedding.CacheTTL) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create embedding cache: %w", err)
		}
		embedderClient = cached
		fmt.Printf("Embedding cache enabled at: %s\n", cfg.Embedding.CachePath)
	}

	// Initialize the cross-encoder
	var crossEncoderClient crossencoder.Client
	if cfg.CrossEncoder.Provider != "" {
		crossEncoderClient, err = crossencoder.NewClient(crossencoder.Config{
			Provider:       crossencoder.Provider(cfg.CrossEncoder.Provider),
			Model:          cfg.CrossEncoder.Model,
			BatchSize:      cfg.CrossEncoder.BatchSize,
			MaxConcurrency: cfg.CrossEncoder.MaxConcurrency,
			APIKey:         cfg.CrossEncoder.APIKey,
			BaseURL:        cfg.CrossEncoder.BaseURL,
		}, embedderClient)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create cross-encoder: %w", err)
		}
		if cfg.CircuitBreaker.Enabled {
			crossEncoderClient = crossencoder.NewCircuitBreakerClient(crossEncoderClient, crossencoder.BreakerConfig{
				Enabled:          cfg.CircuitBreaker.Enabled,
				MaxRequests:      cfg.CircuitBreaker.MaxRequests,
				Interval:         cfg.CircuitBreaker.Interval,
				Timeout:          cfg.CircuitBreaker.Timeout,
				ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
			}, logger, "cross-encoder")
		}
	}

	// Create the Recall client
	searchConfig := search.DefaultSearchConfig()
	if cfg.Search.Limit > 0 {
		searchConfig.Limit = cfg.Search.Limit
	}
	if cfg.Search.RankConstant > 0 {
		searchConfig.RankConstant = cfg.Search.RankConstant
	}
	client, err := recall.NewClient(reader, embedderClient, crossEncoderClient, &recall.Config{
		SearchConfig:   searchConfig,
		MaxConcurrency: cfg.Search.MaxConcurrency,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Recall client: %w", err)
	}

	fmt.Printf("Recall initialized with database: %s\n", cfg.Database.URI)
	fmt.Printf("Embedding provider: %s, model: %s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	if crossEncoderClient != nil {
		fmt.Printf("Cross-encoder provider: %s\n", cfg.CrossEncoder.Provider)
	}

	return client, parquetHandler, nil
}
