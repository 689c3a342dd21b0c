package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/genai"

	"github.com/itish2003/pdfrag/config"
	"github.com/itish2003/pdfrag/controller"
	"github.com/itish2003/pdfrag/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	var geminiClient *genai.Client
	if cfg.LLM.Provider == config.ProviderGemini || cfg.Embedding.Provider == config.ProviderGemini {
		geminiClient, err = services.NewGeminiClient(ctx, cfg.Credentials.GeminiAPIKey)
		if err != nil {
			log.Fatalf("FATAL: %v. Make sure GEMINI_API_KEY is set.", err)
		}
		log.Println("Successfully connected to Google Gemini.")
	}

	embedder, err := services.NewEmbedder(cfg.Embedding, cfg.Credentials, geminiClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedder: %v", err)
	}
	generator, err := services.NewAnswerGenerator(cfg.LLM, cfg.Credentials, geminiClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to create answer generator: %v", err)
	}
	loader, err := services.NewDocumentLoader(cfg.PDF.Loader, cfg.PDF.LicenseKey)
	if err != nil {
		log.Fatalf("FATAL: Failed to create PDF loader: %v", err)
	}
	chunker, err := services.NewChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		log.Fatalf("FATAL: Invalid chunker settings: %v", err)
	}

	store, closeStore, err := openVectorStore(ctx, cfg.VectorStore)
	if err != nil {
		log.Fatalf("FATAL: Failed to open vector store: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Printf("Warning: Failed to close vector store: %v", err)
		}
	}()

	index, err := services.NewVectorIndex(ctx, embedder, store)
	if err != nil {
		log.Fatalf("FATAL: Failed to create vector index: %v", err)
	}
	pipeline := services.NewPipeline(index, generator, cfg.Retrieval.TopK)
	ragService := services.NewRAGService(loader, chunker, index, pipeline, cfg.Retrieval.SourcesLimit)

	if cfg.WatchDir != "" {
		indexer := services.NewFileIndexingService(ragService)
		go func() {
			if err := indexer.ScanAndIndexDirectory(ctx, cfg.WatchDir); err != nil {
				log.Printf("INDEXER ERROR: Error walking the path %s: %v", cfg.WatchDir, err)
			}
			if err := indexer.WatchDirectory(ctx, cfg.WatchDir); err != nil {
				log.Printf("WATCHER ERROR: %v", err)
			}
		}()
	}

	maxUpload := int64(cfg.Server.MaxUploadMB) << 20
	ragController := controller.NewRAGController(ragService, maxUpload)
	router := controller.NewRouter(ragController, cfg.Server.AllowedOrigin)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Go Gin backend server starting on http://localhost:%s", cfg.Server.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST http://localhost:%s/upload", cfg.Server.Port)
	log.Printf("  POST http://localhost:%s/ask", cfg.Server.Port)
	log.Printf("  GET  http://localhost:%s/health", cfg.Server.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// openVectorStore returns the configured store and a function releasing it.
func openVectorStore(ctx context.Context, cfg config.VectorStoreConfig) (services.VectorStore, func() error, error) {
	switch cfg.Type {
	case config.StoreChroma:
		store, err := services.NewChromaStore(ctx, cfg.ChromaURL, cfg.ChromaCollection)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using chroma collection '%s' at %s", cfg.ChromaCollection, cfg.ChromaURL)
		return store, store.Close, nil
	default:
		log.Println("Using in-memory vector store; the index is lost on restart.")
		return services.NewMemoryStore(), func() error { return nil }, nil
	}
}
