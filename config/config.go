package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider and backend names accepted by the configuration.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	StoreMemory = "memory"
	StoreChroma = "chroma"

	LoaderAuto      = "auto"
	LoaderUniPDF    = "unipdf"
	LoaderLangchain = "langchain"
)

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	Port          string `yaml:"port"`
	AllowedOrigin string `yaml:"allowed_origin"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
}

// ChunkerConfig configures how extracted text is split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig controls how many chunks feed the prompt and how many are cited.
type RetrievalConfig struct {
	TopK         int `yaml:"top_k"`
	SourcesLimit int `yaml:"sources_limit"`
}

// ProviderConfig selects a model provider and the model it should use.
type ProviderConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// CredentialsConfig holds provider endpoints and keys. Keys are normally
// supplied through the environment rather than the YAML file.
type CredentialsConfig struct {
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	OllamaURL     string `yaml:"ollama_url"`
}

// VectorStoreConfig selects the backend that holds index entries.
type VectorStoreConfig struct {
	Type             string `yaml:"type"`
	ChromaURL        string `yaml:"chroma_url"`
	ChromaCollection string `yaml:"chroma_collection"`
}

// PDFConfig selects the PDF text extractor.
type PDFConfig struct {
	Loader     string `yaml:"loader"`
	LicenseKey string `yaml:"license_key"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	LLM         ProviderConfig    `yaml:"llm"`
	Embedding   ProviderConfig    `yaml:"embedding"`
	Credentials CredentialsConfig `yaml:"credentials"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	PDF         PDFConfig         `yaml:"pdf"`
	WatchDir    string            `yaml:"watch_dir"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("CONFIG: No .env file found, relying on environment variables.")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyModelDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing overrides it.
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:          "8080",
			AllowedOrigin: "http://localhost:3000",
			MaxUploadMB:   32,
		},
		Chunker:     ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 200},
		Retrieval:   RetrievalConfig{TopK: 3, SourcesLimit: 2},
		LLM:         ProviderConfig{Provider: ProviderOpenAI},
		Embedding:   ProviderConfig{Provider: ProviderOpenAI},
		Credentials: CredentialsConfig{OllamaURL: "http://localhost:11434"},
		VectorStore: VectorStoreConfig{
			Type:             StoreMemory,
			ChromaURL:        "http://localhost:8000",
			ChromaCollection: "pdf-rag",
		},
		PDF: PDFConfig{Loader: LoaderAuto},
	}
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	var firstErr error
	num := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			return
		}
		*dst = n
	}

	str("PORT", &cfg.Server.Port)
	str("ALLOWED_ORIGIN", &cfg.Server.AllowedOrigin)
	num("MAX_UPLOAD_MB", &cfg.Server.MaxUploadMB)
	num("CHUNK_SIZE", &cfg.Chunker.ChunkSize)
	num("CHUNK_OVERLAP", &cfg.Chunker.ChunkOverlap)
	num("RETRIEVE_K", &cfg.Retrieval.TopK)
	num("SOURCES_LIMIT", &cfg.Retrieval.SourcesLimit)
	str("LLM_PROVIDER", &cfg.LLM.Provider)
	str("LLM_MODEL", &cfg.LLM.Model)
	str("EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	str("EMBEDDING_MODEL", &cfg.Embedding.Model)
	str("OPENAI_API_KEY", &cfg.Credentials.OpenAIAPIKey)
	str("OPENAI_BASE_URL", &cfg.Credentials.OpenAIBaseURL)
	str("GEMINI_API_KEY", &cfg.Credentials.GeminiAPIKey)
	str("OLLAMA_URL", &cfg.Credentials.OllamaURL)
	str("VECTOR_STORE", &cfg.VectorStore.Type)
	str("CHROMA_URL", &cfg.VectorStore.ChromaURL)
	str("CHROMA_COLLECTION", &cfg.VectorStore.ChromaCollection)
	str("PDF_LOADER", &cfg.PDF.Loader)
	str("UNIDOC_LICENSE_KEY", &cfg.PDF.LicenseKey)
	str("WATCH_DIR", &cfg.WatchDir)
	return firstErr
}

func applyModelDefaults(cfg *AppConfig) {
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case ProviderOpenAI:
			cfg.LLM.Model = "gpt-3.5-turbo"
		case ProviderGemini:
			cfg.LLM.Model = "gemini-2.5-flash"
		case ProviderOllama:
			cfg.LLM.Model = "llama3.1"
		}
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case ProviderOpenAI:
			cfg.Embedding.Model = "text-embedding-ada-002"
		case ProviderGemini:
			cfg.Embedding.Model = "text-embedding-004"
		case ProviderOllama:
			cfg.Embedding.Model = "nomic-embed-text:v1.5"
		}
	}
}

// Validate reports the first setting that cannot produce a working service.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}
	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", c.Chunker.ChunkOverlap, c.Chunker.ChunkSize)
	}
	if c.Retrieval.TopK <= 0 {
		return errors.New("retrieval top_k must be positive")
	}
	if c.Retrieval.SourcesLimit <= 0 {
		return errors.New("sources limit must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("max upload size must be positive")
	}
	if !oneOf(c.LLM.Provider, ProviderOpenAI, ProviderGemini, ProviderOllama) {
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	if !oneOf(c.Embedding.Provider, ProviderOpenAI, ProviderGemini, ProviderOllama) {
		return fmt.Errorf("unknown embedding provider: %s", c.Embedding.Provider)
	}
	if !oneOf(c.VectorStore.Type, StoreMemory, StoreChroma) {
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	if !oneOf(c.PDF.Loader, LoaderAuto, LoaderUniPDF, LoaderLangchain) {
		return fmt.Errorf("unknown pdf loader: %s", c.PDF.Loader)
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
