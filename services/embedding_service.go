package services

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"github.com/itish2003/pdfrag/config"
)

// geminiEmbedBatchSize is the largest number of texts sent in one EmbedContent call.
const geminiEmbedBatchSize = 100

// NewEmbedder builds the embedding provider selected in the configuration.
// The Gemini client is only needed for the gemini provider and may be nil otherwise.
func NewEmbedder(p config.ProviderConfig, creds config.CredentialsConfig, geminiClient *genai.Client) (embeddings.Embedder, error) {
	switch p.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(creds.OpenAIAPIKey),
			openai.WithEmbeddingModel(p.Model),
		}
		if creds.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(creds.OpenAIBaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai embedding client: %w", err)
		}
		return newLangchainEmbedder(llm)
	case config.ProviderOllama:
		llm, err := ollama.New(ollama.WithModel(p.Model), ollama.WithServerURL(creds.OllamaURL))
		if err != nil {
			return nil, fmt.Errorf("create ollama embedding client: %w", err)
		}
		return newLangchainEmbedder(llm)
	case config.ProviderGemini:
		if geminiClient == nil {
			return nil, fmt.Errorf("gemini embedder requires a gemini client")
		}
		return NewGeminiEmbedder(geminiClient, p.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", p.Provider)
	}
}

func newLangchainEmbedder(client embeddings.EmbedderClient) (embeddings.Embedder, error) {
	e, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return e, nil
}

// GeminiEmbedder computes embeddings with the Gemini embedding models.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

var _ embeddings.Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates an embedder using the given client and model.
func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

// EmbedDocuments embeds texts in batches. Nothing is returned unless every
// text was embedded.
func (g *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiEmbedBatchSize {
		end := start + geminiEmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		var contents []*genai.Content
		for _, t := range texts[start:end] {
			contents = append(contents, genai.Text(t)...)
		}

		resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini embed batch %d-%d: %w", start, end, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			vectors = append(vectors, e.Values)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query text.
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
