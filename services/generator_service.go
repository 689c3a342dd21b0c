package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"github.com/itish2003/pdfrag/config"
)

// AnswerGenerator produces an answer to a question from supporting context.
type AnswerGenerator interface {
	Generate(ctx context.Context, question, contextText string) (string, error)
}

// NewAnswerGenerator builds the generator selected in the configuration.
// The Gemini client is only needed for the gemini provider and may be nil otherwise.
func NewAnswerGenerator(p config.ProviderConfig, creds config.CredentialsConfig, geminiClient *genai.Client) (AnswerGenerator, error) {
	switch p.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(creds.OpenAIAPIKey),
			openai.WithModel(p.Model),
		}
		if creds.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(creds.OpenAIBaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai chat client: %w", err)
		}
		return NewLangchainGenerator(llm), nil
	case config.ProviderOllama:
		llm, err := ollama.New(ollama.WithModel(p.Model), ollama.WithServerURL(creds.OllamaURL))
		if err != nil {
			return nil, fmt.Errorf("create ollama chat client: %w", err)
		}
		return NewLangchainGenerator(llm), nil
	case config.ProviderGemini:
		if geminiClient == nil {
			return nil, fmt.Errorf("gemini generator requires a gemini client")
		}
		return NewGeminiGenerator(geminiClient, p.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", p.Provider)
	}
}

// LangchainGenerator answers through any langchaingo model (OpenAI, Ollama).
type LangchainGenerator struct {
	llm llms.Model
}

var _ AnswerGenerator = (*LangchainGenerator)(nil)

// NewLangchainGenerator wraps a langchaingo model.
func NewLangchainGenerator(llm llms.Model) *LangchainGenerator {
	return &LangchainGenerator{llm: llm}
}

// Generate sends one prompt at temperature zero.
func (g *LangchainGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	prompt := BuildAnswerPrompt(question, contextText)
	answer, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// GeminiGenerator answers with a Gemini model.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

var _ AnswerGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator using the given client and model.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

// Generate sends one prompt at temperature zero and concatenates the text parts
// of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	prompt := BuildAnswerPrompt(question, contextText)
	temperature := float32(0)
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(responseText.String()), nil
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}
