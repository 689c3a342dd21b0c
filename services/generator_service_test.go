package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/itish2003/pdfrag/config"
)

// recordingModel is a langchaingo model that records the prompt it receives.
type recordingModel struct {
	reply       string
	err         error
	prompt      string
	temperature float64
}

func (m *recordingModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{Temperature: -1}
	for _, o := range options {
		o(&opts)
	}
	m.temperature = opts.Temperature
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt += text.Text
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangchainGenerator_Generate(t *testing.T) {
	model := &recordingModel{reply: "  Paris.\n"}
	g := NewLangchainGenerator(model)

	answer, err := g.Generate(context.Background(), "What is the capital of France?", "The capital of France is Paris.")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", answer)
	assert.Equal(t, 0.0, model.temperature)
	assert.Contains(t, model.prompt, "Question: What is the capital of France?")
	assert.Contains(t, model.prompt, "The capital of France is Paris.")
	assert.Contains(t, model.prompt, FallbackAnswer)
}

func TestLangchainGenerator_PropagatesErrors(t *testing.T) {
	g := NewLangchainGenerator(&recordingModel{err: errors.New("429 too many requests")})

	_, err := g.Generate(context.Background(), "q", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewAnswerGenerator_Selection(t *testing.T) {
	creds := config.CredentialsConfig{OpenAIAPIKey: "test-key", OllamaURL: "http://localhost:11434"}

	g, err := NewAnswerGenerator(config.ProviderConfig{Provider: config.ProviderOpenAI, Model: "gpt-3.5-turbo"}, creds, nil)
	require.NoError(t, err)
	assert.IsType(t, &LangchainGenerator{}, g)

	g, err = NewAnswerGenerator(config.ProviderConfig{Provider: config.ProviderOllama, Model: "llama3.1"}, creds, nil)
	require.NoError(t, err)
	assert.IsType(t, &LangchainGenerator{}, g)

	_, err = NewAnswerGenerator(config.ProviderConfig{Provider: config.ProviderGemini}, creds, nil)
	assert.Error(t, err, "gemini needs a client")

	_, err = NewAnswerGenerator(config.ProviderConfig{Provider: "bard"}, creds, nil)
	assert.Error(t, err)
}

func TestNewEmbedder_Selection(t *testing.T) {
	creds := config.CredentialsConfig{OpenAIAPIKey: "test-key", OllamaURL: "http://localhost:11434"}

	e, err := NewEmbedder(config.ProviderConfig{Provider: config.ProviderOpenAI, Model: "text-embedding-ada-002"}, creds, nil)
	require.NoError(t, err)
	assert.NotNil(t, e)

	_, err = NewEmbedder(config.ProviderConfig{Provider: config.ProviderGemini}, creds, nil)
	assert.Error(t, err)

	_, err = NewEmbedder(config.ProviderConfig{Provider: "word2vec"}, creds, nil)
	assert.Error(t, err)
}
