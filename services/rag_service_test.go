package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/pdfrag/models"
)

type serviceFixture struct {
	svc      RAGService
	embedder *fakeEmbedder
	loader   *fakeLoader
	gen      *fakeGenerator
	index    *VectorIndex
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	emb := &fakeEmbedder{}
	loader := &fakeLoader{}
	gen := &fakeGenerator{}
	idx := newTestIndex(t, emb)
	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)
	pipeline := NewPipeline(idx, gen, DefaultRetrieveK)
	return &serviceFixture{
		svc:      NewRAGService(loader, chunker, idx, pipeline, DefaultSourcesLimit),
		embedder: emb,
		loader:   loader,
		gen:      gen,
		index:    idx,
	}
}

func (f *serviceFixture) upload(t *testing.T, text string) *models.IndexDocumentResponse {
	t.Helper()
	resp, err := f.svc.IndexDocument(context.Background(), models.UploadedDocument{
		Filename: "doc.pdf",
		Content:  pdfBytes(text),
	})
	require.NoError(t, err)
	return resp
}

func TestRAGService_UploadThenAsk(t *testing.T) {
	f := newServiceFixture(t)

	resp := f.upload(t, "The capital of France is Paris.")
	assert.True(t, resp.Accepted)
	assert.Equal(t, 1, resp.Chunks)
	assert.Equal(t, "PDF indexed successfully", resp.Message)

	answer, err := f.svc.Ask(context.Background(), models.AskRequest{Question: "What is the capital of France?"})
	require.NoError(t, err)
	assert.Contains(t, answer.Answer, "Paris")
	assert.NotEmpty(t, answer.Sources)
}

func TestRAGService_AskBeforeUpload(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Ask(context.Background(), models.AskRequest{Question: "What is the capital of France?"})
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.Empty(t, f.gen.calls())
}

func TestRAGService_AskEmptyQuestion(t *testing.T) {
	f := newServiceFixture(t)
	f.upload(t, "The capital of France is Paris.")

	for _, q := range []string{"", "   \n"} {
		_, err := f.svc.Ask(context.Background(), models.AskRequest{Question: q})
		assert.ErrorIs(t, err, ErrQuestionRequired)
	}
}

func TestRAGService_EmptyQuestionCheckedBeforeIndexState(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Ask(context.Background(), models.AskRequest{Question: ""})
	assert.ErrorIs(t, err, ErrQuestionRequired)
}

func TestRAGService_UnrelatedQuestionFallsBack(t *testing.T) {
	f := newServiceFixture(t)
	f.upload(t, "The capital of France is Paris.")

	answer, err := f.svc.Ask(context.Background(), models.AskRequest{Question: "How do volcanoes erupt underwater?"})
	require.NoError(t, err)
	assert.Equal(t, FallbackAnswer, answer.Answer)
}

func TestRAGService_SourcesLimitedToTwo(t *testing.T) {
	f := newServiceFixture(t)
	for _, text := range []string{
		"The capital of France is Paris.",
		"France is a country in Europe.",
		"The capital city hosts the government.",
		"Spain borders France.",
	} {
		f.upload(t, text)
	}

	answer, err := f.svc.Ask(context.Background(), models.AskRequest{Question: "What is the capital of France?"})
	require.NoError(t, err)
	assert.Len(t, answer.Sources, DefaultSourcesLimit)

	calls := f.gen.calls()
	require.Len(t, calls, 1)
	for _, s := range answer.Sources {
		assert.Contains(t, calls[0], s)
	}
}

func TestRAGService_Health(t *testing.T) {
	f := newServiceFixture(t)

	h := f.svc.Health(context.Background())
	assert.Equal(t, models.HealthResponse{Status: "ok", HasDocuments: false}, h)

	f.upload(t, "The capital of France is Paris.")
	h = f.svc.Health(context.Background())
	assert.Equal(t, models.HealthResponse{Status: "ok", HasDocuments: true}, h)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
}

func TestRAGService_RepeatedUploadsAppend(t *testing.T) {
	f := newServiceFixture(t)
	f.upload(t, "The capital of France is Paris.")
	f.upload(t, "The capital of France is Paris.")

	assert.Equal(t, 2, f.index.Count())
}

func TestRAGService_RejectsNonPDF(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.IndexDocument(context.Background(), models.UploadedDocument{
		Filename: "notes.txt",
		Content:  []byte("plain text"),
	})
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = f.svc.IndexDocument(context.Background(), models.UploadedDocument{
		Filename: "fake.pdf",
		Content:  []byte("not really a pdf"),
	})
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.False(t, f.index.IsInitialized())
}

func TestRAGService_AcceptsPDFBytesUnderAnyName(t *testing.T) {
	for _, name := range []string{"blob", "scan.bin", ""} {
		t.Run(name, func(t *testing.T) {
			f := newServiceFixture(t)

			resp, err := f.svc.IndexDocument(context.Background(), models.UploadedDocument{
				Filename: name,
				Content:  pdfBytes("The capital of France is Paris."),
			})
			require.NoError(t, err)
			assert.True(t, resp.Accepted)
			assert.True(t, f.index.IsInitialized())
		})
	}
}

func TestRAGService_NoTextIsNotAccepted(t *testing.T) {
	f := newServiceFixture(t)

	resp := f.upload(t, "   ")
	assert.False(t, resp.Accepted)
	assert.Equal(t, 0, resp.Chunks)
	assert.False(t, f.index.IsInitialized())
}

func TestRAGService_ProviderFailures(t *testing.T) {
	t.Run("loader", func(t *testing.T) {
		f := newServiceFixture(t)
		f.loader.err = errors.New("corrupt pdf")
		_, err := f.svc.IndexDocument(context.Background(), models.UploadedDocument{
			Filename: "doc.pdf", Content: pdfBytes("text"),
		})
		assert.Error(t, err)
		assert.False(t, f.index.IsInitialized())
	})

	t.Run("embedding", func(t *testing.T) {
		f := newServiceFixture(t)
		f.embedder.failDocs = errors.New("quota exceeded")
		_, err := f.svc.IndexDocument(context.Background(), models.UploadedDocument{
			Filename: "doc.pdf", Content: pdfBytes("The capital of France is Paris."),
		})
		assert.Error(t, err)
		assert.False(t, f.index.IsInitialized())
	})

	t.Run("generation", func(t *testing.T) {
		f := newServiceFixture(t)
		f.upload(t, "The capital of France is Paris.")
		f.gen.err = errors.New("model overloaded")
		_, err := f.svc.Ask(context.Background(), models.AskRequest{Question: "What is the capital of France?"})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoDocuments)
	})
}
