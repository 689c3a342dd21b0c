package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/itish2003/pdfrag/models"
)

// DefaultSourcesLimit is the number of retrieved chunks returned as citations.
const DefaultSourcesLimit = 2

// RAGService interface defines the operations exposed to the HTTP layer.
type RAGService interface {
	IndexDocument(c context.Context, doc models.UploadedDocument) (*models.IndexDocumentResponse, error)
	IndexFile(c context.Context, path string) (*models.IndexDocumentResponse, error)
	Ask(c context.Context, req models.AskRequest) (*models.AskResponse, error)
	Health(c context.Context) models.HealthResponse
	Stats(c context.Context) (*models.StatsResponse, error)
}

// ragServiceImpl holds the dependencies it needs to do its job.
type ragServiceImpl struct {
	loader       DocumentLoader
	chunker      *Chunker
	index        *VectorIndex
	pipeline     *Pipeline
	sourcesLimit int
}

// NewRAGService creates a new RAG service instance.
func NewRAGService(loader DocumentLoader, chunker *Chunker, index *VectorIndex, pipeline *Pipeline, sourcesLimit int) RAGService {
	if sourcesLimit <= 0 {
		sourcesLimit = DefaultSourcesLimit
	}
	return &ragServiceImpl{
		loader:       loader,
		chunker:      chunker,
		index:        index,
		pipeline:     pipeline,
		sourcesLimit: sourcesLimit,
	}
}

// IndexDocument implements RAGService.
func (r *ragServiceImpl) IndexDocument(c context.Context, doc models.UploadedDocument) (*models.IndexDocumentResponse, error) {
	if !IsPDF(doc.Content) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, doc.Filename)
	}
	log.Printf("SERVICE: Indexing '%s' (%d bytes)", doc.Filename, len(doc.Content))

	text, err := r.loader.Load(c, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("could not extract text from %s: %w", doc.Filename, err)
	}

	chunks, err := r.chunker.Split(text)
	if err != nil {
		return nil, fmt.Errorf("could not split %s: %w", doc.Filename, err)
	}
	if len(chunks) == 0 {
		log.Printf("SERVICE: No text found in '%s'", doc.Filename)
		return &models.IndexDocumentResponse{
			Message:  "No text could be extracted from the PDF",
			Accepted: false,
			Chunks:   0,
		}, nil
	}

	n, err := r.index.Insert(c, chunks)
	if err != nil {
		return nil, fmt.Errorf("could not index %s: %w", doc.Filename, err)
	}

	log.Printf("SERVICE: Indexed '%s' as %d chunks", doc.Filename, n)
	return &models.IndexDocumentResponse{
		Message:  "PDF indexed successfully",
		Accepted: true,
		Chunks:   n,
	}, nil
}

// IndexFile reads a PDF from disk and indexes it.
func (r *ragServiceImpl) IndexFile(c context.Context, path string) (*models.IndexDocumentResponse, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return r.IndexDocument(c, models.UploadedDocument{
		Filename: filepath.Base(path),
		Content:  content,
	})
}

// Ask implements RAGService.
func (r *ragServiceImpl) Ask(c context.Context, req models.AskRequest) (*models.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrQuestionRequired
	}
	if !r.index.IsInitialized() {
		return nil, ErrNoDocuments
	}
	log.Printf("SERVICE: Answering question: '%s'", question)

	state, err := r.pipeline.Run(c, question)
	if err != nil {
		return nil, fmt.Errorf("could not answer question: %w", err)
	}

	sources := state.Document
	if len(sources) > r.sourcesLimit {
		sources = sources[:r.sourcesLimit]
	}
	return &models.AskResponse{
		Answer:  state.Answer,
		Sources: append([]string{}, sources...),
	}, nil
}

// Health implements RAGService.
func (r *ragServiceImpl) Health(_ context.Context) models.HealthResponse {
	return models.HealthResponse{
		Status:       "ok",
		HasDocuments: r.index.IsInitialized(),
	}
}

// Stats implements RAGService.
func (r *ragServiceImpl) Stats(_ context.Context) (*models.StatsResponse, error) {
	return &models.StatsResponse{Chunks: r.index.Count()}, nil
}
