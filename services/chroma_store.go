package services

import (
	"context"
	"fmt"
	"log"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// ChromaStore keeps index entries in a Chroma collection. Embeddings are
// always computed by this service and passed explicitly.
type ChromaStore struct {
	client     chromago.Client
	collection chromago.Collection
}

var _ VectorStore = (*ChromaStore)(nil)

// NewChromaStore connects to Chroma and gets or creates the named collection.
func NewChromaStore(ctx context.Context, baseURL, collectionName string) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}

	log.Printf("SERVICE: Getting or creating chroma collection '%s'...", collectionName)
	collection, err := client.GetOrCreateCollection(ctx, collectionName, collectionOptions()...)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get or create collection %s: %w", collectionName, err)
	}
	return &ChromaStore{client: client, collection: collection}, nil
}

// collectionOptions describes a new collection. The space option must come
// after the metadata option, which replaces the metadata wholesale.
func collectionOptions() []chromago.CreateCollectionOption {
	return []chromago.CreateCollectionOption{
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "PDF question answering index"),
				chromago.NewStringAttribute("created_by", "pdfrag"),
			),
		),
		chromago.WithHNSWSpaceCreate(embeddings.COSINE),
	}
}

// Add writes the whole batch in a single request.
func (s *ChromaStore) Add(ctx context.Context, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]chromago.DocumentID, len(entries))
	texts := make([]string, len(entries))
	embs := make([]embeddings.Embedding, len(entries))
	for i, e := range entries {
		ids[i] = chromago.DocumentID(e.ID)
		texts[i] = e.Text
		embs[i] = embeddings.NewEmbeddingFromFloat32(e.Embedding)
	}

	err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
	)
	if err != nil {
		return fmt.Errorf("add %d entries to chroma: %w", len(entries), err)
	}
	return nil
}

// Search queries the collection with a precomputed embedding. The collection
// is created in cosine space, so 1 - distance is the cosine similarity. A
// collection created elsewhere with another space keeps the ordering but not
// the bound.
func (s *ChromaStore) Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("query chroma: %w", err)
	}

	out := []SearchResult{}
	docGroups := results.GetDocumentsGroups()
	if len(docGroups) == 0 {
		return out, nil
	}
	distGroups := results.GetDistancesGroups()
	for i, doc := range docGroups[0] {
		text := doc.ContentString()
		if text == "" {
			continue
		}
		score := 0.0
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			score = 1 - float64(distGroups[0][i])
		}
		out = append(out, SearchResult{Text: text, Score: score})
	}
	return out, nil
}

// Count returns the number of entries in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chroma entries: %w", err)
	}
	return int(count), nil
}

// Close releases the client.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}
