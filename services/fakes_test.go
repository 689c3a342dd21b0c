package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

const fakeDim = 64

var stopwords = map[string]bool{
	"the": true, "is": true, "of": true, "a": true, "an": true, "what": true,
	"how": true, "do": true, "does": true, "in": true, "and": true, "to": true,
}

func tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// fakeEmbedder hashes content words into a fixed-size bag-of-words vector.
type fakeEmbedder struct {
	mu          sync.Mutex
	docCalls    int
	queryCalls  int
	failDocs    error
	failQueries error
}

func (f *fakeEmbedder) embed(text string) []float32 {
	v := make([]float32, fakeDim)
	for _, tok := range tokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[h.Sum32()%fakeDim]++
	}
	return v
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.docCalls++
	err := f.failDocs
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queryCalls++
	err := f.failQueries
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.embed(text), nil
}

// fakeLoader treats everything after the PDF header line as the document text.
type fakeLoader struct {
	err error
}

func (l *fakeLoader) Load(_ context.Context, content []byte) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	text := string(content)
	if i := strings.Index(text, "\n"); i >= 0 && strings.HasPrefix(text, "%PDF") {
		text = text[i+1:]
	}
	return text, nil
}

// fakeGenerator answers with the first context sentence sharing at least two
// content words with the question, or the fallback sentence.
type fakeGenerator struct {
	mu       sync.Mutex
	err      error
	contexts []string
}

func (g *fakeGenerator) Generate(_ context.Context, question, contextText string) (string, error) {
	g.mu.Lock()
	g.contexts = append(g.contexts, contextText)
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}

	want := map[string]bool{}
	for _, t := range tokens(question) {
		want[t] = true
	}
	for _, sentence := range strings.Split(contextText, ".") {
		hits := 0
		for _, t := range tokens(sentence) {
			if want[t] {
				hits++
			}
		}
		if hits >= 2 {
			return strings.TrimSpace(sentence) + ".", nil
		}
	}
	return FallbackAnswer, nil
}

func (g *fakeGenerator) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.contexts...)
}

// failingStore rejects every batch.
type failingStore struct {
	MemoryStore
}

func (s *failingStore) Add(context.Context, []IndexEntry) error {
	return errors.New("store unavailable")
}

func pdfBytes(text string) []byte {
	return []byte("%PDF-1.4\n" + text)
}
