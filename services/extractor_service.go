package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// DocumentLoader turns raw document bytes into plain text.
type DocumentLoader interface {
	Load(ctx context.Context, content []byte) (string, error)
}

// IsPDF reports whether content starts with the PDF header. The client's
// file name is not consulted.
func IsPDF(content []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(content, "\x00\t\r\n "), []byte("%PDF"))
}

// UniPDFLoader extracts text page by page with UniPDF. It needs a metered
// license key to process documents.
type UniPDFLoader struct{}

// NewUniPDFLoader registers the license key and returns the loader.
func NewUniPDFLoader(licenseKey string) (*UniPDFLoader, error) {
	if err := license.SetMeteredKey(licenseKey); err != nil {
		return nil, fmt.Errorf("set unidoc license key: %w", err)
	}
	return &UniPDFLoader{}, nil
}

// Load implements DocumentLoader.
func (l *UniPDFLoader) Load(ctx context.Context, content []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("count pdf pages: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("create extractor for page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// LangchainPDFLoader extracts text with the langchaingo PDF document loader.
// It needs no license and is used when no UniPDF key is configured.
type LangchainPDFLoader struct{}

// NewLangchainPDFLoader returns the loader.
func NewLangchainPDFLoader() *LangchainPDFLoader {
	return &LangchainPDFLoader{}
}

// Load implements DocumentLoader.
func (l *LangchainPDFLoader) Load(ctx context.Context, content []byte) (string, error) {
	loader := documentloaders.NewPDF(bytes.NewReader(content), int64(len(content)))
	pages, err := loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load pdf: %w", err)
	}

	var sb strings.Builder
	for _, page := range pages {
		sb.WriteString(page.PageContent)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// NewDocumentLoader picks a PDF loader. "auto" prefers UniPDF when a license
// key is present and falls back to langchaingo otherwise.
func NewDocumentLoader(kind, licenseKey string) (DocumentLoader, error) {
	switch kind {
	case "unipdf":
		return NewUniPDFLoader(licenseKey)
	case "langchain":
		return NewLangchainPDFLoader(), nil
	case "auto", "":
		if licenseKey == "" {
			log.Println("SERVICE: No UniPDF license key set, using langchaingo PDF loader.")
			return NewLangchainPDFLoader(), nil
		}
		loader, err := NewUniPDFLoader(licenseKey)
		if err != nil {
			log.Printf("SERVICE: UniPDF unavailable (%v), using langchaingo PDF loader.", err)
			return NewLangchainPDFLoader(), nil
		}
		return loader, nil
	default:
		return nil, fmt.Errorf("unknown pdf loader: %s", kind)
	}
}
