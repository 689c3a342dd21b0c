package services

import "errors"

var (
	// ErrQuestionRequired is returned when an ask request has no question text.
	ErrQuestionRequired = errors.New("question is required")
	// ErrNoDocuments is returned when a question is asked before anything was indexed.
	ErrNoDocuments = errors.New("no documents uploaded")
	// ErrUnsupportedFile is returned for uploads that are not PDF documents.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrDimensionMismatch is returned when embeddings in a batch disagree in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrStateAlreadyWritten is returned when a pipeline step finds its output already set.
	ErrStateAlreadyWritten = errors.New("pipeline state field already written")
)
