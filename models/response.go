package models

// IndexDocumentResponse is returned after a document has been processed.
type IndexDocumentResponse struct {
	Message  string `json:"message"`
	Accepted bool   `json:"accepted"`
	Chunks   int    `json:"chunks"`
}

// AskResponse carries the generated answer and the chunks cited as its sources.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// HealthResponse reports liveness and whether any document has been indexed.
type HealthResponse struct {
	Status       string `json:"status"`
	HasDocuments bool   `json:"has_documents"`
}

// StatsResponse reports the number of chunks held by the index.
type StatsResponse struct {
	Chunks int `json:"chunks"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
