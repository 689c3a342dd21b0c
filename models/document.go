package models

// UploadedDocument is a document received for indexing. It only lives for the
// duration of the upload request.
type UploadedDocument struct {
	Filename string
	Content  []byte
}
