package controller

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/itish2003/pdfrag/models"
	"github.com/itish2003/pdfrag/services"
)

// Error reasons returned to clients.
const (
	ErrMsgQuestionRequired = "Question is required"
	ErrMsgNoDocuments      = "No documents uploaded"
	ErrMsgInvalidBody      = "Invalid request body"
	ErrMsgFileRequired     = "File is required"
	ErrMsgUnsupportedFile  = "Only PDF files are supported"
	ErrMsgFileTooLarge     = "File too large"
	ErrMsgIndexFailed      = "Failed to index document"
	ErrMsgAnswerFailed     = "Failed to generate answer"
	ErrMsgStatsFailed      = "Failed to read index stats"
)

// formOverheadBytes is the allowance for multipart boundaries and part
// headers on top of the file size limit.
const formOverheadBytes = 16 << 10

// RAGController handles the HTTP requests for the RAG API. It depends on the
// RAGService to perform the actual business logic.
type RAGController struct {
	ragService     services.RAGService
	maxUploadBytes int64
}

// NewRAGController creates a new RAGController.
func NewRAGController(service services.RAGService, maxUploadBytes int64) *RAGController {
	return &RAGController{
		ragService:     service,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadPDF is the Gin handler for POST /upload. It expects a multipart form
// with the PDF in the "file" field.
func (c *RAGController) UploadPDF(ctx *gin.Context) {
	bodyLimit := c.maxUploadBytes + formOverheadBytes
	if ctx.Request.ContentLength > bodyLimit {
		ctx.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: ErrMsgFileTooLarge})
		return
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, bodyLimit)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: ErrMsgFileTooLarge})
			return
		}
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: ErrMsgFileRequired})
		return
	}
	if fileHeader.Size > c.maxUploadBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: ErrMsgFileTooLarge})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Printf("CONTROLLER: Failed to open upload %s: %v", fileHeader.Filename, err)
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: ErrMsgFileRequired})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, c.maxUploadBytes))
	if err != nil {
		log.Printf("CONTROLLER: Failed to read upload %s: %v", fileHeader.Filename, err)
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: ErrMsgFileRequired})
		return
	}

	resp, err := c.ragService.IndexDocument(ctx.Request.Context(), models.UploadedDocument{
		Filename: fileHeader.Filename,
		Content:  content,
	})
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFile) {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: ErrMsgUnsupportedFile})
			return
		}
		log.Printf("CONTROLLER: Indexing failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: ErrMsgIndexFailed})
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// Ask is the Gin handler for POST /ask.
func (c *RAGController) Ask(ctx *gin.Context) {
	var req models.AskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: ErrMsgQuestionRequired})
			return
		}
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: ErrMsgInvalidBody})
		return
	}

	response, err := c.ragService.Ask(ctx.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrQuestionRequired):
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: ErrMsgQuestionRequired})
	case errors.Is(err, services.ErrNoDocuments):
		ctx.JSON(http.StatusConflict, models.ErrorResponse{Error: ErrMsgNoDocuments})
	case err != nil:
		log.Printf("CONTROLLER: Answering failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: ErrMsgAnswerFailed})
	default:
		ctx.JSON(http.StatusOK, response)
	}
}

// Health is the Gin handler for GET /health.
func (c *RAGController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.ragService.Health(ctx.Request.Context()))
}

// Stats is the Gin handler for GET /stats.
func (c *RAGController) Stats(ctx *gin.Context) {
	response, err := c.ragService.Stats(ctx.Request.Context())
	if err != nil {
		log.Printf("CONTROLLER: Reading stats failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: ErrMsgStatsFailed})
		return
	}
	ctx.JSON(http.StatusOK, response)
}
