package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/raluca-web/ai-bot/internal/apperr"
	"github.com/raluca-web/ai-bot/internal/config"
	"github.com/raluca-web/ai-bot/models"
	"github.com/raluca-web/ai-bot/services"
	"github.com/raluca-web/ai-bot/utils"
)

var pdfMagic = []byte{0x25, 0x50, 0x44, 0x46} // %PDF

func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, pipeline *services.IngestionPipeline, store services.VectorStore, locker services.DocumentLocker) {
	docs := router.Group("/api/documents")

	docs.POST("", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", gin.H{"error": err.Error()})
			return
		}

		if err := validateUpload(cfg, fileHeader.Filename, fileHeader.Size, fileHeader.Header.Get("Content-Type")); err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to open uploaded file", nil)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
			return
		}
		if int64(len(data)) > cfg.MaxFileSize {
			utils.RespondWithPipelineError(c,
				fmt.Errorf("file exceeds maximum size of %d bytes: %w", cfg.MaxFileSize, apperr.ErrValidation))
			return
		}

		if len(data) < len(pdfMagic) || string(data[:len(pdfMagic)]) != string(pdfMagic) {
			utils.RespondWithPipelineError(c,
				fmt.Errorf("file is not a valid PDF document (missing PDF header): %w", apperr.ErrValidation))
			return
		}

		result, err := pipeline.Ingest(c.Request.Context(), fileHeader.Filename, fileHeader.Size, data)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{
			Success: true,
			Document: models.UploadDocument{
				ID:     result.DocumentID.Hex(),
				Title:  result.Title,
				Chunks: result.ChunkCount,
				Pages:  result.PageCount,
			},
		})
	})

	docs.GET("", func(c *gin.Context) {
		documents, err := store.ListDocuments(c.Request.Context())
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"documents": documents,
			"total":     len(documents),
		})
	})

	docs.DELETE("/:id", func(c *gin.Context) {
		docID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document ID format", nil)
			return
		}

		err = locker.WithLock(c.Request.Context(), docID.Hex(), func() error {
			return store.DeleteDocument(c.Request.Context(), docID)
		})
		if err != nil {
			if errors.Is(err, services.ErrDocumentNotFound) {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	})
}

// validateUpload checks size, filename and declared content type before any
// bytes are processed.
func validateUpload(cfg *config.Config, filename string, size int64, contentType string) error {
	if size == 0 {
		return fmt.Errorf("file is empty: %w", apperr.ErrValidation)
	}
	if size > cfg.MaxFileSize {
		return fmt.Errorf("file size %d exceeds maximum allowed size %d: %w", size, cfg.MaxFileSize, apperr.ErrValidation)
	}

	if filename == "" {
		return fmt.Errorf("filename is required: %w", apperr.ErrValidation)
	}
	if len(filename) > 255 {
		return fmt.Errorf("filename too long (max 255 characters): %w", apperr.ErrValidation)
	}
	dangerous := []string{"../", "..\\", "<", ">", ":", "\"", "|", "?", "*", "\x00"}
	for _, char := range dangerous {
		if strings.Contains(filename, char) {
			return fmt.Errorf("filename contains invalid or dangerous characters: %w", apperr.ErrValidation)
		}
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return fmt.Errorf("only PDF files (.pdf extension) are allowed: %w", apperr.ErrValidation)
	}

	allowed := false
	for _, t := range cfg.AllowedTypes {
		if strings.Contains(contentType, strings.TrimSpace(t)) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("invalid content type %q, only PDF files are supported: %w", contentType, apperr.ErrValidation)
	}

	return nil
}
