package routes

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rag-document-service/models"
	"rag-document-service/services"
	"rag-document-service/utils"
)

// SetupDocumentRoutes wires the upload, list, detail and download
// endpoints.
func SetupDocumentRoutes(router *gin.Engine, ingestion *services.IngestionService, query *services.DocumentQueryService, maxFileSize int64) {
	documents := router.Group("/documents")

	documents.POST("/upload", func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(maxFileSize); err != nil {
			utils.RespondWithDomainError(c, services.NewValidationError("File size exceeds maximum limit"))
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithDomainError(c, services.NewValidationError("File cannot be empty"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			utils.RespondWithDomainError(c, services.NewValidationError("Cannot read uploaded file"))
			return
		}

		doc, err := ingestion.Ingest(c.Request.Context(), models.FileUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        data,
		})
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		utils.RespondWithSuccess(c, http.StatusCreated, "Document uploaded and processed successfully", doc)
	})

	documents.GET("", func(c *gin.Context) {
		docs, err := query.List(c.Request.Context())
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}
		if docs == nil {
			docs = []models.Document{}
		}

		utils.RespondWithSuccess(c, http.StatusOK, "Documents retrieved successfully", docs)
	})

	documents.GET("/:id", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, services.NewValidationError("Invalid document id"))
			return
		}

		detail, err := query.GetDetail(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		utils.RespondWithSuccess(c, http.StatusOK, "Document details retrieved successfully", models.DocumentDetailResponse{
			Document:      detail.Document,
			ExtractedText: detail.ExtractedText,
			Chunks:        detail.Chunks,
		})
	})

	documents.GET("/:id/download", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.RespondWithDomainError(c, services.NewValidationError("Invalid document id"))
			return
		}

		data, doc, err := query.Download(c.Request.Context(), id)
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
		c.Data(http.StatusOK, doc.FileType, data)
	})
}
