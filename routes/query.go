package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-document-service/models"
	"rag-document-service/services"
	"rag-document-service/utils"
)

// SetupQueryRoutes wires the RAG query endpoint.
func SetupQueryRoutes(router *gin.Engine, ragQuery *services.RagQueryService) {
	router.POST("/query", func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithDomainError(c, services.NewValidationError("Question cannot be blank"))
			return
		}

		resp, err := ragQuery.Query(c.Request.Context(), req)
		if err != nil {
			utils.RespondWithDomainError(c, err)
			return
		}

		utils.RespondWithSuccess(c, http.StatusOK, "Query processed successfully", resp)
	})
}
