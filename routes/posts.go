package routes

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"postpilot/internal/ai"
	"postpilot/internal/platform"
	"postpilot/internal/store"
	"postpilot/models"
	"postpilot/services"
	"postpilot/utils"
)

func SetupPostRoutes(router *gin.Engine, orch *services.Orchestrator, export *services.ExportService, history *store.HistoryStore) {
	router.POST("/generate", func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		versions, err := orch.Generate(c.Request.Context(), req.Prompt)
		if err != nil {
			respondPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.GenerateResponse{Versions: versions})
	})

	posts := router.Group("/posts")

	posts.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.GenerateResponse{Versions: orch.Versions()})
	})

	posts.POST("/select", func(c *gin.Context) {
		var req models.SelectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		if err := orch.Select(req.Index); err != nil {
			respondPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"selected": req.Index})
	})

	posts.POST("/publish", func(c *gin.Context) {
		record, err := orch.PublishSelected(c.Request.Context())
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	})

	posts.GET("/share", func(c *gin.Context) {
		shareURL, err := orch.ShareSelected()
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"share_url": shareURL})
	})

	posts.GET("/history", func(c *gin.Context) {
		records, err := history.List(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load publish history", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
	})

	posts.GET("/history/export", func(c *gin.Context) {
		workbook, err := export.HistoryWorkbook(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", nil)
			return
		}

		filename := fmt.Sprintf("publish_history_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := workbook.Write(c.Writer); err != nil {
			utils.RespondWithInternalError(c, "Failed to stream export", nil)
		}
	})
}

// respondPipelineError maps pipeline failures to distinguishable HTTP
// outcomes. Platform error messages pass through verbatim.
func respondPipelineError(c *gin.Context, err error) {
	var genErr *ai.GenerationError
	var authErr *platform.AuthError
	var pubErr *platform.PublishError

	switch {
	case errors.As(err, &genErr):
		utils.RespondWithBadGateway(c, "generation_failed", genErr.Error())
	case errors.As(err, &authErr):
		utils.RespondWithUnauthorized(c, authErr.Message)
	case errors.As(err, &pubErr):
		utils.RespondWithBadGateway(c, "publish_failed", pubErr.Message)
	case errors.Is(err, store.ErrMissingDate),
		errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrNoBatch),
		errors.Is(err, services.ErrNoSelection),
		errors.Is(err, services.ErrInvalidSelection):
		utils.RespondWithBadRequest(c, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		utils.RespondWithNotFound(c, err.Error())
	default:
		utils.RespondWithInternalError(c, err.Error(), nil)
	}
}
