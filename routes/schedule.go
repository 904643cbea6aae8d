package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"postpilot/internal/store"
	"postpilot/models"
	"postpilot/services"
	"postpilot/utils"
)

func SetupScheduleRoutes(router *gin.Engine, orch *services.Orchestrator, schedule *store.ScheduleStore) {
	group := router.Group("/schedule")

	group.POST("", func(c *gin.Context) {
		var req models.ScheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		post, err := orch.ScheduleSelected(c.Request.Context(), req.Date, req.Time)
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		c.JSON(http.StatusCreated, post)
	})

	group.GET("", func(c *gin.Context) {
		posts, err := schedule.List(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load scheduled posts", nil)
			return
		}

		now := time.Now()
		views := make([]models.ScheduledPostView, 0, len(posts))
		for _, post := range posts {
			views = append(views, models.ScheduledPostView{
				ScheduledPost: post,
				Overdue:       store.IsOverdue(post, now),
				TimeUntil:     store.TimeUntil(post, now),
			})
		}
		c.JSON(http.StatusOK, gin.H{"posts": views, "count": len(views)})
	})

	group.DELETE("/:id", func(c *gin.Context) {
		if err := schedule.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
	})

	group.POST("/:id/post-now", func(c *gin.Context) {
		post, err := orch.PostScheduledNow(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	})
}
