package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"postpilot/internal/platform"
	"postpilot/internal/store"
	"postpilot/models"
	"postpilot/utils"
)

func SetupConnectionRoutes(router *gin.Engine, connections *store.ConnectionStore, gateway *platform.FacebookClient) {
	group := router.Group("/connections")

	group.GET("", func(c *gin.Context) {
		infos, err := connections.List(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load connections", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"connections": infos})
	})

	// Submitting a token is the handshake from the backend's point of
	// view: SDK popups and manual token entry both end up here.
	group.POST("/:platform", func(c *gin.Context) {
		platformID := c.Param("platform")
		if !models.IsValidPlatform(platformID) {
			utils.RespondWithBadRequest(c, "Unsupported platform", gin.H{"platform": platformID})
			return
		}

		var req models.ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		var conn *models.Connection
		if platformID == models.PlatformFacebook {
			verified, err := gateway.Connect(c.Request.Context(), req.AccessToken)
			if err != nil {
				respondPipelineError(c, err)
				return
			}
			conn = verified
		} else {
			// Manual-token path for platforms without a verify endpoint
			// wired in; stored as-is, profile info absent.
			conn = &models.Connection{
				Platform:    platformID,
				AccessToken: req.AccessToken,
				ConnectedAt: time.Now(),
			}
		}

		if err := connections.Set(c.Request.Context(), *conn); err != nil {
			utils.RespondWithInternalError(c, "Failed to store connection", nil)
			return
		}
		c.JSON(http.StatusOK, conn.Info())
	})

	group.DELETE("/:platform", func(c *gin.Context) {
		platformID := c.Param("platform")
		if !models.IsValidPlatform(platformID) {
			utils.RespondWithBadRequest(c, "Unsupported platform", gin.H{"platform": platformID})
			return
		}

		if err := connections.Remove(c.Request.Context(), platformID); err != nil {
			utils.RespondWithInternalError(c, "Failed to remove connection", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"disconnected": platformID})
	})
}
