package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/vidgrab/internal/models"
)

type InfoHandler struct {
	linkEnabled bool
}

func NewInfoHandler(linkEnabled bool) *InfoHandler {
	return &InfoHandler{linkEnabled: linkEnabled}
}

// Info godoc
// @Summary Service information
// @Description Name, version and endpoints of the service
// @Tags info
// @Produce json
// @Success 200 {object} models.ServiceInfoResponse
// @Router / [get]
func (h *InfoHandler) Info(c *gin.Context) {
	endpoints := []string{
		"POST /formats",
		"POST /download",
	}
	if h.linkEnabled {
		endpoints = append(endpoints, "POST /download/link")
	}
	endpoints = append(endpoints, "GET /health", "GET /ready", "GET /live", "GET /swagger/index.html")

	c.JSON(http.StatusOK, models.ServiceInfoResponse{
		Service:   "vidgrab",
		Version:   Version,
		Endpoints: endpoints,
		Platforms: []string{"YouTube", "Instagram", "TikTok", "Facebook", "Twitter", "Vimeo"},
	})
}
