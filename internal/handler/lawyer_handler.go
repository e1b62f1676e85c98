package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qanoon-go/internal/service"
	"qanoon-go/pkg/log"
)

// LawyerHandler serves the static lawyer directory.
type LawyerHandler struct {
	lawyerService service.LawyerService
}

// NewLawyerHandler creates a new LawyerHandler.
func NewLawyerHandler(lawyerService service.LawyerService) *LawyerHandler {
	return &LawyerHandler{lawyerService: lawyerService}
}

// List handles GET /api/v1/lawyers?category=. An unknown category falls
// back to a short general list rather than an empty response.
func (h *LawyerHandler) List(c *gin.Context) {
	category := c.DefaultQuery("category", "general")
	records := h.lawyerService.Browse(category)
	log.Infof("[LawyerHandler] list category=%q, %d records", category, len(records))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": records})
}

// Recommend handles GET /api/v1/lawyers/recommend?query=. Only lawyers
// with a positive tag-overlap score are returned, best match first.
func (h *LawyerHandler) Recommend(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	recommendations := h.lawyerService.Match(query)
	log.Infof("[LawyerHandler] recommend query=%q, %d matches", query, len(recommendations))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": recommendations})
}
