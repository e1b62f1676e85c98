package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qanoon-go/internal/repository"
)

// HealthHandler reports liveness and loaded data-set sizes.
type HealthHandler struct {
	chunkRepo  repository.ChunkRepository
	lawyerRepo repository.LawyerRepository
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(chunkRepo repository.ChunkRepository, lawyerRepo repository.LawyerRepository) *HealthHandler {
	return &HealthHandler{chunkRepo: chunkRepo, lawyerRepo: lawyerRepo}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"chunks":  len(h.chunkRepo.Snapshot()),
		"lawyers": len(h.lawyerRepo.Snapshot()),
	})
}
