package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/pkg/response"
)

// RoutingHandler exposes the live routing configuration to admins.
type RoutingHandler struct {
	routing *config.RoutingManager
}

func NewRoutingHandler(routing *config.RoutingManager) *RoutingHandler {
	return &RoutingHandler{routing: routing}
}

// Get returns the current routing configuration.
// GET /api/admin/routing
func (h *RoutingHandler) Get(c *gin.Context) {
	response.Success(c, h.routing.Current())
}

// Reload re-reads the routing file. The previous configuration stays
// active when the new one fails validation.
// POST /api/admin/routing/reload
func (h *RoutingHandler) Reload(c *gin.Context) {
	if err := h.routing.Reload(); err != nil {
		response.BadRequest(c, "reload rejected: "+err.Error())
		return
	}

	services.LogInfo("Routing", "Reload", "Routing configuration reloaded", "", nil)
	response.Success(c, h.routing.Current())
}
