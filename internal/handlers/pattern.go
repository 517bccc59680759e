package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/pkg/response"
	"gorm.io/gorm"
)

type PatternHandler struct {
	patterns *services.PatternService
}

func NewPatternHandler(db *gorm.DB, routing *config.RoutingManager) *PatternHandler {
	return &PatternHandler{
		patterns: services.NewPatternService(db, routing),
	}
}

// Create registers an explicit routing pattern for a wallet.
// POST /api/patterns
func (h *PatternHandler) Create(c *gin.Context) {
	var req services.CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pattern, err := h.patterns.Create(&req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Created(c, pattern)
}

// Match returns the best pattern for a query point, if any.
// GET /api/patterns/match
func (h *PatternHandler) Match(c *gin.Context) {
	var query services.PatternQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pattern, err := h.patterns.Match(&query)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "no matching pattern")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, pattern)
}

// GetByID returns a pattern by its public id.
// GET /api/patterns/:id
func (h *PatternHandler) GetByID(c *gin.Context) {
	pattern, err := h.patterns.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "pattern not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, pattern)
}

// List returns patterns, optionally filtered by wallet.
// GET /api/patterns
func (h *PatternHandler) List(c *gin.Context) {
	patterns, err := h.patterns.List(c.Query("wallet_address"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, patterns)
}
