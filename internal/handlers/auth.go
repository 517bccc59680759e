package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/middleware"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/internal/utils"
	"github.com/routewise/routewise/pkg/response"
)

// AuthHandler authenticates the single dashboard admin configured in
// config.yaml. There is no user table.
type AuthHandler struct {
	admin *config.AdminConfig
	jwt   *config.JWTConfig
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		admin: &cfg.Admin,
		jwt:   &cfg.JWT,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles admin login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Username != h.admin.Username || !utils.CheckPassword(req.Password, h.admin.PasswordHash) {
		services.LogWarning("Auth", "Login", "Failed admin login attempt for "+req.Username, "", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		response.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(req.Username, "admin", h.jwt.ExpireHour)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	services.LogInfo("Auth", "Login", "Admin logged in", "", map[string]interface{}{
		"ip": c.ClientIP(),
	})
	response.Success(c, LoginResponse{
		Token:    token,
		Username: req.Username,
		Role:     "admin",
	})
}

// GetCurrentUser returns the authenticated admin identity.
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	response.Success(c, gin.H{
		"username": middleware.GetUsername(c),
		"role":     middleware.GetRole(c),
	})
}

// Logout handles admin logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}
