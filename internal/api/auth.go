package api

import (
	"net/http"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/service"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	service *service.UserService
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.UserService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Signup handles user registration
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	resp, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	logger.FromGin(c).Info("User logged in", "user_id", resp.User.ID, "role", resp.User.Role)
	c.JSON(http.StatusOK, resp)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// UpdateProfile changes the caller's own profile; the route is guarded by RequireSelf
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, user)
}
