package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signdrop/internal/api/middleware"
	"github.com/signdrop/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	sessions *services.SessionService
	reqMW    *middleware.RequestMiddleware
	logger   *zap.Logger
}

func NewAuthHandler(sessions *services.SessionService, reqMW *middleware.RequestMiddleware, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		reqMW:    reqMW,
		logger:   logger.With(zap.String("handler", "auth")),
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	token, ok := h.sessions.Login(req.Password)
	if !ok {
		h.reqMW.RecordLoginFailure(c.ClientIP())
		h.logger.Warn("Failed operator login", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if token := c.GetString("sessionToken"); token != "" {
		h.sessions.Revoke(token)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
