package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comptrack/comptrack-backend/internal/http/response"
	"github.com/comptrack/comptrack-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, services.ErrEmailTaken) {
		response.RespondError(c, http.StatusConflict, "email_taken", err)
		return
	}
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "registration_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrInactiveUser) {
		response.RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "login_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(ah.authService.AccessTTL().Seconds()),
		"user":         user,
	})
}
