package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/dto"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/response"
)

type authService interface {
	BeginLogin(ctx context.Context) (string, error)
	CompleteLogin(ctx context.Context, code, state string) (*models.TokenResult, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) (*models.TokenResult, error)
}

// AuthHandler exposes the OAuth login flow and session endpoints.
type AuthHandler struct {
	service     authService
	frontendURL string
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler. Browser redirects land on frontendURL.
func NewAuthHandler(svc authService, frontendURL string, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{service: svc, frontendURL: strings.TrimRight(frontendURL, "/"), logger: logger}
}

// GoogleLogin godoc
// @Summary Start Google login
// @Description Redirects the browser to the Google consent screen
// @Tags Auth
// @Success 302
// @Router /google [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	target, err := h.service.BeginLogin(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to start login", zap.Error(err))
		h.redirectError(c, "login_unavailable")
		return
	}
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback godoc
// @Summary Google OAuth callback
// @Description Completes login and redirects to the frontend with a token
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "Login state"
// @Success 302
// @Router /google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		h.redirectError(c, providerErr)
		return
	}

	result, err := h.service.CompleteLogin(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		appErr := appErrors.FromError(err)
		h.logger.Warn("login failed", zap.String("code", appErr.Code), zap.Error(err))
		h.redirectError(c, strings.ToLower(appErr.Code))
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL+"/auth/success?token="+url.QueryEscape(result.Token))
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewUserView(user), nil)
}

// Verify godoc
// @Summary Verify token
// @Description Returns the claims of a valid session token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"valid":  true,
		"userId": claims.UserID,
		"email":  claims.Email,
		"role":   claims.Role,
	}, nil)
}

// Logout godoc
// @Summary Logout
// @Description Revokes the current session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"success": true}, nil)
}

// Refresh godoc
// @Summary Refresh token
// @Description Issues a new token reflecting the current role
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	result, err := h.service.Refresh(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.TokenResponse{Token: result.Token, User: dto.NewUserView(result.User)}, nil)
}

func (h *AuthHandler) redirectError(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/auth/error?reason="+url.QueryEscape(reason))
}
