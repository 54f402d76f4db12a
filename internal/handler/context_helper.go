package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/middleware"
	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
	"github.com/noah-isme/edustream-api/pkg/response"
)

// requireClaims returns the caller's claims or writes a 401.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if value, err := strconv.Atoi(c.Query(key)); err == nil {
		return value
	}
	return fallback
}

func queryBool(c *gin.Context, key string, fallback bool) bool {
	if value, err := strconv.ParseBool(c.Query(key)); err == nil {
		return value
	}
	return fallback
}
