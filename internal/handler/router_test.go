package handler

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/middleware"
	"github.com/noah-isme/edustream-api/internal/models"
)

// newTestRouter injects claims from the X-Test-Role header, mirroring what the JWT middleware does.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(middleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Email:  "test@example.com",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func withRole(req *http.Request, role models.UserRole) *http.Request {
	req.Header.Set("X-Test-Role", string(role))
	return req
}
