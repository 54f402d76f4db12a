package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/internal/service"
)

type verifierStub struct {
	claims *models.JWTClaims
	err    error
	tokens []string
}

func (v *verifierStub) VerifyToken(_ context.Context, token string) (*models.JWTClaims, error) {
	v.tokens = append(v.tokens, token)
	return v.claims, v.err
}

type auditStub struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

func serve(router *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &verifierStub{err: errors.New("expired")}
	router := gin.New()
	router.GET("/me", JWT(verifier), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/me", http.Header{"Authorization": []string{"Basic abc"}}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/me", bearer("tok")).Code)
	assert.Equal(t, []string{"tok"}, verifier.tokens)
}

func TestJWTStoresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &verifierStub{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}}
	router := gin.New()
	router.GET("/me", JWT(verifier), func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.UserID)
	})

	recorder := serve(router, http.MethodGet, "/me", bearer("tok"))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "u1", recorder.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/courses", OptionalJWT(&verifierStub{err: errors.New("bad")}), func(c *gin.Context) {
		_, ok := CurrentClaims(c)
		assert.False(t, ok)
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/courses", bearer("tok")).Code)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := &verifierStub{}
	router := gin.New()
	router.GET("/admin", JWT(verifier), RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/courses/admin", JWT(verifier), RequireRoles(models.RoleInstructor, models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	verifier.claims = &models.JWTClaims{UserID: "u1", Role: models.RoleInstructor}
	resp := serve(router, http.MethodGet, "/admin", bearer("t"))
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "requires role admin")
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/courses/admin", bearer("t")).Code)

	verifier.claims = &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/courses/admin", bearer("t")).Code)

	verifier.claims = &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/admin", bearer("t")).Code)
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService("test")
	limiter := NewRateLimiter(RateLimitConfig{Window: time.Hour, MaxRequests: 2}, metrics, nil)
	defer limiter.Stop()

	router := gin.New()
	router.Use(limiter.Middleware("/webhooks/stripe"))
	router.GET("/plans", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.POST("/webhooks/stripe", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/plans", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/plans", nil).Code)

	rejected := serve(router, http.MethodGet, "/plans", nil)
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "1800", rejected.Header().Get("Retry-After"))
	assert.Contains(t, rejected.Body.String(), "TOO_MANY_REQUESTS")

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/webhooks/stripe", nil).Code)
	}
}

func TestRateLimiterCleanupDropsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Window: time.Minute, MaxRequests: 10, CleanupInterval: time.Hour}, nil, nil)
	defer limiter.Stop()

	limiter.limiterFor("10.0.0.1")
	limiter.limiterFor("10.0.0.2")
	require.Equal(t, 2, limiter.Clients())

	limiter.cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, limiter.Clients())
}

func TestAuditRecordsSuccessfulAdminActions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditStub{}
	verifier := &verifierStub{claims: &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}}
	router := gin.New()
	router.PUT("/users/:id/role", JWT(verifier), Audit(recorder, nil, models.AuditActionRoleChange, "user"), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusConflict)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(router, http.MethodPut, "/users/u9/role", bearer("t"))
	serve(router, http.MethodPut, "/users/u9/role?fail=1", bearer("t"))

	require.Len(t, recorder.logs, 1)
	log := recorder.logs[0]
	assert.Equal(t, models.AuditActionRoleChange, log.Action)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "u9", *log.ResourceID)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "a1", *log.UserID)
}

func TestAuditKeepsJSONBodyForHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &auditStub{}
	router := gin.New()
	router.PUT("/users/:id/role", Audit(recorder, nil, models.AuditActionRoleChange, "user"), func(c *gin.Context) {
		var body struct {
			Role string `json:"role"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Role != "instructor" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPut, "/users/u9/role", strings.NewReader(`{"role":"instructor"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, recorder.logs, 1)
	assert.JSONEq(t, `{"role":"instructor"}`, string(recorder.logs[0].NewValues))
	assert.Nil(t, recorder.logs[0].UserID)
}

func TestAuditFailureDoesNotChangeResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/admins/:id", Audit(&auditStub{err: errors.New("db down")}, nil, models.AuditActionAdminRevoke, "user"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(router, http.MethodDelete, "/admins/a2", nil).Code)
}

func TestMetricsMiddlewareObserves(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService("test")
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/health", nil)
	serve(router, http.MethodGet, "/wp-login.php", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	out := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(out, req)
	assert.Contains(t, out.Body.String(), `path="/health"`)
	assert.Contains(t, out.Body.String(), `path="unmatched"`)
	assert.NotContains(t, out.Body.String(), "wp-login")
}

func TestUUIDParamsRejectsMalformedIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	courses := router.Group("/courses", UUIDParams("id"))
	courses.GET("/admin", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	courses.GET("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/courses/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/courses/123", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/courses/6f1c2a4e-8b1d-4c55-9a8e-0d2a7c3b9e11", nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodGet, "/courses/admin", nil).Code)
}
