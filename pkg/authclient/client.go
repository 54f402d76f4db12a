package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edustream-api/internal/models"
)

// ErrUnauthenticated is returned whenever the auth service does not vouch for a token.
var ErrUnauthenticated = errors.New("token rejected by auth service")

// Client verifies bearer tokens against the auth service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New returns a client with the given request timeout.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}, logger: logger}
}

type meEnvelope struct {
	Data *struct {
		ID     string          `json:"id"`
		Email  string          `json:"email"`
		Name   string          `json:"name"`
		Avatar string          `json:"avatar"`
		Role   models.UserRole `json:"role"`
	} `json:"data"`
}

// VerifyToken calls GET /me with the token and converts the returned user into claims.
// Network failures and non-200 answers are reported as ErrUnauthenticated.
func (c *Client) VerifyToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("auth service unreachable", zap.Error(err))
		return nil, ErrUnauthenticated
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthenticated
	}

	var env meEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil || env.Data == nil || env.Data.ID == "" {
		c.logger.Warn("unexpected auth service response", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	return &models.JWTClaims{
		UserID: env.Data.ID,
		Email:  env.Data.Email,
		Role:   env.Data.Role,
		Name:   env.Data.Name,
		Avatar: env.Data.Avatar,
	}, nil
}
