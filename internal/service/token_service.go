package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/edustream-api/internal/models"
	appErrors "github.com/noah-isme/edustream-api/pkg/errors"
)

// TokenIssuer signs and parses HS256 session tokens.
type TokenIssuer struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewTokenIssuer constructs a TokenIssuer. A zero expiration defaults to 24h.
func NewTokenIssuer(secret string, expiration time.Duration, issuer string) *TokenIssuer {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), expiration: expiration, issuer: issuer}
}

// Expiration returns the validity window of issued tokens.
func (t *TokenIssuer) Expiration() time.Duration {
	return t.expiration
}

// Issue signs a token carrying the user's id, email and role.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.expiration)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates signature and expiry and returns the claims.
func (t *TokenIssuer) Parse(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// JWTVerifier accepts any token with a valid signature and expiry. It does not consult
// the session store, so a logged-out token stays valid here until it expires.
type JWTVerifier struct {
	issuer *TokenIssuer
}

// NewJWTVerifier wraps a TokenIssuer for local verification.
func NewJWTVerifier(issuer *TokenIssuer) *JWTVerifier {
	return &JWTVerifier{issuer: issuer}
}

// VerifyToken implements middleware.TokenVerifier.
func (v *JWTVerifier) VerifyToken(_ context.Context, token string) (*models.JWTClaims, error) {
	return v.issuer.Parse(token)
}
