package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the payload of session tokens. Name and Avatar are only
// filled when the identity was resolved through the auth service.
type JWTClaims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name,omitempty"`
	Avatar string   `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// TokenResult is returned after a successful login or refresh.
type TokenResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
