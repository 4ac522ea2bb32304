package security

import (
	"errors"
	"fmt"
	"time"

	"dsatrack/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

func GenerateToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// GenerateRefreshToken issues the long-lived token that gets persisted in
// user_tokens. rememberMe stretches the lifetime from 7 to 30 days.
func GenerateRefreshToken(userID string, rememberMe bool) (string, time.Time, error) {
	exp := time.Now().Add(config.AppConfig.RefreshExp)
	if rememberMe {
		exp = time.Now().Add(config.AppConfig.RefreshExpRemember)
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    "refresh",
		"exp":     exp.Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, exp, err
}

// ParseRefreshToken verifies a refresh token's signature and expiry and
// returns the user it was issued for. Access tokens are rejected: only
// tokens carrying the refresh type claim pass.
func ParseRefreshToken(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", err)
	}
	if typ, ok := token.Get("type"); !ok || typ != "refresh" {
		return "", errors.New("not a refresh token")
	}
	userID, ok := token.Get("user_id")
	if !ok {
		return "", errors.New("user_id claim is missing")
	}
	id, ok := userID.(string)
	if !ok {
		return "", errors.New("user_id claim is not a string")
	}
	return id, nil
}

// Helper functions to extract claims, can be used in middleware or services
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
