package auth

import (
	"fmt"
	"time"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload for API access tokens.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	AppID  string `json:"app"`
	jwt.RegisteredClaims
}

// IssueToken signs an access token for session valid for ttl.
func IssueToken(secret []byte, session models.Session, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: server.jwt_secret is not set", shared.ErrConfiguration)
	}
	if err := session.Require(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		UserID: session.UserID,
		Email:  session.Email,
		Name:   session.DisplayName,
		AppID:  session.AppID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies raw and returns the session it carries.
func ParseToken(secret []byte, raw string) (models.Session, error) {
	if len(secret) == 0 {
		return models.Session{}, fmt.Errorf("%w: server.jwt_secret is not set", shared.ErrConfiguration)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.Session{}, fmt.Errorf("%w: invalid token", shared.ErrNotAuthenticated)
	}

	session := models.Session{
		UserID:      claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AppID:       claims.AppID,
	}
	if err := session.Require(); err != nil {
		return models.Session{}, err
	}
	return session, nil
}
