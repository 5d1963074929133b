package infra

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	authmw "github.com/baechuer/ticketing/services/event-service/internal/transport/http/middleware"
)

const (
	JWTSecret = "integration-secret"
	JWTIssuer = "auth-service"
)

// MakeToken signs an access token the way auth-service does.
func MakeToken(uid, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := authmw.Claims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    JWTIssuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
}
