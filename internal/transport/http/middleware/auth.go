package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/ticketing/services/event-service/internal/logger"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/response"
)

type ctxKey string

const (
	ctxUserID ctxKey = "user_id"
	ctxRole   ctxKey = "role"
)

// Claims mirrors what the auth service signs.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Ver    int64  `json:"ver"`
	jwt.RegisteredClaims
}

// TokenVersionChecker reports the latest token version for a user. A token
// older than that has been revoked.
type TokenVersionChecker interface {
	GetTokenVersion(ctx context.Context, userID string) (int64, error)
}

type AuthMiddleware struct {
	secret       []byte
	issuer       string
	versionCheck TokenVersionChecker // optional
}

func NewAuth(secret, issuer string, versionCheck TokenVersionChecker) *AuthMiddleware {
	return &AuthMiddleware{
		secret:       []byte(secret),
		issuer:       issuer,
		versionCheck: versionCheck,
	}
}

func (a *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, role, ver, err := a.parse(r)
		if err != nil {
			logger.Ctx(r.Context()).Debug().Err(err).Msg("auth rejected")
			response.Fail(w, http.StatusUnauthorized, "unauthorized", "unauthorized",
				map[string]string{"reason": err.Error()}, response.RequestIDFromRequest(r))
			return
		}

		if a.versionCheck != nil {
			current, err := a.versionCheck.GetTokenVersion(r.Context(), uid)
			if err != nil {
				// fail open: a cache blip must not lock everyone out
				logger.Ctx(r.Context()).Warn().Err(err).Str("user_id", uid).Msg("token version lookup failed")
			} else if current > ver {
				response.Fail(w, http.StatusUnauthorized, "token_revoked", "token version obsolete",
					nil, response.RequestIDFromRequest(r))
				return
			}
		}

		ctx := context.WithValue(r.Context(), ctxUserID, uid)
		ctx = context.WithValue(ctx, ctxRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after Require.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := Role(r)
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Fail(w, http.StatusForbidden, "forbidden", "insufficient role",
				nil, response.RequestIDFromRequest(r))
		})
	}
}

func (a *AuthMiddleware) parse(r *http.Request) (string, string, int64, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(h, "Bearer ") {
		return "", "", 0, errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return "", "", 0, err
	}
	if !tok.Valid {
		return "", "", 0, errors.New("invalid token")
	}

	if a.issuer != "" && claims.Issuer != a.issuer {
		return "", "", 0, errors.New("invalid issuer")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return "", "", 0, errors.New("missing uid")
	}
	role := strings.TrimSpace(claims.Role)
	if role == "" {
		role = "user"
	}
	return claims.UserID, role, claims.Ver, nil
}

func UserID(r *http.Request) string {
	if v, ok := r.Context().Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func Role(r *http.Request) string {
	if v, ok := r.Context().Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithIdentity is for tests and internal callers that bypass JWT parsing.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}
