package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/auction/domain"
	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

// ActorCtxKey is the key under which the authenticated actor is stored.
const ActorCtxKey = ContextKey("actor")

// Claims defines the structure of the JWT claims issued by the gateway.
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTAuth validates the bearer token and stores the actor in the request
// context. Requests without a valid token get 401.
func JWTAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("JWTAuth: 'Authorization' header not found", zap.String("path", r.URL.Path))
				http.Error(w, "authorization token is not provided", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("JWTAuth: invalid 'Authorization' header format", zap.String("path", r.URL.Path))
				http.Error(w, "authorization token format is invalid, expected 'Bearer <token>'", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				log.Warn("JWTAuth: token parsing/validation failed", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "token is invalid", http.StatusUnauthorized)
				return
			}
			if claims.UserID == "" {
				log.Warn("JWTAuth: UserID not found in token claims", zap.String("path", r.URL.Path))
				http.Error(w, "UserID not found in token claims", http.StatusUnauthorized)
				return
			}

			actor := domain.Actor{
				UserID:   claims.UserID,
				Email:    claims.Email,
				Username: claims.Username,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ActorCtxKey, actor)))
		})
	}
}

// ActorFromContext extracts the authenticated actor placed by JWTAuth.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ActorCtxKey).(domain.Actor)
	return actor, ok
}
