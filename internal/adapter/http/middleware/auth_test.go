package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/auction-service/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/items", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestJWTAuth_ValidTokenPutsActorInContext(t *testing.T) {
	claims := Claims{
		UserID:   "user-42",
		Email:    "user42@example.com",
		Username: "user42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := signToken(t, testSecret, claims)

	var gotActor bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		gotActor = ok
		assert.Equal(t, "user-42", actor.UserID)
		assert.Equal(t, "user42@example.com", actor.Email)
		assert.Equal(t, "user42", actor.Username)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	JWTAuth(testSecret, logger.NewLogger())(next).ServeHTTP(rec, authedRequest("Bearer "+token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotActor)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	})

	rec := httptest.NewRecorder()
	JWTAuth(testSecret, logger.NewLogger())(next).ServeHTTP(rec, authedRequest(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	})

	for _, header := range []string{"Bearer", "Token abc", "Bearer a b c"} {
		rec := httptest.NewRecorder()
		JWTAuth(testSecret, logger.NewLogger())(next).ServeHTTP(rec, authedRequest(header))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	claims := Claims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := signToken(t, "some-other-secret", claims)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	})

	rec := httptest.NewRecorder()
	JWTAuth(testSecret, logger.NewLogger())(next).ServeHTTP(rec, authedRequest("Bearer "+token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	claims := Claims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := signToken(t, testSecret, claims)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	})

	rec := httptest.NewRecorder()
	JWTAuth(testSecret, logger.NewLogger())(next).ServeHTTP(rec, authedRequest("Bearer "+token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_MissingUserIDClaim(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := signToken(t, testSecret, claims)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be reached")
	})

	rec := httptest.NewRecorder()
	JWTAuth(testSecret, logger.NewLogger())(next).ServeHTTP(rec, authedRequest("Bearer "+token))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
