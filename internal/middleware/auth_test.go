package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	verifier := NewTokenVerifier("sekret")

	userID, err := verifier.Verify(signToken(t, "sekret", "42"))

	require.NoError(t, err)
	require.Equal(t, 42, userID)
}

func TestVerifyWrongSecret(t *testing.T) {
	verifier := NewTokenVerifier("sekret")

	_, err := verifier.Verify(signToken(t, "other", "42"))

	require.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	verifier := NewTokenVerifier("sekret")
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("sekret"))
	require.NoError(t, err)

	_, err = verifier.Verify(signed)

	require.Error(t, err)
}

func TestVerifyNonNumericSubject(t *testing.T) {
	verifier := NewTokenVerifier("sekret")

	_, err := verifier.Verify(signToken(t, "sekret", "alice"))

	require.ErrorIs(t, err, ErrInvalidToken)
}

func setupAuthRouter(verifier *TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt("userID")})
	})
	return r
}

func TestAuthMiddlewareSetsUserID(t *testing.T) {
	router := setupAuthRouter(NewTokenVerifier("sekret"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "sekret", "7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user_id":7}`, rec.Body.String())
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	router := setupAuthRouter(NewTokenVerifier("sekret"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	router := setupAuthRouter(NewTokenVerifier("sekret"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
