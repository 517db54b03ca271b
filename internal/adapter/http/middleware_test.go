package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authTestRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(token))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/networth", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doGet(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	r := authTestRouter("secret")

	w := doGet(r, "/api/v1/networth", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing bearer token")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	r := authTestRouter("secret")

	w := doGet(r, "/api/v1/networth", "Bearer wrong")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	r := authTestRouter("secret")

	w := doGet(r, "/api/v1/networth", "Bearer secret")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_NonAPIPathStaysOpen(t *testing.T) {
	r := authTestRouter("secret")

	w := doGet(r, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_EmptyTokenDisablesAuth(t *testing.T) {
	r := authTestRouter("")

	w := doGet(r, "/api/v1/networth", "")

	assert.Equal(t, http.StatusOK, w.Code)
}
