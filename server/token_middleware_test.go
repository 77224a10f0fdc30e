package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newMiddlewareTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := &Server{Config: &AppConfig{Auth: AuthConfig{Secret: secret}}}
	r := gin.New()
	r.GET("/protected", s.TokenMiddleware(), func(c *gin.Context) {
		actorID, _ := c.Get("actor_id")
		c.JSON(http.StatusOK, gin.H{"actor_id": actorID})
	})
	return r
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestTokenMiddleware_ValidToken(t *testing.T) {
	r := newMiddlewareTestRouter("test-secret")
	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "admin-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestTokenMiddleware_Rejections(t *testing.T) {
	r := newMiddlewareTestRouter("test-secret")
	expired := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "admin-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "admin-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", c.name, w.Code)
		}
	}
}
