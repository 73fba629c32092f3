package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	golangjwt "github.com/golang-jwt/jwt/v5"
	"github.com/quillforum/quill-backend/pkg/jwt"
)

func authTestRouter(mw gin.HandlerFunc) (*gin.Engine, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID": GetUserID(c),
			"level":  GetUserLevel(c),
		})
	})
	return r, w
}

func TestJWTAuth_ValidToken(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)
	token, err := manager.GenerateToken("u1", "alice", 3)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	r, w := authTestRouter(JWTAuth(manager))
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if want := `"userID":"u1"`; !strings.Contains(body, want) {
		t.Errorf("body %q missing %q", body, want)
	}
	if want := `"level":3`; !strings.Contains(body, want) {
		t.Errorf("body %q missing %q", body, want)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)

	r, w := authTestRouter(JWTAuth(manager))
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)

	r, w := authTestRouter(JWTAuth(manager))
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	token, err := jwt.NewManager("other-secret", time.Hour).GenerateToken("u1", "alice", 3)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	r, w := authTestRouter(JWTAuth(jwt.NewManager("test-secret", time.Hour)))
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	// NewManager floors the expiry at a sane default, so an expired token
	// has to be signed by hand with the same secret.
	claims := &jwt.Claims{
		RegisteredClaims: golangjwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  golangjwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: golangjwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: "u1",
	}
	token, err := golangjwt.NewWithClaims(golangjwt.SigningMethodHS256, claims).
		SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	r, w := authTestRouter(JWTAuth(jwt.NewManager("test-secret", time.Hour)))
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestOptionalJWTAuth_NoHeaderPassesThrough(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)

	r, w := authTestRouter(OptionalJWTAuth(manager))
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if want := `"userID":""`; !strings.Contains(w.Body.String(), want) {
		t.Errorf("anonymous request must have empty userID, got %q", w.Body.String())
	}
}

func TestOptionalJWTAuth_InvalidTokenPassesThroughAnonymously(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)

	r, w := authTestRouter(OptionalJWTAuth(manager))
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if want := `"userID":""`; !strings.Contains(w.Body.String(), want) {
		t.Errorf("invalid token must degrade to anonymous, got %q", w.Body.String())
	}
}

func TestOptionalJWTAuth_ValidTokenSetsIdentity(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)
	token, err := manager.GenerateToken("u2", "bob", 1)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	r, w := authTestRouter(OptionalJWTAuth(manager))
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if want := `"userID":"u2"`; !strings.Contains(w.Body.String(), want) {
		t.Errorf("body %q missing %q", w.Body.String(), want)
	}
}
