package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lostfound/internal/core/errs"
	"lostfound/internal/domain"
	"lostfound/internal/service"
	resp "lostfound/internal/transport/http/response"
)

func engine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.Any("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) resp.ErrorBody {
	t.Helper()
	var env resp.Envelope
	env.Error = &resp.ErrorBody{}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return *env.Error
}

func TestRequestID(t *testing.T) {
	r := engine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc")
	if got := serve(r, req).Header().Get(HeaderRequestID); got != "abc" {
		t.Fatalf("kept id = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("a", 100))
	if got := serve(r, req).Header().Get(HeaderRequestID); len(got) != 36 {
		t.Fatalf("oversized id should be replaced, got %q", got)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	r := engine(RateLimitPerIP(rate.Limit(0.001), 2))
	for i := 0; i < 2; i++ {
		if w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("third request = %d", w.Code)
	}
	if b := errorBody(t, w); b.Message != limitMsg {
		t.Fatalf("message = %q", b.Message)
	}

	other := httptest.NewRequest(http.MethodGet, "/x", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	if w := serve(r, other); w.Code != http.StatusOK {
		t.Fatalf("other ip = %d", w.Code)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := engine(MaxBodyBytes(4))
	w := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("too long")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := serve(engine(SecurityHeaders()), httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("headers = %v", w.Header())
	}
}

type tokens map[string]*domain.User

func (t tokens) Authenticate(_ context.Context, tok string) (*domain.User, error) {
	if u, ok := t[tok]; ok {
		return u, nil
	}
	return nil, errs.Unauthorized("Not authorized, token failed")
}

type ownerOf map[string]string

func (o ownerOf) Check(_ context.Context, _ service.ResourceKind, id string, caller *domain.User) error {
	owner, ok := o[id]
	switch {
	case !ok:
		return errs.NotFound("Pet not found")
	case caller.IsAdmin() || owner == caller.ID:
		return nil
	}
	return errs.Forbidden("Not authorized to access this resource")
}

func TestGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := tokens{
		"u": {ID: "u1", Role: domain.RoleUser},
		"a": {ID: "a1", Role: domain.RoleAdmin},
	}
	g := NewGate(users, ownerOf{"p1": "u1"}, resp.Renderer{})
	r := gin.New()
	ok := func(c *gin.Context) {
		id := ""
		if u := Caller(c); u != nil {
			id = u.ID
		}
		c.String(http.StatusOK, id)
	}
	r.GET("/open", g.OptionalAuth(), ok)
	r.GET("/me", g.Protect(), ok)
	r.GET("/admin", g.Protect(), g.Authorize(domain.RoleAdmin), ok)
	r.GET("/pets/:id", g.Protect(), g.CheckOwnership(service.ResourcePet), ok)

	cases := []struct {
		path, token string
		code        int
		body        string
	}{
		{"/open", "", http.StatusOK, ""},
		{"/open", "bogus", http.StatusOK, ""},
		{"/open", "u", http.StatusOK, "u1"},
		{"/me", "", http.StatusUnauthorized, ""},
		{"/me", "bogus", http.StatusUnauthorized, ""},
		{"/me", "u", http.StatusOK, "u1"},
		{"/admin", "u", http.StatusForbidden, ""},
		{"/admin", "a", http.StatusOK, "a1"},
		{"/pets/p1", "u", http.StatusOK, "u1"},
		{"/pets/p1", "a", http.StatusOK, "a1"},
		{"/pets/p2", "u", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := serve(r, req)
		if w.Code != tc.code {
			t.Errorf("%s as %q = %d, want %d", tc.path, tc.token, w.Code, tc.code)
			continue
		}
		if tc.code == http.StatusOK && w.Body.String() != tc.body {
			t.Errorf("%s as %q body = %q", tc.path, tc.token, w.Body.String())
		}
	}

	other := tokens{"o": {ID: "o1", Role: domain.RoleUser}}
	g = NewGate(other, ownerOf{"p1": "u1"}, resp.Renderer{})
	r = gin.New()
	r.GET("/pets/:id", g.Protect(), g.CheckOwnership(service.ResourcePet), ok)
	req := httptest.NewRequest(http.MethodGet, "/pets/p1", nil)
	req.Header.Set("Authorization", "Bearer o")
	w := serve(r, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner = %d", w.Code)
	}
	if b := errorBody(t, w); !strings.Contains(b.Message, "Not authorized") {
		t.Fatalf("message = %q", b.Message)
	}
}
