package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRateLimitTestContext(t *testing.T, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/affiliate/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "203.0.113.9:41000"
	return c
}

func TestLoginRateLimitKey(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "email lowered and joined with ip", body: `{"email":" Promoter@Example.COM "}`, want: "promoter@example.com|203.0.113.9"},
		{name: "missing field falls back to ip", body: `{"password":"secret"}`, want: "203.0.113.9"},
		{name: "malformed json falls back to ip", body: `{"email":`, want: "203.0.113.9"},
		{name: "non string field falls back to ip", body: `{"email":42}`, want: "203.0.113.9"},
		{name: "empty body falls back to ip", body: "", want: "203.0.113.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newRateLimitTestContext(t, tc.body)
			if got := KeyByIPAndJSONField("email")(c); got != tc.want {
				t.Fatalf("key want %s got %s", tc.want, got)
			}
		})
	}
}

func TestLoginRateLimitKeyRestoresBody(t *testing.T) {
	c := newRateLimitTestContext(t, `{"email":"promoter@example.com","password":"secret"}`)
	_ = KeyByIPAndJSONField("email")(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), `"password":"secret"`) {
		t.Fatalf("request body not restored, got %s", string(body))
	}
}

func TestRateLimitMiddlewarePassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		rule RateLimitRule
	}{
		{name: "no redis client", rule: RateLimitRule{WindowSeconds: 60, MaxRequests: 5}},
		{name: "zero window", rule: RateLimitRule{WindowSeconds: 0, MaxRequests: 5}},
		{name: "zero max requests", rule: RateLimitRule{WindowSeconds: 60, MaxRequests: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RateLimitMiddleware(nil, tc.rule, KeyByIP))
			r.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status want 200 got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"status":"ok"`) {
				t.Fatalf("expected handler response body, got %s", w.Body.String())
			}
		})
	}
}

func TestToInt64Conversions(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64 passthrough", input: int64(7), want: 7, ok: true},
		{name: "int widened", input: int(42), want: 42, ok: true},
		{name: "uint32 widened", input: uint32(120), want: 120, ok: true},
		{name: "float64 truncated", input: float64(9.99), want: 9, ok: true},
		{name: "string rejected", input: "7", want: 0, ok: false},
		{name: "nil rejected", input: nil, want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
