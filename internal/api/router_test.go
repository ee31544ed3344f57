package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/config"
	"github.com/checklist-rve/checklist-rve/internal/kv"
)

// ---------------------------------------------------------------------------
// Test setup helpers
// ---------------------------------------------------------------------------

// newTestStore returns a fresh in-memory store, closed on cleanup.
func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	store := kv.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	return store
}

// testConfig returns a config suitable for handler tests: memory backend,
// cheap bcrypt, no rate limiting.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080
	cfg.Server.PublicURL = "https://checklist.example.com"
	cfg.KV.Backend = "memory"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.BcryptCost = 4
	cfg.Links.TTL = 30 * 24 * time.Hour
	cfg.Links.PublicPath = "/checklist"
	cfg.Security.AllowedOrigins = []string{"*"}
	cfg.Security.RateLimitEnabled = false
	cfg.Logging.Format = "text"
	cfg.Logging.Level = "error"
	cfg.Jobs.LinkSweepInterval = time.Hour
	return cfg
}

// newTestRouter builds a full router over a fresh in-memory store.
func newTestRouter(t *testing.T, mutate func(*config.Config)) *gin.Engine {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	r, bg := NewRouter(cfg, newTestStore(t))
	t.Cleanup(bg.Shutdown)
	return r
}

func jsonBody(v interface{}) *bytes.Buffer {
	b, _ := json.Marshal(v)
	return bytes.NewBuffer(b)
}

func getJSON(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &m); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, resp.Body.String())
	}
	return m
}

// doJSON performs a JSON request against the router. token is attached as a
// bearer credential when non-empty.
func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, jsonBody(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// adminToken provisions the first admin through the API and logs in.
func adminToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(r, "POST", "/api/v1/init-admin", "", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("init-admin status = %d, body: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "admin-secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body: %s", w.Code, w.Body.String())
	}
	token, _ := getJSON(t, w)["token"].(string)
	if token == "" {
		t.Fatal("login response carries no token")
	}
	return token
}

// technicianToken registers a non-admin account and logs in.
func technicianToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(r, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    "tech@example.com",
		"password": "tech-secret",
		"role":     "usuario",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, body: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "tech@example.com",
		"password": "tech-secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body: %s", w.Code, w.Body.String())
	}
	token, _ := getJSON(t, w)["token"].(string)
	return token
}

// ---------------------------------------------------------------------------
// System endpoints
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := getJSON(t, w)["status"]; got != "healthy" {
		t.Errorf("status field = %v, want healthy", got)
	}
}

func TestVersionEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "GET", "/version", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := getJSON(t, w)["api_version"]; got != "v1" {
		t.Errorf("api_version = %v, want v1", got)
	}
}

func TestRequestIDOnResponses(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, "GET", "/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}

// ---------------------------------------------------------------------------
// CORS
// ---------------------------------------------------------------------------

func TestCORSWildcardAllowsAnyOrigin(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://frontend.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://frontend.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want request origin", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/v1/checklists", nil)
	req.Header.Set("Origin", "https://frontend.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
}

func TestCORSDisallowedOriginGetsNoHeader(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Security.AllowedOrigins = []string{"https://allowed.example.com"}
	})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// Rate limiting (enabled explicitly for this test)
// ---------------------------------------------------------------------------

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Security.RateLimitEnabled = true
	})

	// The auth limiter allows a burst of 5; the sixth attempt must be rejected.
	var last int
	for i := 0; i < 6; i++ {
		w := doJSON(r, "POST", "/api/v1/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "whatever",
		})
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth login attempt status = %d, want 429", last)
	}
}
