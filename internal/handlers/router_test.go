package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amparo/internal/logging"
	"amparo/internal/metrics"
	"amparo/internal/middleware"
)

// loginAttempts posts n failed logins from one peer, each claiming a different forwarded address.
func loginAttempts(app *testApp, n int) []int {
	form := url.Values{"tipo": {"0"}, "email": {"ana@example.com"}, "senha": {"errada1"}}.Encode()
	codes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodPost, "/autenticar", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.RemoteAddr = "203.0.113.7:40000"
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	return codes
}

func TestLoginRateLimitIgnoresUntrustedForwardedFor(t *testing.T) {
	app := newTestAppWith(t, RouterOptions{Limiter: middleware.NewRateLimiter(1, 1)})

	codes := loginAttempts(app, 5)
	assert.Equal(t, []int{
		http.StatusSeeOther,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

func TestLoginRateLimitHonorsTrustedProxy(t *testing.T) {
	app := newTestAppWith(t, RouterOptions{
		Limiter:        middleware.NewRateLimiter(1, 1),
		TrustedProxies: []string{"203.0.113.0/24"},
	})

	for _, code := range loginAttempts(app, 3) {
		assert.Equal(t, http.StatusSeeOther, code, "each forwarded client has its own bucket")
	}
}

func TestNewRouterRejectsBadTrustedProxy(t *testing.T) {
	_, err := NewRouter(&Server{}, RouterOptions{TrustedProxies: []string{"not-an-ip"}})
	assert.Error(t, err)
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{Level: "info"}) })

	app := newTestApp(t)
	app.router.GET("/boom", func(c *gin.Context) { panic("boom") })
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/boom", "500")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-boom")
	app.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"request_id":"req-boom"`)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Contains(t, buf.String(), `"message":"panic recovered"`)
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"path":"/boom"`)
}
