package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/timmy/devmeme/internal/config"
	"github.com/timmy/devmeme/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.CORSConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{name: "allow all", cfg: config.CORSConfig{AllowAllOrigins: true}, method: http.MethodGet, origin: "https://a.dev", wantOrigin: "*", wantStatus: http.StatusOK},
		{name: "listed origin", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.dev"}}, method: http.MethodGet, origin: "https://A.dev", wantOrigin: "https://A.dev", wantStatus: http.StatusOK},
		{name: "unlisted origin", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.dev"}}, method: http.MethodGet, origin: "https://b.dev", wantStatus: http.StatusOK},
		{name: "preflight", cfg: config.CORSConfig{AllowAllOrigins: true}, method: http.MethodOptions, origin: "https://a.dev", wantOrigin: "*", wantStatus: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tc.cfg))
			r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tc.method, "/x", nil)
			req.Header.Set("Origin", tc.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tc.wantOrigin)
			}
		})
	}
}

func TestLoggerMiddlewareRequestID(t *testing.T) {
	r := gin.New()
	r.Use(LoggerMiddleware(logger.New(nil)))
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	generated := w.Header().Get(RequestIDHeader)
	if generated == "" || generated != seen {
		t.Errorf("request id header %q, context %q", generated, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" || seen != "abc-123" {
		t.Errorf("propagated id = %q (context %q), want abc-123", got, seen)
	}
}
