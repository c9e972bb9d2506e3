package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thatcatcamp/sideload/internal/config"
	"github.com/thatcatcamp/sideload/internal/db"
	"github.com/thatcatcamp/sideload/internal/logging"
)

func testSettings(t *testing.T) config.Settings {
	return config.Settings{
		HTTPPort:       "8080",
		RoutePrefix:    "/api/v2",
		RouteSlug:      "media-in",
		SlugConfigured: true,
		RateLimit:      10,
		RateInterval:   time.Minute,
		StorageType:    "local",
		MediaDir:       t.TempDir(),
		BaseURL:        "http://localhost:8080/media",
		TempDir:        t.TempDir(),
		FetchTimeout:   5 * time.Second,
		ThumbnailSizes: []string{"thumbnail=150x150:crop"},
		DatabaseType:   "sqlite",
		DatabasePath:   ":memory:",
	}
}

func TestBuildRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, db.InitDB("sqlite", ":memory:"))

	settings := testSettings(t)
	logger := logging.New(io.Discard, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := buildStore(ctx, settings)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	pipeline, err := buildPipeline(settings, store, db.GetDB(), reg, logger)
	require.NoError(t, err)

	router, err := buildRouter(ctx, settings, pipeline, reg, logger)
	require.NoError(t, err)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/v2/media-in", http.StatusUnauthorized},
		{http.MethodGet, "/api/v2/media-in/1", http.StatusUnauthorized},
		{http.MethodPost, "/api/v2/cmv_api", http.StatusNotFound},
		{http.MethodGet, "/media/2026/10/missing.jpg", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestBuildRouterRejectsBadBlocklist(t *testing.T) {
	settings := testSettings(t)
	settings.BlockedIPs = []string{"not-an-ip"}

	_, err := buildRouter(context.Background(), settings, nil, prometheus.NewRegistry(), logging.New(io.Discard, false))
	assert.Error(t, err)
}

func TestBuildStore(t *testing.T) {
	settings := testSettings(t)

	settings.StorageType = "s3"
	_, err := buildStore(context.Background(), settings)
	assert.ErrorContains(t, err, "storage.s3.bucket")

	settings.StorageType = "ftp"
	_, err = buildStore(context.Background(), settings)
	assert.ErrorContains(t, err, "unsupported storage type")
}

func TestBuildPipelineRejectsBadSizes(t *testing.T) {
	settings := testSettings(t)
	settings.ThumbnailSizes = []string{"huge"}

	_, err := buildPipeline(settings, nil, nil, nil, logging.New(io.Discard, false))
	assert.Error(t, err)
}

func TestSlugNotice(t *testing.T) {
	settings := testSettings(t)
	settings.RouteSlug = config.DefaultRouteSlug
	settings.SlugConfigured = false

	notice := slugNotice(settings)
	assert.Contains(t, notice, "server.route_slug")
	assert.True(t, strings.Contains(notice, "curl -X POST"))
	assert.Contains(t, notice, "http://localhost:8080/api/v2/cmv_api")
}

func routerFor(t *testing.T, settings config.Settings) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, db.InitDB("sqlite", ":memory:"))

	logger := logging.New(io.Discard, false)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store, err := buildStore(ctx, settings)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	pipeline, err := buildPipeline(settings, store, db.GetDB(), reg, logger)
	require.NoError(t, err)
	router, err := buildRouter(ctx, settings, pipeline, reg, logger)
	require.NoError(t, err)
	return router
}

func postFrom(router *gin.Engine, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v2/media-in", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestForwardedForIgnoredFromUntrustedPeers(t *testing.T) {
	settings := testSettings(t)
	settings.BlockedIPs = []string{"192.0.2.1"}

	router := routerFor(t, settings)

	assert.Equal(t, http.StatusForbidden, postFrom(router, "192.0.2.1:40000", ""))
	assert.Equal(t, http.StatusForbidden, postFrom(router, "192.0.2.1:40000", "8.8.8.8"))
	assert.Equal(t, http.StatusUnauthorized, postFrom(router, "198.51.100.7:40000", ""))
}

func TestForwardedForDoesNotResetRateLimit(t *testing.T) {
	settings := testSettings(t)
	settings.RateLimit = 1

	router := routerFor(t, settings)

	assert.Equal(t, http.StatusUnauthorized, postFrom(router, "198.51.100.7:40000", "8.8.8.8"))
	assert.Equal(t, http.StatusTooManyRequests, postFrom(router, "198.51.100.7:40000", "8.8.4.4"))
}

func TestForwardedForHonouredFromTrustedProxy(t *testing.T) {
	settings := testSettings(t)
	settings.BlockedIPs = []string{"203.0.113.5"}
	settings.TrustedProxies = []string{"10.0.0.0/8"}

	router := routerFor(t, settings)

	assert.Equal(t, http.StatusForbidden, postFrom(router, "10.0.0.2:40000", "203.0.113.5"))
	assert.Equal(t, http.StatusUnauthorized, postFrom(router, "10.0.0.2:40000", "198.51.100.7"))
}

func TestBuildRouterRejectsBadTrustedProxies(t *testing.T) {
	settings := testSettings(t)
	settings.TrustedProxies = []string{"not-a-proxy"}

	_, err := buildRouter(context.Background(), settings, nil, prometheus.NewRegistry(), logging.New(io.Discard, false))
	assert.ErrorContains(t, err, "server.trusted_proxies")
}
