// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/thatcatcamp/sideload/internal/auth"
	"github.com/thatcatcamp/sideload/internal/config"
	"github.com/thatcatcamp/sideload/internal/db"
	"github.com/thatcatcamp/sideload/internal/handlers"
	"github.com/thatcatcamp/sideload/internal/logging"
	"github.com/thatcatcamp/sideload/internal/media"
	"github.com/thatcatcamp/sideload/internal/middleware"
	"github.com/thatcatcamp/sideload/internal/models"
	"github.com/thatcatcamp/sideload/internal/sideload"
	"github.com/thatcatcamp/sideload/internal/sweeper"
	"gorm.io/gorm"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server operations",
	Long:  "Start and manage the sideload HTTP server",
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := initSystemDB(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := runServer(config.Load()); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runServer(settings config.Settings) error {
	logger := logging.New(os.Stderr, settings.Debug)
	slog.SetDefault(logger)

	if !settings.SlugConfigured {
		logger.Warn(slugNotice(settings))
	}
	if auth.UsingPlaceholderSecret() {
		logger.Warn("auth.jwt_secret is the shipped placeholder; bearer tokens are forgeable until it is changed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, settings)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipeline, err := buildPipeline(settings, store, db.GetDB(), reg, logger)
	if err != nil {
		return err
	}

	router, err := buildRouter(ctx, settings, pipeline, reg, logger)
	if err != nil {
		return err
	}

	// Initialize temp sweeper
	sweep := sweeper.New(settings.TempDir, settings.SweepMaxAge, logging.Component(logger, "sweeper"))
	if settings.SweepSchedule != "" {
		if err := sweep.Start(settings.SweepSchedule); err != nil {
			return err
		}
		logger.Info("Temp sweeper started", "schedule", settings.SweepSchedule, "dir", sweep.Dir)
	}

	server := &http.Server{
		Addr:              ":" + settings.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", server.Addr, "route", settings.UploadRoute(), "storage", settings.StorageType)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	// Give in-flight sideloads up to the fetch timeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.FetchTimeout+10*time.Second)
	defer cancel()

	sweep.Stop(shutdownCtx)
	return server.Shutdown(shutdownCtx)
}

// buildStore selects the media store named by storage.type
func buildStore(ctx context.Context, settings config.Settings) (media.Store, error) {
	switch settings.StorageType {
	case "", "local":
		if err := os.MkdirAll(settings.MediaDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create media directory: %w", err)
		}
		return media.NewLocalStore(settings.MediaDir, settings.BaseURL), nil
	case "s3":
		if settings.S3Bucket == "" {
			return nil, errors.New("storage.s3.bucket is required when storage.type is s3")
		}
		client, err := media.NewS3Client(ctx, settings.S3Region, settings.S3Endpoint)
		if err != nil {
			return nil, err
		}
		return media.NewS3Store(client, settings.S3Bucket, settings.S3Region, settings.S3Prefix, settings.S3PublicURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", settings.StorageType)
	}
}

// buildPipeline wires the sideload stages for settings
func buildPipeline(settings config.Settings, store media.Store, database *gorm.DB, reg prometheus.Registerer, logger *slog.Logger) (*sideload.Pipeline, error) {
	sizes, err := media.ParseSizes(settings.ThumbnailSizes)
	if err != nil {
		return nil, err
	}

	return sideload.New(
		sideload.NewFetcher(settings.TempDir, settings.FetchTimeout, settings.UserAgent, settings.FetchAllowPrivate),
		sideload.NewIngestor(store, settings.MaxFileSize),
		&sideload.Registrar{DB: database, Deriver: media.NewDeriver(store, sizes)},
		sideload.NewMetrics(reg),
		logger,
		settings.Debug,
	), nil
}

// buildRouter registers the HTTP routes
func buildRouter(ctx context.Context, settings config.Settings, pipeline *sideload.Pipeline, gatherer prometheus.Gatherer, logger *slog.Logger) (*gin.Engine, error) {
	blocked, err := middleware.ParseBlocklist(settings.BlockedIPs)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	// X-Forwarded-For is only honoured from these peers
	if err := r.SetTrustedProxies(settings.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.AccessLogMiddleware(logging.Component(logger, "http")))
	r.Use(middleware.SecurityHeadersMiddleware())

	// System routes
	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if settings.StorageType == "" || settings.StorageType == "local" {
		r.GET("/media/*filepath", handlers.MediaAssetHandler(settings.MediaDir))
	}

	h := handlers.NewSideloadHandler(pipeline, logging.Component(logger, "api"))

	api := r.Group(settings.UploadRoute())
	api.Use(middleware.IPFilterMiddleware(blocked))
	if settings.RateLimit > 0 {
		interval := settings.RateInterval
		if interval <= 0 {
			interval = time.Minute
		}
		api.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(ctx, settings.RateLimit, interval)))
	}
	api.Use(auth.RequireCapability(models.CapUploadFiles))
	{
		api.POST("", h.Create)
		api.GET("/:id", h.Get)
	}

	return r, nil
}

// slugNotice explains how to configure the endpoint slug and how to call it
func slugNotice(settings config.Settings) string {
	return fmt.Sprintf("server.route_slug is not set; the sideload endpoint is using the default %q. "+
		"Choose your own with: sideload config set server.route_slug <slug>. "+
		"Example request: curl -X POST -u you@example.com:password -H 'Content-Type: application/json' "+
		"-d '{\"file_url\":\"https://example.com/image.jpg\"}' http://localhost:%s%s",
		config.DefaultRouteSlug, settings.HTTPPort, settings.UploadRoute())
}

func init() {
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)
}
