// Package main is the entry point for the Seoroblog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seoroblog/internal/cache"
	"seoroblog/internal/config"
	"seoroblog/internal/database"
	"seoroblog/internal/feeds"
	"seoroblog/internal/handlers"
	"seoroblog/internal/middleware"
	"seoroblog/internal/render"
	"seoroblog/internal/router"
	"seoroblog/internal/scheduler"
	"seoroblog/internal/session"
	"seoroblog/internal/storage"
	"seoroblog/internal/store"
)

func main() {
	// One-shot mode: publish due scheduled posts and exit. Useful for
	// running the publish step from an external cron instead of the
	// in-process scheduler.
	publishOnce := flag.Bool("publish-scheduled", false, "publish due scheduled posts and exit")
	flag.Parse()

	// Structured logger — outputs text with debug level everywhere for now.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (Redis-compatible session and cache store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	profileStore := store.NewProfileStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)
	categoryStore := store.NewCategoryStore(db)
	tagStore := store.NewTagStore(db)
	imageStore := store.NewImageStore(db)

	// Feed cache lives in Valkey and is shared by the HTTP handlers and the
	// publish job, which invalidates it when scheduled posts go live.
	feedCache := cache.NewFeedCache(valkeyClient, cache.DefaultFeedTTL)

	if *publishOnce {
		job := scheduler.NewPublishJob(postStore, feedCache)
		job.Run()
		return
	}

	// Initialize session store backed by Valkey.
	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize the HTML template renderer.
	// In dev mode, templates load assets from CDN; in production they use
	// compiled local files embedded in the binary.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Connect to S3-compatible object storage (optional — app works without it).
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			slog.Info("s3 storage connected",
				"endpoint", cfg.S3Endpoint,
				"bucket", cfg.S3Bucket,
			)
		}
	} else {
		slog.Warn("s3 storage not configured — image uploads disabled")
	}

	feedBuilder := feeds.NewBuilder(cfg.SiteURL, cfg.SiteTitle, cfg.SiteDescription)

	// Create handler groups with their dependencies.
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore)
	postHandlers := handlers.NewPosts(renderer, sessionStore, postStore, commentStore, categoryStore, tagStore, feedCache, cfg)
	commentHandlers := handlers.NewComments(renderer, sessionStore, commentStore, postStore, cfg)
	categoryHandlers := handlers.NewCategories(renderer, categoryStore)
	profileHandlers := handlers.NewProfiles(renderer, sessionStore, userStore, profileStore, postStore)
	uploadHandlers := handlers.NewUpload(storageClient, imageStore)
	feedHandlers := handlers.NewFeeds(feedBuilder, postStore, categoryStore, feedCache)
	backupHandlers := handlers.NewBackup(renderer, postStore, commentStore, categoryStore, tagStore)

	// Per-IP rate limiters for abuse-prone routes.
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.RateLimitWindow)
	defer authLimiter.Stop()
	reportLimiter := middleware.NewRateLimiter(cfg.ReportRateLimit, cfg.RateLimitWindow)
	defer reportLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Deps{
		Sessions:    sessionStore,
		Auth:        authHandlers,
		Posts:       postHandlers,
		Comments:    commentHandlers,
		Categories:  categoryHandlers,
		Profiles:    profileHandlers,
		Upload:      uploadHandlers,
		Feeds:       feedHandlers,
		Backup:      backupHandlers,
		AuthLimit:   authLimiter,
		ReportLimit: reportLimiter,
	})

	// Background scheduler — promotes scheduled posts whose publish time
	// has passed.
	sched := scheduler.NewManager(scheduler.NewPublishJob(postStore, feedCache), cfg.PublishInterval)
	if err := sched.RegisterJobs(); err != nil {
		slog.Error("failed to register scheduled jobs", "error", err)
		os.Exit(1)
	}
	sched.Start()

	// Create the HTTP server with sensible timeouts. WriteTimeout allows
	// for image uploads to S3 on slower links.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	sched.Stop()

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
