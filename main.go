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
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/tagcheck/config"
	"github.com/seo-optimizer/tagcheck/fetcher"
	"github.com/seo-optimizer/tagcheck/logging"
	"github.com/seo-optimizer/tagcheck/middleware"
	"github.com/seo-optimizer/tagcheck/stats"
)

const (
	maintenanceInterval = time.Hour
	clientIdleTimeout   = 10 * time.Minute
	statsRetainMonths   = 12
)

// server bundles the dependencies of the HTTP handlers.
type server struct {
	cfg     config.Config
	logger  *slog.Logger
	fetcher fetcher.PageFetcher
	stats   *logging.Statistics
	storage *stats.Storage
	limiter *middleware.RateLimiter
}

func newServer(cfg config.Config, logger *slog.Logger, f fetcher.PageFetcher, storage *stats.Storage) *server {
	return &server{
		cfg:     cfg,
		logger:  logger,
		fetcher: f,
		stats:   logging.NewStatistics(),
		storage: storage,
		limiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

func setupRouter(s *server) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestIDs())
	r.Use(middleware.AccessLog(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.CORS(s.cfg.CORSOrigin))
	r.Use(s.limiter.RateLimit())
	r.Use(middleware.Stats(s.stats))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze", s.analyze)
		api.GET("/statistics", s.statistics)
	}

	return r
}

// maintain prunes per-client state and old monthly stats until ctx ends.
func (s *server) maintain(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.limiter.Cleanup(clientIdleTimeout)
			s.stats.PruneVisitors()
			s.storage.Cleanup(statsRetainMonths)
			s.logger.Debug("maintenance done", slog.Int("idle_clients_removed", removed))
		}
	}
}

// serve runs the HTTP server until ctx is cancelled, then drains it and
// flushes statistics.
func serve(ctx context.Context, s *server) error {
	httpServer := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           setupRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", slog.String("addr", "http://localhost:"+s.cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.maintain(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if serr := s.storage.Shutdown(); serr != nil {
		err = errors.Join(err, fmt.Errorf("flush statistics: %w", serr))
	}
	return err
}

func run() error {
	envFile := config.LoadEnv()

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if envFile != "" {
		logger.Info("loaded environment file", slog.String("file", envFile))
	}

	gin.SetMode(cfg.GinMode)

	storage, err := stats.NewStorage(cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("open statistics: %w", err)
	}

	f := fetcher.New(
		fetcher.WithTimeout(cfg.FetchTimeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodyBytes),
		fetcher.WithAllowPrivateNetworks(cfg.AllowPrivateNetworks),
		fetcher.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, newServer(cfg, logger, f, storage))
}

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
