package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/segyhp/installment-engine/internal/cache"
	"github.com/segyhp/installment-engine/internal/config"
	"github.com/segyhp/installment-engine/internal/handler"
	"github.com/segyhp/installment-engine/internal/repository"
	"github.com/segyhp/installment-engine/internal/service"
	"github.com/segyhp/installment-engine/pkg/logger"
	"github.com/segyhp/installment-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// Initialize database
	db, err := repository.Connect(cfg.Database, cfg.GetConnMaxLifetime())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis")
	}
	var loanCache cache.LoanCache
	if redisClient != nil {
		defer redisClient.Close()
		loanCache = cache.NewRedisLoanCache(redisClient, cfg.GetCacheTTL())
	} else {
		log.Warn().Msg("REDIS_URL not set, loan cache disabled")
	}

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	metricsRepo := repository.NewClientMetricsRepository(db)

	// Initialize service
	billingService := service.NewBillingService(loanRepo, paymentRepo, metricsRepo, loanCache, cfg)
	billingHandler := handler.NewBillingHandler(billingService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	if cfg.RateLimit.Enabled {
		limiter := response.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		defer limiter.Stop()
		router.Use(limiter.Middleware)
	}
	healthHandler.RegisterRoutes(router)
	billingHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      response.CORSMiddleware(router),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Server.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}

// initRedis returns nil when no redis URL is configured
func initRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
