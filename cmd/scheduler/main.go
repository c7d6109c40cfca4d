package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/segyhp/installment-engine/internal/cache"
	"github.com/segyhp/installment-engine/internal/config"
	"github.com/segyhp/installment-engine/internal/repository"
	"github.com/segyhp/installment-engine/internal/service"
	"github.com/segyhp/installment-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log.Info().Msg("starting installment scheduler")

	db, err := repository.Connect(cfg.Database, cfg.GetConnMaxLifetime())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	var loanCache cache.LoanCache
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize redis")
		}
		client := redis.NewClient(opts)
		defer client.Close()
		loanCache = cache.NewRedisLoanCache(client, cfg.GetCacheTTL())
	}

	billingService := service.NewBillingService(
		repository.NewLoanRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewClientMetricsRepository(db),
		loanCache,
		cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New(cron.WithLocation(cfg.GetLocation()))
	if err := setupCronJobs(ctx, c, cfg, billingService); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule jobs")
	}

	c.Start()
	log.Info().Str("overdue_spec", cfg.Scheduler.OverdueSpec).Str("timezone", cfg.Scheduler.Timezone).Msg("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down scheduler")
	cancel()
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, svc *service.BillingService) error {
	_, err := c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		updated, err := svc.MarkOverdue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("overdue sweep failed")
			return
		}
		log.Info().Int("installments", updated).Msg("overdue sweep finished")
	})
	return err
}
