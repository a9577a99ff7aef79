package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigbook/internal/api"
	"gigbook/internal/auth"
	"gigbook/internal/config"
	"gigbook/internal/database"
	"gigbook/internal/domain"
	"gigbook/internal/events"
	"gigbook/internal/logging"
	"gigbook/internal/metrics"
	"gigbook/internal/notify"
	"gigbook/internal/repository"
	"gigbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(base, "api-main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, logging.Component(base, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiter := initRateLimiter(redisClient, base)

	bus := events.NewEventBus(logging.Component(base, "events"))
	notify.NewSubscriber(initMailer(cfg, base), cfg.App.PublicURL, cfg.SMTP.Timeout*time.Duration(cfg.SMTP.Retries+1), logging.Component(base, "notify")).Register(bus)
	if forwarder := initKafka(cfg, base); forwarder != nil {
		defer forwarder.Close()
		bus.SubscribeAll(forwarder.Handle)
	}

	resolver, err := initResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}

	svc := api.Services{
		Users:        service.NewUserService(db, cfg.Auth.DefaultRole, logging.Component(base, "users")),
		Profiles:     service.NewProfileService(db, logging.Component(base, "profiles")),
		Availability: service.NewAvailabilityService(db, logging.Component(base, "availability")),
		Bookings:     service.NewBookingService(db, bus, cfg.Booking.MaxHours, logging.Component(base, "bookings")),
		Events:       service.NewEventService(db, bus, cfg.Booking.MaxHours, logging.Component(base, "events")),
	}
	httpServer := api.NewServer(cfg, svc, resolver, limiter, db, logging.Component(base, "http"))

	startMetrics(ctx, cfg, logger)
	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, baseLogger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, rate limits stay in memory until it recovers")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

func initRateLimiter(client *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	local := repository.NewMemoryRateLimiter()
	if client == nil {
		return local
	}
	return repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(client), local, logging.Component(logger, "rate-limit"))
}

func initMailer(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if !cfg.SMTP.Enabled() {
		logger.Warn().Msg("smtp is not configured, notifications are only logged")
		return notify.NewLogMailer(logging.Component(logger, "mail"))
	}
	return notify.NewSMTPMailer(cfg.SMTP, logging.Component(logger, "mail"))
}

func initKafka(cfg *config.Config, logger *zerolog.Logger) *events.KafkaForwarder {
	if !cfg.Kafka.Enabled {
		return nil
	}
	writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka forwarding enabled")
	return events.NewKafkaForwarder(writer, cfg.Kafka.Timeout, logging.Component(logger, "kafka"))
}

// initResolver chains the OIDC verifier with the static development tokens.
// Development tokens are never honoured in production.
func initResolver(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.IdentityResolver, error) {
	var chain auth.ChainResolver
	if cfg.Auth.Issuer != "" {
		oidcResolver, err := auth.NewOIDCResolver(ctx, cfg.Auth.Issuer, cfg.Auth.ClientID, cfg.Auth.RoleClaim)
		if err != nil {
			return nil, fmt.Errorf("init oidc: %w", err)
		}
		chain = append(chain, oidcResolver)
	}
	if len(cfg.Auth.DevTokens) > 0 {
		if cfg.IsProduction() {
			logger.Warn().Msg("dev tokens are ignored in production")
		} else {
			chain = append(chain, auth.NewStaticResolver(cfg.Auth.DevTokens))
		}
	}
	if len(chain) == 0 {
		return nil, errors.New("no identity provider configured: set auth.issuer or auth.dev_tokens")
	}
	return chain, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.Server, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Str("version", cfg.App.Version).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
