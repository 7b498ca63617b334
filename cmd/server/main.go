package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kioskpos/internal/config"
	"kioskpos/internal/infra"
	"kioskpos/internal/repository"
	"kioskpos/internal/router"
	"kioskpos/internal/service"
	"kioskpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to the infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventsEnabled := cfg.AMQPURL != ""
	dispatcher := worker.NewDispatcher(rdb, eventsEnabled)

	orderRepo := repository.NewOrderRepository(db)
	resolver := service.NewItemResolver(repository.NewCatalogRepository(db), rdb, cfg.CatalogCacheTTL())
	handlers := map[string]worker.Handler{
		worker.JobTicket: worker.NewTicketWorker(orderRepo, resolver, cfg.TicketStoragePath),
	}

	var publisher *infra.EventPublisher
	if eventsEnabled {
		publisher = infra.NewEventPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig("amqp"))
		handlers[worker.JobEvent] = worker.NewEventWorker(publisher, breaker)
		worker.StartEventReplay(ctx, worker.ReplayConfig{RDB: rdb, CB: breaker})
	} else {
		log.Warn().Msg("AMQP_URL not set, order events are not published")
	}
	worker.NewPool(rdb, handlers).Start(ctx, cfg.WorkerPoolSize)

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("kioskpos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if publisher != nil {
		publisher.Close()
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}
