package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"bilingual-transcript-service/internal/app"
	"bilingual-transcript-service/internal/config"
	"bilingual-transcript-service/internal/observability"
	"bilingual-transcript-service/internal/queue"
	"bilingual-transcript-service/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create application")
	}

	obs := observability.NewServer(":"+cfg.Observability.MetricsPort, application.Ready)
	obs.Start()

	log.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("Connecting to RabbitMQ")
	consumer, err := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer consumer.Close()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start consuming")
	}

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}

	log.Info().Msg("Worker started, waiting for transcription commands")
	if err := worker.New(application).Run(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker stopped")
	}

	application.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("observability shutdown failed")
	}
}
