// Result viewer: follows the result topics and pushes events to the browser over WebSocket.
package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bilingual-transcript-service/internal/config"
	"bilingual-transcript-service/internal/resultfeed"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	cfg := config.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", strings.Join(cfg.Kafka.Brokers, ","), "Kafka brokers (comma-separated)")
	topicTranscribed := flag.String("topic-transcribed", cfg.Kafka.TopicTranscribed, "Transcribed results topic")
	topicFailed := flag.String("topic-failed", cfg.Kafka.TopicFailed, "Failed results topic")
	lookback := flag.Duration("lookback", time.Hour, "How far back to replay results")
	flag.Parse()

	if *brokers == "" {
		*brokers = "localhost:9092"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := resultfeed.NewHub()
	go hub.Run(ctx)

	for _, topic := range []string{*topicTranscribed, *topicFailed} {
		go resultfeed.Consume(ctx, hub, resultfeed.ConsumerConfig{
			Brokers:  strings.Split(*brokers, ","),
			Topic:    topic,
			Lookback: *lookback,
		})
	}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("static files")
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.Handle("/ws", hub)

	srv := &http.Server{Addr: ":" + *port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("url", "http://localhost:"+*port).
		Str("brokers", *brokers).
		Strs("topics", []string{*topicTranscribed, *topicFailed}).
		Msg("Result viewer starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}
