// Client submits one video either directly over gRPC or as a queued command.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcapi "bilingual-transcript-service/internal/api/grpc"
	"bilingual-transcript-service/internal/config"
	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/queue"
)

func main() {
	cfg := config.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	serverAddr := flag.String("server", "localhost:"+cfg.Service.GRPCPort, "gRPC server address")
	videoID := flag.String("video", "", "Video ID")
	url := flag.String("url", "", "Video URL")
	lang := flag.String("lang", "en", "Target language")
	enqueue := flag.Bool("enqueue", false, "Publish to the RabbitMQ command queue instead of calling gRPC")
	timeout := flag.Duration("timeout", cfg.Service.RequestTimeout+30*time.Second, "Call timeout")
	flag.Parse()

	req := models.TranscriptionRequest{
		VideoID:        *videoID,
		SourceURI:      *url,
		TargetLanguage: *lang,
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *enqueue {
		if err := enqueueRequest(ctx, cfg, req); err != nil {
			log.Fatal().Err(err).Msg("failed to enqueue")
		}
		log.Info().Str("queue", cfg.RabbitMQ.Queue).Str("videoId", req.VideoID).Msg("Command queued")
		return
	}

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer conn.Close()

	log.Info().Str("server", *serverAddr).Str("videoId", req.VideoID).Msg("Processing video")

	result, err := grpcapi.NewClient(conn).ProcessVideo(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("ProcessVideo failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode result")
	}
	fmt.Println(string(out))
}

func enqueueRequest(ctx context.Context, cfg *config.Configuration, req models.TranscriptionRequest) error {
	producer, err := queue.NewProducer(cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	defer producer.Close()

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return producer.Publish(ctx, cfg.RabbitMQ.Queue, body)
}
