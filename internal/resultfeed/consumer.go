package resultfeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"bilingual-transcript-service/internal/models"
)

// ConsumerConfig selects the topic to follow.
type ConsumerConfig struct {
	Brokers  []string
	Topic    string
	Lookback time.Duration
}

// Consume reads partition 0 of the topic, starting Lookback ago, and forwards
// each result event to the hub until ctx is done.
func Consume(ctx context.Context, hub *Hub, cfg ConsumerConfig) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   cfg.Brokers,
		Topic:     cfg.Topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if cfg.Lookback > 0 {
		if err := reader.SetOffsetAt(ctx, time.Now().Add(-cfg.Lookback)); err != nil {
			log.Warn().Err(err).Str("topic", cfg.Topic).Msg("Failed to seek, reading from current offset")
		}
	}

	log.Info().Str("topic", cfg.Topic).Dur("lookback", cfg.Lookback).Msg("Consuming result events")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("topic", cfg.Topic).Msg("Kafka read error")
			time.Sleep(time.Second)
			continue
		}

		event, err := decodeEvent(msg)
		if err != nil {
			log.Warn().Err(err).Str("topic", cfg.Topic).Msg("Skipping undecodable event")
			continue
		}

		log.Info().
			Str("eventType", event.EventType).
			Str("videoId", event.VideoID).
			Str("status", string(event.Status)).
			Msg("Received result event")
		hub.Broadcast(ctx, event)
	}
}

func decodeEvent(msg kafka.Message) (models.ResultEvent, error) {
	var event models.ResultEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, err
	}
	if event.EventType == "" {
		for _, h := range msg.Headers {
			if h.Key == "eventType" {
				event.EventType = string(h.Value)
			}
		}
	}
	return event, nil
}
