// Package worker runs queued transcription commands through the pipeline.
// Results are not replied to the queue; they leave as result events.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"bilingual-transcript-service/internal/models"
)

// ErrMalformedCommand is returned for message bodies that are not a request document.
var ErrMalformedCommand = errors.New("malformed transcription command")

// Runner runs one transcription request.
type Runner interface {
	Run(ctx context.Context, req models.TranscriptionRequest) (*models.PipelineResult, error)
}

// Worker consumes deliveries sequentially.
type Worker struct {
	runner Runner
}

// New creates a worker.
func New(runner Runner) *Worker {
	return &Worker{runner: runner}
}

// ProcessMessage decodes and runs one command. A pipeline failure is not an
// error here: it has already been reported through the result event.
func (w *Worker) ProcessMessage(ctx context.Context, body []byte) error {
	var req models.TranscriptionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	result, err := w.runner.Run(ctx, req)
	if err != nil {
		log.Warn().
			Err(err).
			Str("videoId", req.VideoID).
			Msg("Queued command failed")
		return nil
	}

	log.Info().
		Str("videoId", result.VideoID).
		Str("format", string(result.Format)).
		Msg("Queued command transcribed")
	return nil
}

// Run processes deliveries until ctx is done or the channel closes.
// Malformed commands are rejected without requeue, a command interrupted by
// shutdown is requeued, and everything else is acked.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			log.Debug().
				Str("messageId", d.MessageId).
				Int("bytes", len(d.Body)).
				Msg("Received command")

			if err := w.ProcessMessage(ctx, d.Body); err != nil {
				log.Error().Err(err).Str("messageId", d.MessageId).Msg("Rejecting command")
				if nackErr := d.Nack(false, false); nackErr != nil {
					return fmt.Errorf("nack: %w", nackErr)
				}
				continue
			}
			if ctx.Err() != nil {
				// Interrupted by shutdown; leave it for the next consumer.
				_ = d.Nack(false, true)
				return ctx.Err()
			}
			if err := d.Ack(false); err != nil {
				return fmt.Errorf("ack: %w", err)
			}
		}
	}
}
