// Package pipeline runs one transcription request end to end:
// validate, acquire, compose, stream, accumulate, extract, assemble, publish.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bilingual-transcript-service/internal/events"
	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/observability/logging"
	"bilingual-transcript-service/internal/observability/metrics"
	"bilingual-transcript-service/internal/schema"
	"bilingual-transcript-service/internal/service/acquire"
	"bilingual-transcript-service/internal/service/extract"
	"bilingual-transcript-service/internal/service/language"
	"bilingual-transcript-service/internal/service/model"
	"bilingual-transcript-service/internal/service/prompt"
	"bilingual-transcript-service/internal/service/stream"
)

// DefaultTimeout bounds acquisition and streaming for one request.
const DefaultTimeout = 300 * time.Second

const publishTimeout = 10 * time.Second

// Publisher receives one result event per request.
type Publisher interface {
	PublishTranscribed(ctx context.Context, key string, event any) error
	PublishFailed(ctx context.Context, key string, event any) error
}

// Config holds per-request bounds.
type Config struct {
	Timeout time.Duration
	Limits  stream.Limits
}

// Pipeline is safe for concurrent use; all per-request state is local to Run.
type Pipeline struct {
	cfg       Config
	validator *schema.Validator
	languages *language.Set
	acquirer  acquire.Acquirer
	model     model.Adapter
	publisher Publisher
	metrics   *metrics.Metrics
	newID     func() string
	now       func() time.Time
}

// New creates a pipeline. publisher may be nil.
func New(cfg Config, languages *language.Set, acquirer acquire.Acquirer, adapter model.Adapter, publisher Publisher) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		validator: schema.New(languages),
		languages: languages,
		acquirer:  acquirer,
		model:     adapter,
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Run processes one request. The returned result is never nil; on failure its
// status is failed and err is an *Error.
func (p *Pipeline) Run(ctx context.Context, req models.TranscriptionRequest) (result *models.PipelineResult, err error) {
	requestID := p.newID()
	logger := logging.WithRequest(requestID, req.VideoID)
	start := p.now()
	p.metrics.RecordRequestStart()

	logger.Info().
		Str("url", req.SourceURI).
		Str("targetLanguage", req.TargetLanguage).
		Str("model", p.model.Name()).
		Msg("Processing video")

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Pipeline panicked")
			pe := &Error{Category: CategoryInternal, Op: "run", Err: fmt.Errorf("panic: %v", r)}
			result, err = failed(req.VideoID, pe), pe
		}

		elapsed := p.now().Sub(start)
		p.metrics.RecordRequestEnd(string(result.Status), elapsed.Seconds())
		if err != nil {
			category := CategoryOf(err)
			p.metrics.RecordFailure(string(category))
			logger.Error().
				Err(err).
				Str("category", string(category)).
				Dur("elapsed", elapsed).
				Msg("Video processing failed")
		} else {
			logger.Info().
				Str("format", string(result.Format)).
				Dur("elapsed", elapsed).
				Msg("Video transcribed")
		}

		p.publish(ctx, logger, requestID, req, result)
	}()

	output, format, runErr := p.run(ctx, logger, req)
	if runErr != nil {
		return failed(req.VideoID, runErr), runErr
	}
	return &models.PipelineResult{
		Status:  models.StatusTranscribed,
		VideoID: req.VideoID,
		Format:  format,
		Output:  output,
	}, nil
}

func (p *Pipeline) run(ctx context.Context, logger zerolog.Logger, req models.TranscriptionRequest) (json.RawMessage, models.Format, *Error) {
	if err := p.validator.Validate(req); err != nil {
		return nil, "", &Error{Category: CategoryInvalidArgument, Op: "validate", Err: err}
	}
	profile, ok := p.languages.Lookup(req.TargetLanguage)
	if !ok {
		return nil, "", &Error{Category: CategoryInternal, Op: "profile", Err: fmt.Errorf("no profile for %q", req.TargetLanguage)}
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	acquireStart := p.now()
	artifact, err := p.acquirer.Acquire(ctx, req.SourceURI, req.VideoID)
	if err != nil {
		return nil, "", classify(ctx, "acquire", CategoryAcquisition, err)
	}
	defer func() {
		if err := artifact.Cleanup(); err != nil {
			logger.Warn().Err(err).Str("path", artifact.Path).Msg("Failed to remove audio artifact")
		}
	}()
	p.metrics.RecordAcquired(artifact.Size, p.now().Sub(acquireStart).Seconds())
	logger.Info().
		Str("path", artifact.Path).
		Int64("bytes", artifact.Size).
		Msg("Audio acquired")

	text := prompt.Compose(profile)
	acc := stream.Accumulator{
		Limits:     p.cfg.Limits,
		OnFragment: p.metrics.RecordFragment,
	}

	streamStart := p.now()
	raw, err := acc.Drain(ctx, p.model.Stream(ctx, text, req.SourceURI))
	if err != nil {
		p.metrics.RecordStreamDiscarded(discardReason(err))
		return nil, "", classify(ctx, "stream", CategoryModelSession, err)
	}
	p.metrics.RecordStreamDrained(p.now().Sub(streamStart).Seconds())
	logger.Debug().Str("output", raw).Msg("Model output")

	outcome := extract.Extract(raw)
	if outcome.IsStructured() {
		segments, decodeErr := models.DecodeTranscript(outcome.Value)
		if decodeErr != nil {
			logger.Warn().Err(decodeErr).Msg("Structured output is not a segment list")
		}
		p.metrics.RecordExtraction(outcome.Kind.String(), len(segments))
		logger.Debug().Int("segments", len(segments)).Msg("Structured output extracted")
		return outcome.Value, models.FormatJSON, nil
	}

	p.metrics.RecordExtraction(outcome.Kind.String(), 0)
	logger.Warn().Int("bytes", len(outcome.Text)).Msg("No structured output found, returning raw text")
	// Invalid UTF-8 sequences become U+FFFD; valid text is kept verbatim.
	out, err := json.Marshal(outcome.Text)
	if err != nil {
		return nil, "", &Error{Category: CategoryInternal, Op: "assemble", Err: err}
	}
	return out, models.FormatText, nil
}

// publish emits the result event. Failures are logged and do not change the result.
func (p *Pipeline) publish(ctx context.Context, logger zerolog.Logger, requestID string, req models.TranscriptionRequest, result *models.PipelineResult) {
	if p.publisher == nil {
		return
	}

	event := models.ResultEvent{
		EventID:        p.newID(),
		RequestID:      requestID,
		VideoID:        req.VideoID,
		TargetLanguage: req.TargetLanguage,
		Status:         result.Status,
		Format:         result.Format,
		Output:         result.Output,
		Error:          result.Error,
		Timestamp:      p.now().UnixMilli(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	var err error
	if result.Status == models.StatusTranscribed {
		event.EventType = events.EventTranscribed
		err = p.publisher.PublishTranscribed(pubCtx, req.VideoID, event)
	} else {
		event.EventType = events.EventFailed
		err = p.publisher.PublishFailed(pubCtx, req.VideoID, event)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to publish result event")
	}
}

func failed(videoID string, err *Error) *models.PipelineResult {
	return &models.PipelineResult{
		Status:  models.StatusFailed,
		VideoID: videoID,
		Error:   err.Info(),
	}
}
