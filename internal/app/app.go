package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"bilingual-transcript-service/internal/config"
	"bilingual-transcript-service/internal/events"
	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/observability/logging"
	"bilingual-transcript-service/internal/service/acquire"
	"bilingual-transcript-service/internal/service/language"
	"bilingual-transcript-service/internal/service/model"
	"bilingual-transcript-service/internal/service/model/gemini"
	"bilingual-transcript-service/internal/service/model/mock"
	"bilingual-transcript-service/internal/service/pipeline"
	"bilingual-transcript-service/internal/service/stream"
)

// Application holds process-wide state for the service. The model client is
// built once here and injected into the pipeline.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
	Pipeline    *pipeline.Pipeline
	Publisher   *events.Publisher
	Model       model.Adapter

	ready atomic.Bool
}

// New constructs a new Application from the provided configuration.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	logging.Init(logging.Config{
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
		Service: logging.DefaultConfig().Service,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	languages, err := language.NewSet(cfg.Languages)
	if err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}

	adapter, err := NewModelAdapter(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}
	a.Model = adapter

	acquirer := acquire.NewYtDlp(acquire.Config{
		YtDlpPath:  cfg.Acquire.YtDlpPath,
		FFmpegPath: cfg.Acquire.FFmpegPath,
		WorkDir:    cfg.Acquire.WorkDir,
	})

	a.Publisher = events.New(&events.Config{
		Enabled:          cfg.Kafka.Enabled,
		Brokers:          cfg.Kafka.Brokers,
		TopicTranscribed: cfg.Kafka.TopicTranscribed,
		TopicFailed:      cfg.Kafka.TopicFailed,
		Principal:        cfg.Kafka.Principal,
	})

	a.Pipeline = pipeline.New(pipeline.Config{
		Timeout: cfg.Service.RequestTimeout,
		Limits: stream.Limits{
			MaxBytes:     cfg.StreamLimits.MaxBytes,
			MaxFragments: cfg.StreamLimits.MaxFragments,
		},
	}, languages, acquirer, adapter, a.Publisher)

	a.Logger.Info().
		Str("modelProvider", adapter.Name()).
		Str("model", cfg.Model.Name).
		Strs("languages", languages.Codes()).
		Dur("requestTimeout", cfg.Service.RequestTimeout).
		Bool("kafkaEnabled", cfg.Kafka.Enabled).
		Msg("Video transcript application created")
	return a, nil
}

// NewModelAdapter selects the model provider.
func NewModelAdapter(ctx context.Context, cfg config.ModelConfig) (model.Adapter, error) {
	switch strings.ToLower(cfg.Provider) {
	case "mock":
		return mock.New(), nil
	case "gemini", "":
		adapter, err := gemini.New(ctx, gemini.Config{
			APIKey:          cfg.APIKey,
			Model:           cfg.Name,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
			ContentMIMEType: cfg.ContentMIMEType,
		})
		if err != nil {
			return nil, err
		}
		if cfg.APIKey == "" {
			logger := logging.WithComponent("application")
			logger.Warn().Msg("GEMINI_KEY is not set, model requests will fail")
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// Run runs one request through the pipeline.
func (a *Application) Run(ctx context.Context, req models.TranscriptionRequest) (*models.PipelineResult, error) {
	return a.Pipeline.Run(ctx, req)
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Video transcript service starting")
	return nil
}

// Ready reports whether the application accepts requests.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown stops accepting requests and flushes the publisher.
func (a *Application) Shutdown() {
	a.ready.Store(false)
	a.Logger.Info().Msg("Video transcript service shutting down")
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to close publisher")
	}
}
