// Package gemini provides a Google Gemini streaming adapter.
package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"bilingual-transcript-service/internal/service/model"
)

// Config holds Gemini generation settings.
type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	ContentMIMEType string
}

// DefaultConfig returns the generation settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Model:           "gemini-1.5-pro",
		Temperature:     0.4,
		MaxOutputTokens: 2048,
		ContentMIMEType: "video/youtube",
	}
}

// generateFunc matches genai's Models.GenerateContentStream.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

// Adapter implements model.Adapter using the Gemini API.
// It is stateless per call and safe for concurrent use.
type Adapter struct {
	cfg      Config
	generate generateFunc
}

// New creates a Gemini adapter. An empty API key is not an error here: the
// first Stream call yields model.ErrMissingCredential instead.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	a := &Adapter{cfg: withDefaults(cfg)}
	if cfg.APIKey == "" {
		return a, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	a.generate = client.Models.GenerateContentStream
	return a, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "gemini"
}

// Stream sends the content reference and the prompt, then yields text fragments.
func (a *Adapter) Stream(ctx context.Context, prompt, sourceURI string) iter.Seq2[string, error] {
	if a.generate == nil {
		return model.Fail(model.ErrMissingCredential)
	}

	responses := a.generate(ctx, a.cfg.Model, a.contents(prompt, sourceURI), a.generationConfig())
	return func(yield func(string, error) bool) {
		for resp, err := range responses {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

// contents places the video reference before the prompt, as one user turn.
func (a *Adapter) contents(prompt, sourceURI string) []*genai.Content {
	return []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{FileData: &genai.FileData{FileURI: sourceURI, MIMEType: a.cfg.ContentMIMEType}},
			{Text: prompt},
		},
	}}
}

func (a *Adapter) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(a.cfg.Temperature),
		MaxOutputTokens: a.cfg.MaxOutputTokens,
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	if cfg.ContentMIMEType == "" {
		cfg.ContentMIMEType = def.ContentMIMEType
	}
	return cfg
}
