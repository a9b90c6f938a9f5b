package app

import (
	"context"
	"testing"

	"bilingual-transcript-service/internal/config"
	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/service/pipeline"
)

func testConfig() *config.Configuration {
	cfg := config.Load()
	cfg.Model.Provider = "mock"
	cfg.Kafka.Enabled = false
	cfg.Languages = []string{"en", "fr"}
	return cfg
}

func TestNew_MockProvider(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.Model.Name() != "mock" {
		t.Errorf("expected mock provider, got %s", a.Model.Name())
	}
	if a.Ready() {
		t.Error("expected not ready before Start")
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.Ready() {
		t.Error("expected ready after Start")
	}

	a.Shutdown()
	if a.Ready() {
		t.Error("expected not ready after Shutdown")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Provider = "ollama"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNew_UnknownLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.Languages = []string{"en", "xx"}

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for unsupported configured language")
	}
}

func TestNewModelAdapter_GeminiWithoutKey(t *testing.T) {
	adapter, err := NewModelAdapter(context.Background(), config.ModelConfig{Provider: "gemini"})
	if err != nil {
		t.Fatalf("expected no construction error without key, got %v", err)
	}
	if adapter.Name() != "gemini" {
		t.Errorf("expected gemini, got %s", adapter.Name())
	}
}

func TestRun_InvalidRequestNeverAcquires(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := a.Run(context.Background(), models.TranscriptionRequest{VideoID: "v"})
	if pipeline.CategoryOf(err) != pipeline.CategoryInvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
	if result == nil || result.Status != models.StatusFailed {
		t.Errorf("expected failed result, got %+v", result)
	}
}
