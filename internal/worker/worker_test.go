package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"bilingual-transcript-service/internal/models"
)

type fakeRunner struct {
	mu   sync.Mutex
	reqs []models.TranscriptionRequest
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, req models.TranscriptionRequest) (*models.PipelineResult, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return &models.PipelineResult{Status: models.StatusFailed, VideoID: req.VideoID}, f.err
	}
	return &models.PipelineResult{Status: models.StatusTranscribed, VideoID: req.VideoID, Format: models.FormatJSON}, nil
}

// fakeAcknowledger records acknowledgements by delivery tag.
type fakeAcknowledger struct {
	mu       sync.Mutex
	acked    []uint64
	nacked   []uint64
	requeued []uint64
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	if requeue {
		a.requeued = append(a.requeued, tag)
	}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestProcessMessage_Valid(t *testing.T) {
	runner := &fakeRunner{}
	w := New(runner)

	body := []byte(`{"videoId":"v1","url":"https://youtu.be/v1","targetLanguage":"fr"}`)
	if err := w.ProcessMessage(context.Background(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.reqs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runner.reqs))
	}
	want := models.TranscriptionRequest{VideoID: "v1", SourceURI: "https://youtu.be/v1", TargetLanguage: "fr"}
	if runner.reqs[0] != want {
		t.Errorf("decoded %+v, want %+v", runner.reqs[0], want)
	}
}

func TestProcessMessage_Malformed(t *testing.T) {
	runner := &fakeRunner{}
	err := New(runner).ProcessMessage(context.Background(), []byte("not json"))

	if !errors.Is(err, ErrMalformedCommand) {
		t.Errorf("expected ErrMalformedCommand, got %v", err)
	}
	if len(runner.reqs) != 0 {
		t.Error("expected runner not called")
	}
}

func TestProcessMessage_PipelineFailureIsNotAnError(t *testing.T) {
	w := New(&fakeRunner{err: errors.New("acquire failed")})

	if err := w.ProcessMessage(context.Background(), []byte(`{"videoId":"v"}`)); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestRun_AcksAndRejects(t *testing.T) {
	ack := &fakeAcknowledger{}
	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{"videoId":"v1"}`)}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte(`{broken`)}
	close(deliveries)

	if err := New(&fakeRunner{}).Run(context.Background(), deliveries); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ack.acked) != 1 || ack.acked[0] != 1 {
		t.Errorf("expected delivery 1 acked, got %v", ack.acked)
	}
	if len(ack.nacked) != 1 || ack.nacked[0] != 2 {
		t.Errorf("expected delivery 2 rejected, got %v", ack.nacked)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)

	done := make(chan error, 1)
	go func() { done <- New(&fakeRunner{}).Run(ctx, deliveries) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

type cancellingRunner struct {
	cancel context.CancelFunc
}

func (c *cancellingRunner) Run(ctx context.Context, req models.TranscriptionRequest) (*models.PipelineResult, error) {
	c.cancel()
	return &models.PipelineResult{Status: models.StatusFailed, VideoID: req.VideoID}, ctx.Err()
}

func TestRun_RequeuesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ack := &fakeAcknowledger{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte(`{"videoId":"v"}`)}

	err := New(&cancellingRunner{cancel: cancel}).Run(ctx, deliveries)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(ack.acked) != 0 {
		t.Errorf("expected no ack, got %v", ack.acked)
	}
	if len(ack.requeued) != 1 || ack.requeued[0] != 7 {
		t.Errorf("expected delivery 7 requeued, got %v", ack.requeued)
	}
}
