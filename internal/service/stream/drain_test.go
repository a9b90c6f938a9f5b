package stream

import (
	"context"
	"errors"
	"iter"
	"testing"
)

// fragmentsOf yields the given fragments, then err if non-nil.
func fragmentsOf(err error, fragments ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func TestDrain_ConcatenatesInOrder(t *testing.T) {
	var sizes []int
	acc := &Accumulator{OnFragment: func(n int) { sizes = append(sizes, n) }}

	text, err := acc.Drain(context.Background(), fragmentsOf(nil, "[00:00]\n", "كِتَابٌ", "\nA Book"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "[00:00]\nكِتَابٌ\nA Book" {
		t.Errorf("unexpected text %q", text)
	}
	if len(sizes) != 3 {
		t.Errorf("expected 3 fragment callbacks, got %d", len(sizes))
	}
}

func TestDrain_EmptyStream(t *testing.T) {
	acc := &Accumulator{}

	text, err := acc.Drain(context.Background(), fragmentsOf(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestDrain_ProviderErrorDiscardsPartial(t *testing.T) {
	providerErr := errors.New("connection reset")
	acc := &Accumulator{}

	text, err := acc.Drain(context.Background(), fragmentsOf(providerErr, "partial ", "output"))
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if text != "" {
		t.Errorf("expected no partial text, got %q", text)
	}
}

func TestDrain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pulled := 0
	fragments := func(yield func(string, error) bool) {
		for i := 0; i < 10; i++ {
			pulled++
			if i == 2 {
				cancel()
			}
			if !yield("x", nil) {
				return
			}
		}
	}

	text, err := (&Accumulator{}).Drain(ctx, fragments)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if text != "" {
		t.Errorf("expected no partial text, got %q", text)
	}
	if pulled != 3 {
		t.Errorf("expected loop to stop after cancellation, pulled %d", pulled)
	}
}

func TestDrain_LimitExceeded(t *testing.T) {
	acc := &Accumulator{Limits: Limits{MaxBytes: 4}}

	text, err := acc.Drain(context.Background(), fragmentsOf(nil, "abc", "def"))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if text != "" {
		t.Errorf("expected no partial text, got %q", text)
	}
}
