package stream

import (
	"errors"
	"testing"
)

func TestBuffer_InitialState(t *testing.T) {
	b := NewBuffer(Limits{})

	if b.State() != StateStreaming {
		t.Errorf("expected StateStreaming, got %v", b.State())
	}
	if _, err := b.Text(); !errors.Is(err, ErrNotFrozen) {
		t.Errorf("expected ErrNotFrozen reading a streaming buffer, got %v", err)
	}
}

func TestBuffer_AppendThenFreeze(t *testing.T) {
	b := NewBuffer(Limits{})

	for _, f := range []string{"```json\n[", "{\"a\":1}", "]\n```"} {
		if err := b.Append(f); err != nil {
			t.Fatalf("append %q: %v", f, err)
		}
	}
	if err := b.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	text, err := b.Text()
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if text != "```json\n[{\"a\":1}]\n```" {
		t.Errorf("unexpected text %q", text)
	}
	if b.Fragments() != 3 {
		t.Errorf("expected 3 fragments, got %d", b.Fragments())
	}
}

func TestBuffer_FrozenRejectsAppend(t *testing.T) {
	b := NewBuffer(Limits{})
	_ = b.Append("a")
	_ = b.Freeze()

	if err := b.Append("b"); !errors.Is(err, ErrBufferFrozen) {
		t.Errorf("expected ErrBufferFrozen, got %v", err)
	}
	if err := b.Freeze(); err != nil {
		t.Errorf("expected Freeze to be idempotent, got %v", err)
	}
	if b.Discard() {
		t.Error("expected Discard to be a no-op on a frozen buffer")
	}
	if text, _ := b.Text(); text != "a" {
		t.Errorf("expected frozen text 'a', got %q", text)
	}
}

func TestBuffer_Discard(t *testing.T) {
	b := NewBuffer(Limits{})
	_ = b.Append("partial")

	if !b.Discard() {
		t.Fatal("expected Discard to succeed while streaming")
	}
	if b.State() != StateDiscarded {
		t.Errorf("expected StateDiscarded, got %v", b.State())
	}
	if b.Len() != 0 {
		t.Errorf("expected discarded buffer to be empty, got %d bytes", b.Len())
	}
	if _, err := b.Text(); !errors.Is(err, ErrBufferDiscarded) {
		t.Errorf("expected ErrBufferDiscarded, got %v", err)
	}
	if err := b.Append("more"); !errors.Is(err, ErrBufferDiscarded) {
		t.Errorf("expected ErrBufferDiscarded on append, got %v", err)
	}
	if err := b.Freeze(); !errors.Is(err, ErrBufferDiscarded) {
		t.Errorf("expected ErrBufferDiscarded on freeze, got %v", err)
	}
	if b.Discard() {
		t.Error("expected second Discard to return false")
	}
}

func TestBuffer_Limits(t *testing.T) {
	tests := []struct {
		name      string
		limits    Limits
		fragments []string
		failAt    int
	}{
		{"bytes within limit", Limits{MaxBytes: 6}, []string{"abc", "def"}, -1},
		{"bytes exceeded", Limits{MaxBytes: 5}, []string{"abc", "def"}, 1},
		{"fragments within limit", Limits{MaxFragments: 2}, []string{"a", "b"}, -1},
		{"fragments exceeded", Limits{MaxFragments: 2}, []string{"a", "b", "c"}, 2},
		{"no limits", Limits{}, []string{"a", "b", "c"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.limits)
			for i, f := range tt.fragments {
				err := b.Append(f)
				if i == tt.failAt {
					if !errors.Is(err, ErrLimitExceeded) {
						t.Fatalf("fragment %d: expected ErrLimitExceeded, got %v", i, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("fragment %d: unexpected error %v", i, err)
				}
			}
			if tt.failAt >= 0 {
				t.Fatal("expected a limit error")
			}
		})
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStreaming, "STREAMING"},
		{StateFrozen, "FROZEN"},
		{StateDiscarded, "DISCARDED"},
		{State(9), "UNKNOWN(9)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}
