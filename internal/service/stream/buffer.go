// Package stream accumulates model response fragments into one buffer.
package stream

import (
	"errors"
	"fmt"
	"strings"
)

// State represents the lifecycle state of a buffer.
type State int

const (
	// StateStreaming - Buffer accepts appends.
	StateStreaming State = iota
	// StateFrozen - Stream completed; buffer is read-only.
	StateFrozen
	// StateDiscarded - Stream failed; content was dropped. Terminal.
	StateDiscarded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStreaming:
		return "STREAMING"
	case StateFrozen:
		return "FROZEN"
	case StateDiscarded:
		return "DISCARDED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (FROZEN or DISCARDED).
func (s State) IsTerminal() bool {
	return s == StateFrozen || s == StateDiscarded
}

// Errors for invalid state transitions.
var (
	ErrBufferFrozen    = errors.New("buffer is frozen")
	ErrBufferDiscarded = errors.New("buffer was discarded")
	ErrNotFrozen       = errors.New("buffer is still streaming")
)

// Limits bound what a single buffer may hold. Zero disables a limit.
type Limits struct {
	MaxBytes     int64
	MaxFragments int
}

// ErrLimitExceeded is returned when an append would break a Limits bound.
var ErrLimitExceeded = errors.New("stream limit exceeded")

// Buffer is the request-local accumulator for one model response.
//
// State transitions:
//
//	STREAMING → FROZEN
//	    │
//	    └──→ DISCARDED
//
// Rules:
//   - STREAMING: Append allowed; Freeze or Discard ends it
//   - FROZEN: Text readable, no appends
//   - DISCARDED: content dropped, nothing readable
//
// A Buffer belongs to one request and is not safe for concurrent use.
type Buffer struct {
	sb        strings.Builder
	state     State
	fragments int
	limits    Limits
}

// NewBuffer creates a buffer in STREAMING state.
func NewBuffer(limits Limits) *Buffer {
	return &Buffer{limits: limits}
}

// State returns the current state.
func (b *Buffer) State() State {
	return b.state
}

// Len returns the number of bytes buffered so far.
func (b *Buffer) Len() int {
	return b.sb.Len()
}

// Fragments returns the number of fragments appended.
func (b *Buffer) Fragments() int {
	return b.fragments
}

// Append adds a fragment in arrival order.
func (b *Buffer) Append(fragment string) error {
	switch b.state {
	case StateStreaming:
	case StateFrozen:
		return ErrBufferFrozen
	case StateDiscarded:
		return ErrBufferDiscarded
	default:
		return fmt.Errorf("unexpected state: %v", b.state)
	}

	if b.limits.MaxFragments > 0 && b.fragments+1 > b.limits.MaxFragments {
		return fmt.Errorf("%w: max fragments %d", ErrLimitExceeded, b.limits.MaxFragments)
	}
	if b.limits.MaxBytes > 0 && int64(b.sb.Len()+len(fragment)) > b.limits.MaxBytes {
		return fmt.Errorf("%w: max bytes %d", ErrLimitExceeded, b.limits.MaxBytes)
	}

	b.sb.WriteString(fragment)
	b.fragments++
	return nil
}

// Freeze marks the stream complete. Idempotent once frozen.
func (b *Buffer) Freeze() error {
	switch b.state {
	case StateStreaming, StateFrozen:
		b.state = StateFrozen
		return nil
	default:
		return ErrBufferDiscarded
	}
}

// Discard drops the buffered content.
// Returns true if the buffer was discarded, false if already in a terminal state.
func (b *Buffer) Discard() bool {
	if b.state.IsTerminal() {
		return false
	}
	b.sb.Reset()
	b.state = StateDiscarded
	return true
}

// Text returns the accumulated text. Only a frozen buffer can be read.
func (b *Buffer) Text() (string, error) {
	switch b.state {
	case StateFrozen:
		return b.sb.String(), nil
	case StateDiscarded:
		return "", ErrBufferDiscarded
	default:
		return "", ErrNotFrozen
	}
}
