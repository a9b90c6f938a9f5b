// Package model defines the interface for generative transcription models.
package model

import (
	"context"
	"errors"
	"iter"
)

// ErrMissingCredential is yielded when no provider credential is configured.
var ErrMissingCredential = errors.New("model provider credential is not configured")

// Adapter defines the interface for streaming model providers (Gemini, mock).
type Adapter interface {
	// Stream opens a generation request for the prompt and the remote content
	// at sourceURI. Fragments are pulled one at a time in arrival order; the
	// sequence ends when the provider signals end of stream. A failure is
	// yielded as a final (fragment, err) pair with a non-nil err.
	Stream(ctx context.Context, prompt, sourceURI string) iter.Seq2[string, error]

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Fail returns a sequence that yields err immediately.
func Fail(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}
