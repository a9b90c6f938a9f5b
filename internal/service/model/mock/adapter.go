// Package mock provides a scripted model adapter for running without credentials.
// It replays a fixed reply split into fragments, the way a streaming provider
// delivers text that is not aligned to any structural boundary.
package mock

import (
	"context"
	"iter"
	"sync/atomic"
	"time"
)

// DefaultReply is a fenced two-segment transcript wrapped in model commentary.
const DefaultReply = "Here is the transcript:\n```json\n" +
	`[{"timestamp":"00:00","source":"كِتَابٌ أُنزِلَ إِلَيْكَ فَاسْتَمِعُوا لَهُ وَأَنصِتُوا","translation":"A Book that was sent to you, so listen to it and pay attention."},` +
	`{"timestamp":"00:07","source":"بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ","translation":"In the name of God, the Most Gracious, the Most Merciful."}]` +
	"\n```\n"

// Adapter implements model.Adapter with scripted fragments.
type Adapter struct {
	fragments []string
	err       error
	delay     time.Duration
	opened    atomic.Int64
}

// Option configures the mock adapter.
type Option func(*Adapter)

// WithFragments replaces the scripted reply.
func WithFragments(fragments ...string) Option {
	return func(a *Adapter) { a.fragments = fragments }
}

// WithError makes the stream fail after the scripted fragments.
func WithError(err error) Option {
	return func(a *Adapter) { a.err = err }
}

// WithDelay simulates generation latency per fragment.
func WithDelay(d time.Duration) Option {
	return func(a *Adapter) { a.delay = d }
}

// New creates a mock adapter. Without options it replays DefaultReply in 16-byte-ish chunks.
func New(opts ...Option) *Adapter {
	a := &Adapter{fragments: Split(DefaultReply, 16)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "mock"
}

// Opened returns how many streams were opened.
func (a *Adapter) Opened() int {
	return int(a.opened.Load())
}

// Stream replays the scripted fragments.
func (a *Adapter) Stream(ctx context.Context, prompt, sourceURI string) iter.Seq2[string, error] {
	a.opened.Add(1)
	return func(yield func(string, error) bool) {
		for _, f := range a.fragments {
			if a.delay > 0 {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(a.delay):
				}
			}
			if !yield(f, nil) {
				return
			}
		}
		if a.err != nil {
			yield("", a.err)
		}
	}
}

// Split cuts s into chunks of roughly size bytes without breaking UTF-8 runes.
func Split(s string, size int) []string {
	if size <= 0 || len(s) <= size {
		return []string{s}
	}
	var out []string
	start := 0
	for i := range s {
		if i-start >= size {
			out = append(out, s[start:i])
			start = i
		}
	}
	return append(out, s[start:])
}
