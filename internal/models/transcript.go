// Package models defines the request, transcript and result structures.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Status is the terminal state of one pipeline run.
type Status string

const (
	StatusTranscribed Status = "transcribed"
	StatusFailed      Status = "failed"
)

// Format describes the shape of PipelineResult.Output.
type Format string

const (
	// FormatJSON means Output is the structured value extracted from the model reply.
	FormatJSON Format = "json"
	// FormatText means Output is the raw model reply as a JSON string.
	FormatText Format = "text"
)

// TranscriptionRequest is one caller request. Field names follow the public wire format.
type TranscriptionRequest struct {
	VideoID        string `json:"videoId"`
	SourceURI      string `json:"url"`
	TargetLanguage string `json:"targetLanguage"`
}

// TranscriptSegment is one timestamped source/translation pair.
type TranscriptSegment struct {
	Timestamp   string `json:"timestamp"`
	Source      string `json:"source"`
	Translation string `json:"translation"`
}

// ErrorInfo is the caller-visible error attached to a failed result.
type ErrorInfo struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// PipelineResult is the terminal output of one request.
type PipelineResult struct {
	Status  Status          `json:"status"`
	VideoID string          `json:"videoId"`
	Format  Format          `json:"format,omitempty"`
	Output  json.RawMessage `json:"output,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

// ResultEvent is published once per request after the result is assembled.
type ResultEvent struct {
	EventType      string          `json:"eventType"`
	EventID        string          `json:"eventId"`
	RequestID      string          `json:"requestId"`
	VideoID        string          `json:"videoId"`
	TargetLanguage string          `json:"targetLanguage"`
	Status         Status          `json:"status"`
	Format         Format          `json:"format,omitempty"`
	Output         json.RawMessage `json:"output,omitempty"`
	Error          *ErrorInfo      `json:"error,omitempty"`
	Timestamp      int64           `json:"timestamp"`
}

// ErrNotTranscript is returned when a structured value has no segment list.
var ErrNotTranscript = errors.New("structured output is not a transcript")

// DecodeTranscript reads segments from a structured model reply. It accepts a
// bare array or an object holding a "segments" array. Segments are returned as
// given; ordering and content are not checked.
func DecodeTranscript(raw json.RawMessage) ([]TranscriptSegment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrNotTranscript
	}

	switch trimmed[0] {
	case '[':
		var segments []TranscriptSegment
		if err := json.Unmarshal(trimmed, &segments); err != nil {
			return nil, err
		}
		return segments, nil
	case '{':
		var wrapper struct {
			Segments []TranscriptSegment `json:"segments"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, err
		}
		if wrapper.Segments == nil {
			return nil, ErrNotTranscript
		}
		return wrapper.Segments, nil
	default:
		return nil, ErrNotTranscript
	}
}
