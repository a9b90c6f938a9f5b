// Package extract recovers a JSON document from free-form model output.
//
// Extract never fails: when no structured value can be parsed, the caller gets
// the original text back unchanged so it can still be shown.
package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// Kind tells whether extraction produced a structured value.
type Kind int

const (
	Unstructured Kind = iota
	Structured
)

// String returns the metric label for the kind.
func (k Kind) String() string {
	if k == Structured {
		return "structured"
	}
	return "unstructured"
}

// Outcome is the result of Extract. Value is set for Structured, Text for Unstructured.
type Outcome struct {
	Kind  Kind
	Value json.RawMessage
	Text  string
}

// IsStructured reports whether a JSON value was recovered.
func (o Outcome) IsStructured() bool {
	return o.Kind == Structured
}

var (
	// Non-greedy so the first closing fence ends the block.
	taggedFence  = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	genericFence = regexp.MustCompile("(?s)```(.*?)```")
)

// Extract locates and parses the structured payload in raw.
//
// The candidate is the interior of the first ```json fence, else of the first
// generic fence, else raw itself. Once a fence is chosen its parse result is
// final: a tagged fence that fails to parse does not fall back to a generic
// one. On failure the full original text is returned, not the candidate.
func Extract(raw string) Outcome {
	candidate := raw
	if m := taggedFence.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	} else if m := genericFence.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	if value, ok := parse(candidate); ok {
		return Outcome{Kind: Structured, Value: value}
	}
	return Outcome{Kind: Unstructured, Text: raw}
}

// parse accepts only a JSON object or array.
func parse(candidate string) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace([]byte(candidate))
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	if !json.Valid(trimmed) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}
