package pipeline

import (
	"context"
	"errors"
	"fmt"

	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/service/stream"
)

// Category classifies a pipeline failure.
type Category string

const (
	CategoryInvalidArgument Category = "InvalidArgument"
	CategoryAcquisition     Category = "AcquisitionError"
	CategoryModelSession    Category = "ModelSessionError"
	CategoryTimeout         Category = "Timeout"
	CategoryInternal        Category = "InternalError"
)

// Caller-visible codes.
const (
	CodeInvalidArgument  = "invalid-argument"
	CodeDeadlineExceeded = "deadline-exceeded"
	CodeInternal         = "internal"
)

// Code returns the caller-visible code for the category.
func (c Category) Code() string {
	switch c {
	case CategoryInvalidArgument:
		return CodeInvalidArgument
	case CategoryTimeout:
		return CodeDeadlineExceeded
	default:
		return CodeInternal
	}
}

// Message returns the stable caller-visible message for the category.
// Causes are logged, never returned to callers, except for request
// validation where the caller can act on the detail.
func (c Category) Message() string {
	switch c {
	case CategoryInvalidArgument:
		return "invalid request"
	case CategoryTimeout:
		return "video processing timed out"
	default:
		return "video processing failed"
	}
}

// Error is a categorized pipeline failure.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PublicMessage is the message safe to return to callers.
func (e *Error) PublicMessage() string {
	if e.Category == CategoryInvalidArgument && e.Err != nil {
		return e.Err.Error()
	}
	return e.Category.Message()
}

// Info converts the error into the result's error field.
func (e *Error) Info() *models.ErrorInfo {
	return &models.ErrorInfo{
		Category: string(e.Category),
		Message:  e.PublicMessage(),
	}
}

// CategoryOf returns the category of err, or CategoryInternal if err carries none.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}

// classify wraps a step failure. Deadline and cancellation always win over
// the step's own category.
func classify(ctx context.Context, op string, category Category, err error) *Error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Category: CategoryTimeout, Op: op, Err: err}
	}
	return &Error{Category: category, Op: op, Err: err}
}

// discardReason labels a stream failure for metrics.
func discardReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, stream.ErrLimitExceeded):
		return "limit"
	default:
		return "provider"
	}
}
