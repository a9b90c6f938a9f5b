package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/service/pipeline"
)

const maxRequestBytes = 64 << 10

// Runner runs one transcription request.
type Runner interface {
	Run(ctx context.Context, req models.TranscriptionRequest) (*models.PipelineResult, error)
}

type errorBody struct {
	Error models.ErrorInfo `json:"error"`
}

// NewRouter constructs the HTTP router for the service. A nil ready func reports ready.
func NewRouter(runner Runner, ready func() bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/v1/videos", func(r chi.Router) {
		r.Post("/process", processVideo(runner))
	})

	return r
}

func processVideo(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.TranscriptionRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: models.ErrorInfo{
				Category: pipeline.CodeInvalidArgument,
				Message:  "request body must be a JSON object",
			}})
			return
		}

		result, err := runner.Run(r.Context(), req)
		if err != nil {
			status, info := toHTTPError(err)
			log.Debug().
				Str("httpRequestId", middleware.GetReqID(r.Context())).
				Str("videoId", req.VideoID).
				Int("status", status).
				Msg("Video processing request failed")
			writeJSON(w, status, errorBody{Error: info})
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func toHTTPError(err error) (int, models.ErrorInfo) {
	var pe *pipeline.Error
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError, models.ErrorInfo{
			Category: pipeline.CodeInternal,
			Message:  pipeline.CategoryInternal.Message(),
		}
	}

	code := pe.Category.Code()
	status := http.StatusInternalServerError
	switch code {
	case pipeline.CodeInvalidArgument:
		status = http.StatusBadRequest
	case pipeline.CodeDeadlineExceeded:
		status = http.StatusGatewayTimeout
	}
	return status, models.ErrorInfo{Category: code, Message: pe.PublicMessage()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
