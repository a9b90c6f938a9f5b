package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/service/pipeline"
)

type fakeRunner struct {
	got    models.TranscriptionRequest
	result *models.PipelineResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, req models.TranscriptionRequest) (*models.PipelineResult, error) {
	f.got = req
	if f.result != nil {
		return f.result, f.err
	}
	return &models.PipelineResult{Status: models.StatusFailed, VideoID: req.VideoID}, f.err
}

func dial(t *testing.T, runner Runner) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, runner)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestProcessVideo_Transcribed(t *testing.T) {
	runner := &fakeRunner{result: &models.PipelineResult{
		Status:  models.StatusTranscribed,
		VideoID: "v1",
		Format:  models.FormatJSON,
		Output:  json.RawMessage(`[{"timestamp":"00:00","source":"س","translation":"s"}]`),
	}}
	client := dial(t, runner)

	req := models.TranscriptionRequest{VideoID: "v1", SourceURI: "https://youtu.be/v1", TargetLanguage: "fr"}
	result, err := client.ProcessVideo(context.Background(), req)
	if err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}

	if runner.got != req {
		t.Errorf("server decoded %+v, want %+v", runner.got, req)
	}
	if result.Status != models.StatusTranscribed || result.Format != models.FormatJSON {
		t.Errorf("unexpected result %+v", result)
	}
	segments, err := models.DecodeTranscript(result.Output)
	if err != nil || len(segments) != 1 || segments[0].Translation != "s" {
		t.Errorf("unexpected segments %+v (%v)", segments, err)
	}
}

func TestProcessVideo_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{
			name:    "invalid argument",
			err:     &pipeline.Error{Category: pipeline.CategoryInvalidArgument, Op: "validate", Err: errors.New("missing required field: url")},
			code:    codes.InvalidArgument,
			message: "missing required field: url",
		},
		{
			name:    "timeout",
			err:     &pipeline.Error{Category: pipeline.CategoryTimeout, Op: "stream", Err: context.DeadlineExceeded},
			code:    codes.DeadlineExceeded,
			message: "video processing timed out",
		},
		{
			name:    "acquisition",
			err:     &pipeline.Error{Category: pipeline.CategoryAcquisition, Op: "acquire", Err: errors.New("exit status 1: /tmp/x")},
			code:    codes.Internal,
			message: "video processing failed",
		},
		{
			name:    "uncategorized",
			err:     errors.New("boom"),
			code:    codes.Internal,
			message: "video processing failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := dial(t, &fakeRunner{err: tt.err})

			_, err := client.ProcessVideo(context.Background(), models.TranscriptionRequest{VideoID: "v"})
			st, ok := status.FromError(err)
			if !ok {
				t.Fatalf("expected gRPC status, got %v", err)
			}
			if st.Code() != tt.code {
				t.Errorf("code = %s, want %s", st.Code(), tt.code)
			}
			if st.Message() != tt.message {
				t.Errorf("message = %q, want %q", st.Message(), tt.message)
			}
		})
	}
}

func TestDecodeRequest_NonStringField(t *testing.T) {
	in, err := structpb.NewStruct(map[string]interface{}{"videoId": 42.0})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}

	if _, err := decodeRequest(in); err == nil {
		t.Error("expected error for numeric videoId")
	}
}

func TestServer_NonStringFieldIsInvalidArgument(t *testing.T) {
	s := &Server{runner: &fakeRunner{}}
	in, _ := structpb.NewStruct(map[string]interface{}{"url": true})

	_, err := s.ProcessVideo(context.Background(), in)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
