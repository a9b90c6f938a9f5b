// Package grpcapi exposes the transcription pipeline over gRPC. Requests and
// results travel as google.protobuf.Struct using the JSON field names of the
// public wire format.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/service/pipeline"
)

const (
	ServiceName        = "transcription.v1.TranscriptionService"
	ProcessVideoMethod = "/" + ServiceName + "/ProcessVideo"
)

// Runner runs one transcription request.
type Runner interface {
	Run(ctx context.Context, req models.TranscriptionRequest) (*models.PipelineResult, error)
}

// TranscriptionServiceServer is the server API for the transcription service.
type TranscriptionServiceServer interface {
	ProcessVideo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the transcription service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranscriptionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ProcessVideo",
			Handler:    processVideoHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "transcription/v1/transcription.proto",
}

func processVideoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranscriptionServiceServer).ProcessVideo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ProcessVideoMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TranscriptionServiceServer).ProcessVideo(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements TranscriptionServiceServer on top of a Runner.
type Server struct {
	runner Runner
}

// Register registers the transcription service on g.
func Register(g *grpc.Server, runner Runner) {
	g.RegisterService(&ServiceDesc, &Server{runner: runner})
}

// ProcessVideo runs the pipeline and returns the result document.
func (s *Server) ProcessVideo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := encodeResult(result)
	if err != nil {
		log.Error().Err(err).Str("videoId", req.VideoID).Msg("Failed to encode result")
		return nil, status.Error(codes.Internal, pipeline.CategoryInternal.Message())
	}
	return out, nil
}

// toStatus maps a pipeline failure onto a gRPC status with a stable message.
func toStatus(err error) error {
	var pe *pipeline.Error
	if !errors.As(err, &pe) {
		return status.Error(codes.Internal, pipeline.CategoryInternal.Message())
	}
	switch pe.Category.Code() {
	case pipeline.CodeInvalidArgument:
		return status.Error(codes.InvalidArgument, pe.PublicMessage())
	case pipeline.CodeDeadlineExceeded:
		return status.Error(codes.DeadlineExceeded, pe.PublicMessage())
	default:
		return status.Error(codes.Internal, pe.PublicMessage())
	}
}

func decodeRequest(in *structpb.Struct) (models.TranscriptionRequest, error) {
	var req models.TranscriptionRequest
	if in == nil {
		return req, errors.New("empty request")
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return req, errors.New("request fields must be strings")
	}
	return req, nil
}

func encodeResult(result *models.PipelineResult) (*structpb.Struct, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}
