package grpcapi

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"bilingual-transcript-service/internal/models"
)

// Client calls the transcription service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ProcessVideo submits one request and decodes the result document.
func (c *Client) ProcessVideo(ctx context.Context, req models.TranscriptionRequest, opts ...grpc.CallOption) (*models.PipelineResult, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	in := new(structpb.Struct)
	if err := protojson.Unmarshal(b, in); err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ProcessVideoMethod, in, out, opts...); err != nil {
		return nil, err
	}

	raw, err := protojson.Marshal(out)
	if err != nil {
		return nil, err
	}
	var result models.PipelineResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
