package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/lots/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// SendMethod is the unary gateway method carrying every request.
const SendMethod = "/lots.v1.Gateway/Send"

// GRPCTransport implements Transport over the gRPC gateway. Requests and
// envelopes travel as google.protobuf.Struct messages with the same shape
// as the HTTP JSON bodies.
type GRPCTransport struct {
	conn  *grpc.ClientConn
	token string
}

// NewGRPCTransport connects to the given gRPC address.
func NewGRPCTransport(addr, token string, opts ...grpc.DialOption) (*GRPCTransport, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCTransport{conn: conn, token: token}, nil
}

func (t *GRPCTransport) Close() error {
	return t.conn.Close()
}

// Send invokes the gateway with {method, path, body} and decodes the reply.
func (t *GRPCTransport) Send(ctx context.Context, method, path string, body any) (*model.Envelope, error) {
	op := method + " " + path

	req, err := buildRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	if t.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+t.token)
	}

	reply := &structpb.Struct{}
	if err := t.conn.Invoke(ctx, SendMethod, req, reply); err != nil {
		return nil, grpcError(op, err)
	}

	data, err := protojson.Marshal(reply)
	if err != nil {
		return nil, &model.ServerError{Code: "bad_payload", Err: &model.DeserializationError{Err: err}}
	}
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &model.ServerError{
			Code:         "bad_payload",
			HumanMessage: err.Error(),
			Err:          &model.DeserializationError{Err: err},
		}
	}
	if env.Failed() {
		return nil, &model.ServerError{Code: env.ErrorCode, HumanMessage: env.HumanMessage}
	}
	return &env, nil
}

func buildRequest(method, path string, body any) (*structpb.Struct, error) {
	fields := map[string]any{"method": method, "path": path}
	if body != nil {
		// Round-trip through JSON so structs and json.RawMessage values become
		// the plain maps and slices structpb accepts.
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		fields["body"] = v
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return req, nil
}

// grpcError maps a gRPC status onto the client error taxonomy.
func grpcError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &model.TransportError{Op: op, Err: err}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return &model.TransportError{Op: op, Err: err}
	}
	return &model.ServerError{Code: st.Code().String(), HumanMessage: st.Message()}
}
